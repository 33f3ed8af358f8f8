package regs

import "fmt"

// Reg identifies a 32-bit peripheral register by its offset from the chip's
// peripheral base address.
type Reg uintptr

// Register block offsets. See the CH32V103 reference manual, memory map.
const (
	AFIO_OFFSET  = Reg(0x00010000)
	GPIOA_OFFSET = Reg(0x00010800)
	TIM1_OFFSET  = Reg(0x00012c00)
	RCC_OFFSET   = Reg(0x00021000)
	FLASH_OFFSET = Reg(0x00022000)

	GPIO_PORT_STRIDE = Reg(0x400)
	BLOCK_SIZE       = 0x400
)

const (
	RCC_CTLR      = RCC_OFFSET + 0x00
	RCC_CFGR0     = RCC_OFFSET + 0x04
	RCC_INTR      = RCC_OFFSET + 0x08
	RCC_APB2PRSTR = RCC_OFFSET + 0x0c
	RCC_APB1PRSTR = RCC_OFFSET + 0x10
	RCC_AHBPCENR  = RCC_OFFSET + 0x14
	RCC_APB2PCENR = RCC_OFFSET + 0x18
	RCC_APB1PCENR = RCC_OFFSET + 0x1c

	FLASH_ACTLR = FLASH_OFFSET + 0x00

	AFIO_ECR  = AFIO_OFFSET + 0x00
	AFIO_PCFR = AFIO_OFFSET + 0x04

	TIM1_CTLR1  = TIM1_OFFSET + 0x00
	TIM1_SWEVGR = TIM1_OFFSET + 0x14
	TIM1_PSC    = TIM1_OFFSET + 0x28
	TIM1_ATRLR  = TIM1_OFFSET + 0x2c
	TIM1_RPTCR  = TIM1_OFFSET + 0x30
)

// Per-port GPIO register offsets, relative to the port block.
const (
	GPIO_CFGLR = Reg(0x00)
	GPIO_CFGHR = Reg(0x04)
	GPIO_INDR  = Reg(0x08)
	GPIO_OUTDR = Reg(0x0c)
	GPIO_BSHR  = Reg(0x10)
	GPIO_BCR   = Reg(0x14)
	GPIO_LCKR  = Reg(0x18)
)

// GPIO returns the register at offset off within GPIO port n (0 = port A).
func GPIO(port int, off Reg) Reg {
	return GPIOA_OFFSET + Reg(port)*GPIO_PORT_STRIDE + off
}

var names = map[Reg]string{
	RCC_CTLR:      "RCC_CTLR",
	RCC_CFGR0:     "RCC_CFGR0",
	RCC_INTR:      "RCC_INTR",
	RCC_APB2PRSTR: "RCC_APB2PRSTR",
	RCC_APB1PRSTR: "RCC_APB1PRSTR",
	RCC_AHBPCENR:  "RCC_AHBPCENR",
	RCC_APB2PCENR: "RCC_APB2PCENR",
	RCC_APB1PCENR: "RCC_APB1PCENR",
	FLASH_ACTLR:   "FLASH_ACTLR",
	AFIO_ECR:      "AFIO_ECR",
	AFIO_PCFR:     "AFIO_PCFR",
	TIM1_CTLR1:    "TIM1_CTLR1",
	TIM1_SWEVGR:   "TIM1_SWEVGR",
	TIM1_PSC:      "TIM1_PSC",
	TIM1_ATRLR:    "TIM1_ATRLR",
	TIM1_RPTCR:    "TIM1_RPTCR",
}

func (r Reg) String() string {
	if n, ok := names[r]; ok {
		return n
	}
	if r >= GPIOA_OFFSET && r < TIM1_OFFSET {
		port := (r - GPIOA_OFFSET) / GPIO_PORT_STRIDE
		return fmt.Sprintf("GPIO%c+%02X", 'A'+rune(port), uintptr((r-GPIOA_OFFSET)%GPIO_PORT_STRIDE))
	}
	return fmt.Sprintf("REG@%08X", uintptr(r))
}

// IRQState is the interrupt-enable state captured when delivery is suspended.
type IRQState uint32

// File is the capability to access the peripheral registers of one chip.
// Implementations are the mmap-backed Memory and the in-memory Sim.
type File interface {
	Load(r Reg) uint32
	Store(r Reg, v uint32)
	// DisableInterrupts suspends interrupt delivery and returns the state
	// that RestoreInterrupts must be given to undo it.
	DisableInterrupts() IRQState
	RestoreInterrupts(s IRQState)
}

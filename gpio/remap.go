package gpio

import "github.com/Jon-Bright/rccctl/regs"

const RCC_APB2PCENR_AFIOEN = 1 << 0

// AFIO_PCFR fields
const (
	AFIO_PCFR_SPI1_RM       = 1 << 0
	AFIO_PCFR_I2C1_RM       = 1 << 1
	AFIO_PCFR_USART1_RM     = 1 << 2
	AFIO_PCFR_USART3_RM_Pos = 4
	AFIO_PCFR_TIM1_RM_Pos   = 6
	AFIO_PCFR_TIM2_RM_Pos   = 8
	AFIO_PCFR_TIM3_RM_Pos   = 10
	AFIO_PCFR_CAN_RM_Pos    = 13
	AFIO_PCFR_PD01_RM       = 1 << 15
	AFIO_PCFR_SWCFG_Pos     = 24

	AFIO_PCFR_Msk = AFIO_PCFR_SPI1_RM | AFIO_PCFR_I2C1_RM | AFIO_PCFR_USART1_RM |
		0x3<<AFIO_PCFR_USART3_RM_Pos | 0x3<<AFIO_PCFR_TIM1_RM_Pos | 0x3<<AFIO_PCFR_TIM2_RM_Pos |
		0x3<<AFIO_PCFR_TIM3_RM_Pos | 0x3<<AFIO_PCFR_CAN_RM_Pos | AFIO_PCFR_PD01_RM |
		0x7<<AFIO_PCFR_SWCFG_Pos
)

type SWCfg uint32

const (
	SWCfgDefault SWCfg = 0b000
	// SWCfgOff disables the debug port, freeing its pins.
	SWCfgOff SWCfg = 0b100
)

type CANRemap uint32

const (
	CANDefault  CANRemap = 0b00
	CANRemapped CANRemap = 0b10
)

type TIM3Remap uint32

const (
	TIM3Default TIM3Remap = 0b00
	TIM3Partial TIM3Remap = 0b10
	TIM3Full    TIM3Remap = 0b11
)

type TIM2Remap uint32

const (
	TIM2Default  TIM2Remap = 0b00
	TIM2Partial1 TIM2Remap = 0b01
	TIM2Partial2 TIM2Remap = 0b10
	TIM2Full     TIM2Remap = 0b11
)

type TIM1Remap uint32

const (
	TIM1Default TIM1Remap = 0b00
	TIM1Partial TIM1Remap = 0b01
)

type USART3Remap uint32

const (
	USART3Default USART3Remap = 0b00
	USART3Partial USART3Remap = 0b01
	USART3Full    USART3Remap = 0b11
)

// Remap selects alternate pin assignments for on-chip peripherals.
type Remap struct {
	SWCfg  SWCfg
	PD01   bool // OSC_IN/OSC_OUT used as PD0/PD1
	CAN    CANRemap
	TIM3   TIM3Remap
	TIM2   TIM2Remap
	TIM1   TIM1Remap
	USART3 USART3Remap
	USART1 bool
	I2C1   bool
	SPI1   bool
}

// DefaultRemap is the reset state: every peripheral on its default pins.
func DefaultRemap() Remap {
	return Remap{}
}

func (r Remap) bits() uint32 {
	v := uint32(r.SWCfg)<<AFIO_PCFR_SWCFG_Pos |
		uint32(r.CAN)<<AFIO_PCFR_CAN_RM_Pos |
		uint32(r.TIM3)<<AFIO_PCFR_TIM3_RM_Pos |
		uint32(r.TIM2)<<AFIO_PCFR_TIM2_RM_Pos |
		uint32(r.TIM1)<<AFIO_PCFR_TIM1_RM_Pos |
		uint32(r.USART3)<<AFIO_PCFR_USART3_RM_Pos
	if r.PD01 {
		v |= AFIO_PCFR_PD01_RM
	}
	if r.USART1 {
		v |= AFIO_PCFR_USART1_RM
	}
	if r.I2C1 {
		v |= AFIO_PCFR_I2C1_RM
	}
	if r.SPI1 {
		v |= AFIO_PCFR_SPI1_RM
	}
	return v
}

// Apply enables the AFIO clock and writes every remap field at once.
func (r Remap) Apply(f regs.File) {
	g := regs.Enter(f)
	defer g.Exit()
	f.Store(regs.RCC_APB2PCENR, f.Load(regs.RCC_APB2PCENR)|RCC_APB2PCENR_AFIOEN)
	f.Store(regs.AFIO_PCFR, f.Load(regs.AFIO_PCFR)&^AFIO_PCFR_Msk|r.bits())
}

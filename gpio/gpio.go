package gpio

import (
	"errors"
	"fmt"

	"github.com/Jon-Bright/rccctl/regs"
)

var (
	ErrInvalidPort = errors.New("gpio: invalid port")
	ErrInvalidPin  = errors.New("gpio: invalid pin")
	ErrLockFailed  = errors.New("gpio: configuration lock not taken")
)

type Port int

const (
	PortA Port = iota
	PortB
	PortC
	PortD
	PortE
)

func (p Port) String() string {
	return fmt.Sprintf("GPIO%c", 'A'+rune(p))
}

const GPIO_LCKR_LCKK = 1 << 16

// RCC_APB2PCENR clock enable bit for port A; later ports follow on.
const RCC_APB2PCENR_IOPAEN = 1 << 2

// Mode is the 2-bit MODE field: input, or output with a slew limit.
type Mode uint32

const (
	Input       Mode = 0b00
	Output10MHz Mode = 0b01
	Output2MHz  Mode = 0b10
	Output50MHz Mode = 0b11
)

// Cnf is the 2-bit CNF field. Its meaning depends on Mode.
type Cnf uint32

const (
	// Input configurations
	Analog     Cnf = 0b00
	Floating   Cnf = 0b01
	PullUpDown Cnf = 0b10

	// Output configurations
	PushPull     Cnf = 0b00
	OpenDrain    Cnf = 0b01
	AltPushPull  Cnf = 0b10
	AltOpenDrain Cnf = 0b11
)

type Pull int

const (
	PullNone Pull = iota
	PullDown
	PullUp
)

// Pin is one GPIO line.
type Pin struct {
	f    regs.File
	port Port
	num  uint8
}

// New enables the port clock if it is off and puts the pin in mode.
func New(f regs.File, chip regs.Chip, port Port, num uint8, mode Mode) (*Pin, error) {
	if !chip.HasPort(int(port)) {
		return nil, fmt.Errorf("%w: %v on %s", ErrInvalidPort, port, chip.Series)
	}
	if num > 15 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPin, num)
	}
	en := uint32(RCC_APB2PCENR_IOPAEN << uint(port))
	if !regs.HasBits(f, regs.RCC_APB2PCENR, en) {
		regs.SetBits(f, regs.RCC_APB2PCENR, en)
	}

	p := &Pin{f: f, port: port, num: num}
	p.SetMode(mode)
	return p, nil
}

func (p *Pin) String() string {
	return fmt.Sprintf("P%c%d", 'A'+rune(p.port), p.num)
}

// cfg returns the CFGLR/CFGHR register holding this pin and the bit offset
// of its 4-bit field.
func (p *Pin) cfg() (regs.Reg, uint) {
	r := regs.GPIO_CFGLR
	if p.num >= 8 {
		r = regs.GPIO_CFGHR
	}
	return regs.GPIO(int(p.port), r), uint(4 * (p.num % 8))
}

func (p *Pin) SetMode(m Mode) {
	r, offset := p.cfg()
	regs.ReplaceBits(p.f, r, uint32(m)<<offset, 0x3<<offset)
}

func (p *Pin) SetConfig(c Cnf) {
	r, offset := p.cfg()
	regs.ReplaceBits(p.f, r, uint32(c)<<(offset+2), 0x3<<(offset+2))
}

// SetPull makes the pin a pulled or floating input. The pull direction lives
// in the output data register.
func (p *Pin) SetPull(pull Pull) {
	p.SetMode(Input)
	switch pull {
	case PullNone:
		p.SetConfig(Floating)
	case PullUp:
		p.SetConfig(PullUpDown)
		p.Set(true)
	case PullDown:
		p.SetConfig(PullUpDown)
		p.Set(false)
	}
}

// Set drives the pin. BSHR and BCR writes are atomic in hardware, so no
// critical section is needed.
func (p *Pin) Set(high bool) {
	if high {
		p.f.Store(regs.GPIO(int(p.port), regs.GPIO_BSHR), 1<<p.num)
	} else {
		p.f.Store(regs.GPIO(int(p.port), regs.GPIO_BCR), 1<<p.num)
	}
}

func (p *Pin) Get() bool {
	return p.f.Load(regs.GPIO(int(p.port), regs.GPIO_INDR))&(1<<p.num) != 0
}

// Lock freezes the pin's configuration until the next reset. The key
// sequence has to run uninterrupted.
func (p *Pin) Lock() error {
	r := regs.GPIO(int(p.port), regs.GPIO_LCKR)
	g := regs.Enter(p.f)
	defer g.Exit()
	bits := p.f.Load(r)&0xffff | 1<<p.num
	p.f.Store(r, GPIO_LCKR_LCKK|bits)
	p.f.Store(r, bits)
	p.f.Store(r, GPIO_LCKR_LCKK|bits)
	p.f.Load(r)
	if p.f.Load(r)&GPIO_LCKR_LCKK == 0 {
		return fmt.Errorf("%w: %v", ErrLockFailed, p)
	}
	return nil
}

package rcc

import (
	"fmt"
	"log"

	"github.com/Jon-Bright/rccctl/regs"
)

// DEFAULT_MAX_POLLS bounds every ready/lock wait in Setup.
const DEFAULT_MAX_POLLS = 100000

// FLASH_LATENCY_THRESHOLD is the lowest SYSCLK that needs two wait states.
const FLASH_LATENCY_THRESHOLD = 48 * MHz

// State is a step of the clock switch protocol.
type State int

const (
	Idle State = iota
	FeedStabilizing
	MultiplierDisabling
	MultiplierLocking
	Committed
)

var stateNames = map[State]string{
	Idle:                "idle",
	FeedStabilizing:     "feed stabilizing",
	MultiplierDisabling: "multiplier disabling",
	MultiplierLocking:   "multiplier locking",
	Committed:           "committed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// FlashLatency returns the flash wait states needed at sysclk Hz.
func FlashLatency(sysclk uint32) uint32 {
	return flashLatency(uint64(sysclk))
}

func flashLatency(sysclk uint64) uint32 {
	if sysclk < FLASH_LATENCY_THRESHOLD {
		return 1
	}
	return 2
}

// Sequencer drives the clock hardware behind a register file from whatever
// state it is in to a given configuration.
type Sequencer struct {
	regs regs.File
	// MaxPolls bounds each wait for a ready or lock flag. Zero or less
	// means DEFAULT_MAX_POLLS.
	MaxPolls int
	// Logger receives progress messages; nil means the standard logger.
	Logger *log.Logger
	state  State
}

func NewSequencer(f regs.File) *Sequencer {
	return &Sequencer{regs: f, MaxPolls: DEFAULT_MAX_POLLS}
}

// Setup applies c to the hardware behind f with a default Sequencer.
func Setup(f regs.File, c Clocks) error {
	return NewSequencer(f).Setup(c)
}

// State returns the last protocol state reached by Setup.
func (s *Sequencer) State() State {
	return s.state
}

func (s *Sequencer) logf(format string, v ...interface{}) {
	if s.Logger != nil {
		s.Logger.Printf(format, v...)
		return
	}
	log.Printf(format, v...)
}

// Setup switches the hardware to c. It does not validate c first: an over
// limit configuration is applied as given. Flash wait states are set from
// c's SYSCLK before any oscillator is touched, so they briefly lead the
// actual clock.
func (s *Sequencer) Setup(c Clocks) error {
	s.state = Idle
	sysclk := c.wide().sysClk
	latency := flashLatency(sysclk)
	s.logf("Setting up clocks: %v, SYSCLK %d Hz, %d flash wait states\n", c.Source, sysclk, latency)
	regs.Modify(s.regs, regs.FLASH_ACTLR, func(v uint32) uint32 {
		return v&^FLASH_ACTLR_LATENCY_Msk | FLASH_ACTLR_PRFTBE | latency
	})

	g := regs.Enter(s.regs)
	defer g.Exit()

	s.state = FeedStabilizing
	switch feed := c.Source.Feed(); feed.Kind {
	case OscHSI:
		s.setCtlr(RCC_CTLR_HSION, true)
		if err := s.waitCtlr("HSIRDY", RCC_CTLR_HSIRDY, true); err != nil {
			return err
		}
	case OscHSE:
		s.setCtlr(RCC_CTLR_HSEON, true)
		if err := s.waitCtlr("HSERDY", RCC_CTLR_HSERDY, true); err != nil {
			return err
		}
	}

	s.setCtlr(RCC_CTLR_HSEBYP, c.HSEBypass)

	if c.Source.Kind == SourcePLL {
		s.state = MultiplierDisabling
		s.setCtlr(RCC_CTLR_PLLON, false)
		if err := s.waitCtlr("PLLRDY", RCC_CTLR_PLLRDY, false); err != nil {
			return err
		}

		cfg := uint32(c.PLLMul) << RCC_CFGR0_PLLMUL_Pos
		switch c.Source.PLL.Kind {
		case PLLHSE:
			cfg |= RCC_CFGR0_PLLSRC
		case PLLHSEDiv2:
			cfg |= RCC_CFGR0_PLLSRC | RCC_CFGR0_PLLXTPRE
		}
		v := s.regs.Load(regs.RCC_CFGR0)
		s.regs.Store(regs.RCC_CFGR0, v&^RCC_CFGR0_PLLCFG_Msk|cfg)

		s.state = MultiplierLocking
		s.setCtlr(RCC_CTLR_PLLON, true)
		if err := s.waitCtlr("PLLRDY", RCC_CTLR_PLLRDY, true); err != nil {
			return err
		}
	}

	bus := c.Source.bits()<<RCC_CFGR0_SW_Pos |
		uint32(c.AHB)<<RCC_CFGR0_HPRE_Pos |
		uint32(c.APB1)<<RCC_CFGR0_PPRE1_Pos |
		uint32(c.APB2)<<RCC_CFGR0_PPRE2_Pos |
		uint32(c.ADC)<<RCC_CFGR0_ADCPRE_Pos
	v := s.regs.Load(regs.RCC_CFGR0)
	s.regs.Store(regs.RCC_CFGR0, v&^RCC_CFGR0_BUS_Msk|bus)

	s.setCtlr(RCC_CTLR_CSSON, c.CSS)
	s.state = Committed
	return nil
}

// setCtlr sets or clears bits in RCC_CTLR. The caller holds the guard.
func (s *Sequencer) setCtlr(bits uint32, on bool) {
	v := s.regs.Load(regs.RCC_CTLR)
	if on {
		v |= bits
	} else {
		v &^= bits
	}
	s.regs.Store(regs.RCC_CTLR, v)
}

// waitCtlr polls RCC_CTLR until flag reads as want, giving up after MaxPolls
// reads.
func (s *Sequencer) waitCtlr(name string, flag uint32, want bool) error {
	s.logf("Waiting for %s=%v\n", name, want)
	polls := s.MaxPolls
	if polls <= 0 {
		polls = DEFAULT_MAX_POLLS
	}
	for i := 0; i < polls; i++ {
		if (s.regs.Load(regs.RCC_CTLR)&flag != 0) == want {
			s.logf("Done %d\n", i)
			return nil
		}
	}
	return fmt.Errorf("%w: %s still %v after %d polls", ErrHardwareFault, name, !want, polls)
}

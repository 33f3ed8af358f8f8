package rcc

import "github.com/Jon-Bright/rccctl/regs"

// SimOptions tunes the oscillator model installed by NewSim.
type SimOptions struct {
	// ReadyAfter is how many RCC_CTLR reads a ready or lock flag takes to
	// follow its enable bit.
	ReadyAfter int
	// Stuck holds RCC_CTLR ready flags that never change state.
	Stuck uint32
}

type pendingFlag struct {
	on   bool
	left int
}

// NewSim returns an in-memory register file in the reset state (HSI on and
// ready) with a model of the oscillators, PLL and clock switch attached.
func NewSim(opts SimOptions) *regs.Sim {
	s := regs.NewSim()
	s.Poke(regs.RCC_CTLR, RCC_CTLR_HSION|RCC_CTLR_HSIRDY)

	pending := map[uint32]*pendingFlag{}
	follow := map[uint32]uint32{
		RCC_CTLR_HSION: RCC_CTLR_HSIRDY,
		RCC_CTLR_HSEON: RCC_CTLR_HSERDY,
		RCC_CTLR_PLLON: RCC_CTLR_PLLRDY,
	}
	s.OnStore(regs.RCC_CTLR, func(s *regs.Sim, old, new uint32) {
		for en, rdy := range follow {
			if old&en == new&en || opts.Stuck&rdy != 0 {
				continue
			}
			pending[rdy] = &pendingFlag{on: new&en != 0, left: opts.ReadyAfter}
		}
		apply(s, pending)
	})
	s.OnLoad(regs.RCC_CTLR, func(s *regs.Sim) {
		for _, p := range pending {
			p.left--
		}
		apply(s, pending)
	})
	s.OnStore(regs.RCC_CFGR0, func(s *regs.Sim, old, new uint32) {
		sw := (new & RCC_CFGR0_SW_Msk) >> RCC_CFGR0_SW_Pos
		s.Poke(regs.RCC_CFGR0, new&^RCC_CFGR0_SWS_Msk|sw<<RCC_CFGR0_SWS_Pos)
	})
	return s
}

func apply(s *regs.Sim, pending map[uint32]*pendingFlag) {
	for rdy, p := range pending {
		if p.left > 0 {
			continue
		}
		v := s.Peek(regs.RCC_CTLR)
		if p.on {
			v |= rdy
		} else {
			v &^= rdy
		}
		s.Poke(regs.RCC_CTLR, v)
		delete(pending, rdy)
	}
}

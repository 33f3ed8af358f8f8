package rcc

import "github.com/Jon-Bright/rccctl/regs"

// CurrentSource reports the active system clock. The hardware status only
// distinguishes HSI from "HSE or PLL", so for the latter the source c asked
// for is returned as is.
func (s *Sequencer) CurrentSource(c Clocks) Source {
	g := regs.Enter(s.regs)
	sws := (s.regs.Load(regs.RCC_CFGR0) & RCC_CFGR0_SWS_Msk) >> RCC_CFGR0_SWS_Pos
	g.Exit()
	switch sws {
	case 0:
		return HSI()
	case 1, 2:
		return c.Source
	default:
		return Unavailable()
	}
}

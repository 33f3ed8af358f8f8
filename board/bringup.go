package board

import (
	"fmt"
	"log"

	"github.com/Jon-Bright/rccctl/gpio"
	"github.com/Jon-Bright/rccctl/rcc"
	"github.com/Jon-Bright/rccctl/regs"
	"github.com/Jon-Bright/rccctl/timer"
)

// Bringup runs the clock sequencer on f, then applies the board's remap,
// pins and timer in that order. It stops at the first failure.
func (b *Board) Bringup(f regs.File, seq *rcc.Sequencer) error {
	if err := seq.Setup(b.Clocks); err != nil {
		return fmt.Errorf("clock setup: %w", err)
	}
	if b.Remap != nil {
		b.Remap.Apply(f)
	}
	for _, bp := range b.Pins {
		p, err := gpio.New(f, b.Chip, bp.Port, bp.Num, bp.Mode)
		if err != nil {
			return err
		}
		switch {
		case bp.Mode == gpio.Input && bp.Cnf == nil:
			p.SetPull(bp.Pull)
		case bp.Cnf != nil:
			p.SetConfig(*bp.Cnf)
		}
		if bp.Level != nil {
			p.Set(*bp.Level)
		}
		if bp.Lock {
			if err := p.Lock(); err != nil {
				return err
			}
		}
		log.Printf("Configured %v", p)
	}
	if b.Timer != nil {
		t := timer.New(f, b.Timer.Config)
		if b.Timer.Enable {
			if err := t.Enable(); err != nil {
				return err
			}
		}
	}
	return nil
}

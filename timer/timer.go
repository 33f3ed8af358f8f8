// Package timer sets up the time base of the advanced timer, TIM1.
package timer

import (
	"errors"

	"github.com/Jon-Bright/rccctl/regs"
)

var (
	ErrEnableFailed  = errors.New("timer: counter did not start")
	ErrDisableFailed = errors.New("timer: counter did not stop")
)

const (
	RCC_APB2PCENR_TIM1EN = 1 << 11

	TIM_CTLR1_CEN     = 1 << 0
	TIM_CTLR1_DIR     = 1 << 4
	TIM_CTLR1_CKD_Pos = 8
	TIM_CTLR1_CKD_Msk = 0x3 << TIM_CTLR1_CKD_Pos

	TIM_SWEVGR_UG = 1 << 0
)

type CounterMode int

const (
	Up CounterMode = iota
	Down
)

// ClockDivision is the ratio between the timer clock and the dead-time and
// digital filter sampling clock.
type ClockDivision uint32

const (
	CKDiv1 ClockDivision = 0b00
	CKDiv2 ClockDivision = 0b01
	CKDiv4 ClockDivision = 0b10
)

// ReloadMode picks when a new prescaler value takes effect: at the next
// update event, or immediately through a software-generated update.
type ReloadMode int

const (
	ReloadUpdate ReloadMode = iota
	ReloadImmediate
)

type BaseConfig struct {
	Prescaler         uint16
	Mode              CounterMode
	Period            uint16
	ClockDivision     ClockDivision
	RepetitionCounter uint16
	ReloadMode        ReloadMode
}

type Timer struct {
	f   regs.File
	cfg BaseConfig
}

// New clocks TIM1 and loads its time base. The counter is left stopped.
func New(f regs.File, cfg BaseConfig) *Timer {
	g := regs.Enter(f)
	defer g.Exit()

	f.Store(regs.RCC_APB2PCENR, f.Load(regs.RCC_APB2PCENR)|RCC_APB2PCENR_TIM1EN)

	ctlr := f.Load(regs.TIM1_CTLR1) &^ (TIM_CTLR1_DIR | TIM_CTLR1_CKD_Msk)
	if cfg.Mode == Down {
		ctlr |= TIM_CTLR1_DIR
	}
	ctlr |= uint32(cfg.ClockDivision) << TIM_CTLR1_CKD_Pos & TIM_CTLR1_CKD_Msk
	f.Store(regs.TIM1_CTLR1, ctlr)

	f.Store(regs.TIM1_ATRLR, uint32(cfg.Period))
	f.Store(regs.TIM1_PSC, uint32(cfg.Prescaler))
	f.Store(regs.TIM1_RPTCR, uint32(cfg.RepetitionCounter))
	if cfg.ReloadMode == ReloadImmediate {
		f.Store(regs.TIM1_SWEVGR, TIM_SWEVGR_UG)
	} else {
		f.Store(regs.TIM1_SWEVGR, 0)
	}
	return &Timer{f: f, cfg: cfg}
}

func (t *Timer) Config() BaseConfig {
	return t.cfg
}

// Enable starts the counter and checks that CEN reads back set.
func (t *Timer) Enable() error {
	regs.SetBits(t.f, regs.TIM1_CTLR1, TIM_CTLR1_CEN)
	if !regs.HasBits(t.f, regs.TIM1_CTLR1, TIM_CTLR1_CEN) {
		return ErrEnableFailed
	}
	return nil
}

// Disable stops the counter and checks that CEN reads back clear.
func (t *Timer) Disable() error {
	regs.ClearBits(t.f, regs.TIM1_CTLR1, TIM_CTLR1_CEN)
	if regs.HasBits(t.f, regs.TIM1_CTLR1, TIM_CTLR1_CEN) {
		return ErrDisableFailed
	}
	return nil
}

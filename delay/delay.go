// Package delay provides busy-wait delays calibrated from the configured
// system clock.
package delay

import "github.com/Jon-Bright/rccctl/rcc"

// Delay spins for approximate wall-clock durations. The loop constants assume
// one spin iteration costs 1.5 SYSCLK cycles.
type Delay struct {
	sysclk uint64
	// Spin busy-loops for n iterations.
	Spin func(n uint32)
}

// New calibrates a Delay from c's SYSCLK. It must be created after the clock
// tree is set up, and again after any change to it.
func New(c rcc.Clocks) *Delay {
	return &Delay{sysclk: uint64(c.SysClk()), Spin: spin}
}

var sink uint32

func spin(n uint32) {
	for i := uint32(0); i < n; i++ {
		sink++
	}
}

func CyclesUs(sysclk uint32, us uint64) uint32 {
	return uint32(us * uint64(sysclk) / 1_500_000)
}

func CyclesMs(sysclk uint32, ms uint64) uint32 {
	return uint32(ms * uint64(sysclk) / 1_500)
}

func CyclesS(sysclk uint32, s uint64) uint32 {
	return uint32(s * uint64(sysclk) / 3 * 2)
}

func (d *Delay) Us(us uint64) {
	d.Spin(CyclesUs(uint32(d.sysclk), us))
}

func (d *Delay) Ms(ms uint64) {
	d.Spin(CyclesMs(uint32(d.sysclk), ms))
}

func (d *Delay) S(s uint64) {
	d.Spin(CyclesS(uint32(d.sysclk), s))
}

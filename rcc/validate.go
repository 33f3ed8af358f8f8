package rcc

import (
	"errors"
	"fmt"
)

const (
	MAX_CLK_FREQ = 72 * MHz
	MAX_ADC_FREQ = 14 * MHz
)

var (
	ErrFrequencyTooHigh = errors.New("frequency too high")
	ErrHardwareFault    = errors.New("hardware fault")
)

// Validate checks every derived frequency of c against its ceiling. It does
// not touch hardware, and Setup does not call it.
func Validate(c Clocks) error {
	w := c.wide()
	return check(w.sysClk, w.hClk, w.pClk1, w.pClk2, w.adcClk)
}

// Check returns an error wrapping ErrFrequencyTooHigh for the first clock,
// in SYSCLK, HCLK, PCLK1, PCLK2, ADCCLK order, that exceeds its ceiling.
func (f Frequencies) Check() error {
	return check(uint64(f.SysClk), uint64(f.HClk), uint64(f.PClk1), uint64(f.PClk2), uint64(f.ADCClk))
}

func check(sysClk, hClk, pClk1, pClk2, adcClk uint64) error {
	limits := []struct {
		name string
		hz   uint64
		max  uint64
	}{
		{"SYSCLK", sysClk, MAX_CLK_FREQ},
		{"HCLK", hClk, MAX_CLK_FREQ},
		{"PCLK1", pClk1, MAX_CLK_FREQ},
		{"PCLK2", pClk2, MAX_CLK_FREQ},
		{"ADCCLK", adcClk, MAX_ADC_FREQ},
	}
	for _, l := range limits {
		if l.hz > l.max {
			return fmt.Errorf("%w: %s %d Hz > %d Hz", ErrFrequencyTooHigh, l.name, l.hz, l.max)
		}
	}
	return nil
}

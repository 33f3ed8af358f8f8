package rcc

// Clocks is a complete clock tree configuration. It is a value: build one,
// hand it to Setup, and keep using it to answer frequency questions.
type Clocks struct {
	Source Source
	// Observed is the source last seen active, kept for readback
	// reconciliation only.
	Observed  Source
	PLLMul    PLLMul
	AHB       AHBDiv
	APB1      APBDiv
	APB2      APBDiv
	ADC       ADCDiv
	CSS       bool
	HSEBypass bool
}

// Default is the reset state of the hardware: HSI, no PLL in use, undivided
// buses and the smallest ADC prescaler.
func Default() Clocks {
	return Clocks{
		Source:   HSI(),
		Observed: HSI(),
		PLLMul:   Mul2,
		AHB:      AHBDiv1,
		APB1:     APBDiv1,
		APB2:     APBDiv1,
		ADC:      ADCDiv2,
	}
}

// Frequencies is a snapshot of every derived clock, in Hz.
type Frequencies struct {
	SysClk uint32
	HClk   uint32
	PClk1  uint32
	PClk2  uint32
	ADCClk uint32
}

// SysClk is the system clock. Like every accessor here it is 32 bits wide, so
// an oscillator value far outside the crystal range wraps; Validate and Setup
// derive in 64 bits and are not fooled by that.
func (c Clocks) SysClk() uint32 {
	switch c.Source.Kind {
	case SourceHSI:
		return HSI_FREQ
	case SourceHSE:
		return c.Source.MHz * MHz
	case SourcePLL:
		return c.Source.PLL.inputHz() * c.PLLMul.Factor()
	default:
		return 0
	}
}

// HClk is the AHB bus clock.
func (c Clocks) HClk() uint32 {
	return c.SysClk() / c.AHB.Ratio()
}

// PClk1 is the APB1 bus clock.
func (c Clocks) PClk1() uint32 {
	return c.HClk() / c.APB1.Ratio()
}

// PClk2 is the APB2 bus clock.
func (c Clocks) PClk2() uint32 {
	return c.HClk() / c.APB2.Ratio()
}

func (c Clocks) ADCClk() uint32 {
	return c.PClk2() / c.ADC.Ratio()
}

func (c Clocks) Frequencies() Frequencies {
	return Frequencies{
		SysClk: c.SysClk(),
		HClk:   c.HClk(),
		PClk1:  c.PClk1(),
		PClk2:  c.PClk2(),
		ADCClk: c.ADCClk(),
	}
}

// wideFrequencies mirrors Frequencies without the 32-bit limit.
type wideFrequencies struct {
	sysClk, hClk, pClk1, pClk2, adcClk uint64
}

func (c Clocks) wide() wideFrequencies {
	var w wideFrequencies
	switch c.Source.Kind {
	case SourceHSI:
		w.sysClk = HSI_FREQ
	case SourceHSE:
		w.sysClk = uint64(c.Source.MHz) * MHz
	case SourcePLL:
		w.sysClk = c.Source.PLL.inputHz64() * uint64(c.PLLMul.Factor())
	}
	w.hClk = w.sysClk / uint64(c.AHB.Ratio())
	w.pClk1 = w.hClk / uint64(c.APB1.Ratio())
	w.pClk2 = w.hClk / uint64(c.APB2.Ratio())
	w.adcClk = w.pClk2 / uint64(c.ADC.Ratio())
	return w
}

// Validate checks c against the hardware frequency ceilings.
func (c Clocks) Validate() error {
	return Validate(c)
}

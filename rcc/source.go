package rcc

import "fmt"

const (
	MHz = 1_000_000

	// HSI_FREQ is the nominal frequency of the internal RC oscillator.
	HSI_FREQ = 8 * MHz

	// Crystal or external clock range accepted on OSC_IN.
	HSE_MIN_MHZ = 3
	HSE_MAX_MHZ = 25
)

// OscKind identifies a raw, un-multiplied clock feed.
type OscKind uint8

const (
	OscHSI OscKind = iota
	OscHSE
	OscUnavailable
)

// Oscillator is a raw clock feed. MHz is only meaningful for OscHSE.
type Oscillator struct {
	Kind OscKind
	MHz  uint32
}

func (o Oscillator) String() string {
	switch o.Kind {
	case OscHSI:
		return "HSI"
	case OscHSE:
		return fmt.Sprintf("HSE(%dMHz)", o.MHz)
	default:
		return "unavailable"
	}
}

// PLLKind identifies which feed drives the PLL and whether it is pre-halved.
type PLLKind uint8

const (
	PLLHSI PLLKind = iota
	PLLHSE
	PLLHSEDiv2
)

// PLLSource is the PLL input. MHz is the nominal HSE frequency for the two
// HSE kinds, before any halving.
type PLLSource struct {
	Kind PLLKind
	MHz  uint32
}

func PLLFromHSI() PLLSource {
	return PLLSource{Kind: PLLHSI}
}

func PLLFromHSE(mhz uint32) PLLSource {
	return PLLSource{Kind: PLLHSE, MHz: mhz}
}

func PLLFromHSEDiv2(mhz uint32) PLLSource {
	return PLLSource{Kind: PLLHSEDiv2, MHz: mhz}
}

// inputHz is the frequency entering the multiplier. The halved feed is
// truncated in whole MHz, so 25MHz/2 gives 12MHz.
func (p PLLSource) inputHz() uint32 {
	switch p.Kind {
	case PLLHSE:
		return p.MHz * MHz
	case PLLHSEDiv2:
		return p.MHz / 2 * MHz
	default:
		return HSI_FREQ
	}
}

func (p PLLSource) inputHz64() uint64 {
	switch p.Kind {
	case PLLHSE:
		return uint64(p.MHz) * MHz
	case PLLHSEDiv2:
		return uint64(p.MHz/2) * MHz
	default:
		return HSI_FREQ
	}
}

// feed is the oscillator that has to be running for the PLL to lock.
func (p PLLSource) feed() Oscillator {
	if p.Kind == PLLHSI {
		return Oscillator{Kind: OscHSI}
	}
	return Oscillator{Kind: OscHSE, MHz: p.MHz}
}

func (p PLLSource) String() string {
	switch p.Kind {
	case PLLHSE:
		return fmt.Sprintf("HSE(%dMHz)", p.MHz)
	case PLLHSEDiv2:
		return fmt.Sprintf("HSE(%dMHz)/2", p.MHz)
	default:
		return "HSI"
	}
}

// SourceKind identifies what drives the system clock.
type SourceKind uint8

const (
	SourceHSI SourceKind = iota
	SourceHSE
	SourcePLL
	SourceUnavailable
)

// Source is a system clock source. The zero value is HSI.
type Source struct {
	Kind SourceKind
	// MHz is the HSE frequency when Kind is SourceHSE.
	MHz uint32
	// PLL is the multiplier input when Kind is SourcePLL.
	PLL PLLSource
}

func HSI() Source {
	return Source{Kind: SourceHSI}
}

func HSE(mhz uint32) Source {
	return Source{Kind: SourceHSE, MHz: mhz}
}

func PLL(p PLLSource) Source {
	return Source{Kind: SourcePLL, PLL: p}
}

func Unavailable() Source {
	return Source{Kind: SourceUnavailable}
}

// Feed returns the raw oscillator the source depends on.
func (s Source) Feed() Oscillator {
	switch s.Kind {
	case SourceHSI:
		return Oscillator{Kind: OscHSI}
	case SourceHSE:
		return Oscillator{Kind: OscHSE, MHz: s.MHz}
	case SourcePLL:
		return s.PLL.feed()
	default:
		return Oscillator{Kind: OscUnavailable}
	}
}

// bits is the SW selector code for the source.
func (s Source) bits() uint32 {
	return uint32(s.Kind)
}

func (s Source) String() string {
	switch s.Kind {
	case SourceHSI:
		return "HSI"
	case SourceHSE:
		return fmt.Sprintf("HSE(%dMHz)", s.MHz)
	case SourcePLL:
		return fmt.Sprintf("PLL(%v)", s.PLL)
	default:
		return "unavailable"
	}
}

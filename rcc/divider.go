package rcc

import (
	"errors"
	"fmt"
)

var ErrBadRatio = errors.New("unsupported ratio")

// PLLMul is the PLL multiplication factor. Its value is the PLLMUL field
// encoding.
type PLLMul uint8

const (
	Mul2 PLLMul = iota
	Mul3
	Mul4
	Mul5
	Mul6
	Mul7
	Mul8
	Mul9
	Mul10
	Mul11
	Mul12
	Mul13
	Mul14
	Mul15
	Mul16
)

func (m PLLMul) Factor() uint32 {
	return uint32(m) + 2
}

func PLLMulFor(n uint32) (PLLMul, error) {
	if n < 2 || n > 16 {
		return 0, fmt.Errorf("%w: PLL x%d, want 2..16", ErrBadRatio, n)
	}
	return PLLMul(n - 2), nil
}

// AHBDiv is the HPRE field encoding. Note that there is no /32: the step
// after /16 is /64.
type AHBDiv uint8

const (
	AHBDiv1   AHBDiv = 0b0000
	AHBDiv2   AHBDiv = 0b1000
	AHBDiv4   AHBDiv = 0b1001
	AHBDiv8   AHBDiv = 0b1010
	AHBDiv16  AHBDiv = 0b1011
	AHBDiv64  AHBDiv = 0b1100
	AHBDiv128 AHBDiv = 0b1101
	AHBDiv256 AHBDiv = 0b1110
	AHBDiv512 AHBDiv = 0b1111
)

var ahbRatios = map[AHBDiv]uint32{
	AHBDiv1:   1,
	AHBDiv2:   2,
	AHBDiv4:   4,
	AHBDiv8:   8,
	AHBDiv16:  16,
	AHBDiv64:  64,
	AHBDiv128: 128,
	AHBDiv256: 256,
	AHBDiv512: 512,
}

// AHBDivs lists every AHB divider in ascending order.
var AHBDivs = []AHBDiv{AHBDiv1, AHBDiv2, AHBDiv4, AHBDiv8, AHBDiv16, AHBDiv64, AHBDiv128, AHBDiv256, AHBDiv512}

// Ratio returns the division ratio. Encodings 0b0001..0b0111 also mean /1 in
// hardware.
func (d AHBDiv) Ratio() uint32 {
	if r, ok := ahbRatios[d]; ok {
		return r
	}
	return 1
}

func AHBDivFor(ratio uint32) (AHBDiv, error) {
	for d, r := range ahbRatios {
		if r == ratio {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: AHB /%d", ErrBadRatio, ratio)
}

// APBDiv is the PPRE1/PPRE2 field encoding.
type APBDiv uint8

const (
	APBDiv1  APBDiv = 0b000
	APBDiv2  APBDiv = 0b100
	APBDiv4  APBDiv = 0b101
	APBDiv8  APBDiv = 0b110
	APBDiv16 APBDiv = 0b111
)

var APBDivs = []APBDiv{APBDiv1, APBDiv2, APBDiv4, APBDiv8, APBDiv16}

func (d APBDiv) Ratio() uint32 {
	if d&0b100 == 0 {
		return 1
	}
	return 2 << (d & 0b11)
}

func APBDivFor(ratio uint32) (APBDiv, error) {
	for _, d := range APBDivs {
		if d.Ratio() == ratio {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: APB /%d", ErrBadRatio, ratio)
}

// ADCDiv is the ADCPRE field encoding.
type ADCDiv uint8

const (
	ADCDiv2 ADCDiv = 0b00
	ADCDiv4 ADCDiv = 0b01
	ADCDiv6 ADCDiv = 0b10
	ADCDiv8 ADCDiv = 0b11
)

var ADCDivs = []ADCDiv{ADCDiv2, ADCDiv4, ADCDiv6, ADCDiv8}

func (d ADCDiv) Ratio() uint32 {
	return (uint32(d&0b11) + 1) * 2
}

func ADCDivFor(ratio uint32) (ADCDiv, error) {
	for _, d := range ADCDivs {
		if d.Ratio() == ratio {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: ADC /%d", ErrBadRatio, ratio)
}

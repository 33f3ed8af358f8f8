// Package board reads YAML board descriptions: which chip is fitted and how
// its clock tree, pin remapping, pins and timer should be brought up.
package board

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Jon-Bright/rccctl/gpio"
	"github.com/Jon-Bright/rccctl/rcc"
	"github.com/Jon-Bright/rccctl/regs"
	"github.com/Jon-Bright/rccctl/timer"
)

const DEFAULT_CHIP = "ch32v103c8"

var ErrBadBoard = errors.New("bad board file")

// File is the on-disk form of a board description.
type File struct {
	Chip   string     `yaml:"chip"`
	Clocks ClockFile  `yaml:"clocks"`
	Remap  *RemapFile `yaml:"remap"`
	Pins   []PinFile  `yaml:"pins"`
	Timer  *TimerFile `yaml:"timer"`
}

type ClockFile struct {
	Source    string `yaml:"source"`    // hsi, hse or pll
	HSEMHz    uint32 `yaml:"hse_mhz"`   // crystal frequency
	PLLInput  string `yaml:"pll_input"` // hsi, hse or hse_div2
	PLLMul    uint32 `yaml:"pll_mul"`
	AHBDiv    uint32 `yaml:"ahb_div"`
	APB1Div   uint32 `yaml:"apb1_div"`
	APB2Div   uint32 `yaml:"apb2_div"`
	ADCDiv    uint32 `yaml:"adc_div"`
	CSS       bool   `yaml:"css"`
	HSEBypass bool   `yaml:"hse_bypass"`
}

type RemapFile struct {
	SWD    *bool  `yaml:"swd"` // false frees the debug pins
	PD01   bool   `yaml:"pd01"`
	CAN    bool   `yaml:"can"`
	TIM1   string `yaml:"tim1"` // default or partial
	TIM2   string `yaml:"tim2"` // default, partial1, partial2 or full
	TIM3   string `yaml:"tim3"` // default, partial or full
	USART3 string `yaml:"usart3"`
	USART1 bool   `yaml:"usart1"`
	I2C1   bool   `yaml:"i2c1"`
	SPI1   bool   `yaml:"spi1"`
}

type PinFile struct {
	Pin   string `yaml:"pin"`  // e.g. PC13
	Mode  string `yaml:"mode"` // in, out2, out10, out50
	Cnf   string `yaml:"cnf"`
	Pull  string `yaml:"pull"`  // inputs only: none, up, down
	Level string `yaml:"level"` // outputs only: high or low
	Lock  bool   `yaml:"lock"`
}

type TimerFile struct {
	Prescaler         uint16 `yaml:"prescaler"`
	Period            uint16 `yaml:"period"`
	Down              bool   `yaml:"down"`
	ClockDivision     uint32 `yaml:"clock_division"`
	RepetitionCounter uint16 `yaml:"repetition_counter"`
	Immediate         bool   `yaml:"immediate"`
	Enable            bool   `yaml:"enable"`
}

// Board is a decoded and checked board description.
type Board struct {
	Chip   regs.Chip
	Clocks rcc.Clocks
	Remap  *gpio.Remap
	Pins   []Pin
	Timer  *Timer
}

type Pin struct {
	Port  gpio.Port
	Num   uint8
	Mode  gpio.Mode
	Cnf   *gpio.Cnf
	Pull  gpio.Pull
	Level *bool
	Lock  bool
}

type Timer struct {
	Config timer.BaseConfig
	Enable bool
}

// Default is an unconfigured board: the default chip running from HSI.
func Default() *Board {
	c, err := regs.LookupChip(DEFAULT_CHIP)
	if err != nil {
		panic(err)
	}
	return &Board{Chip: c, Clocks: rcc.Default()}
}

func Load(path string) (*Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

func Parse(data []byte) (*Board, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes a board file. Unknown keys are rejected.
func Read(r io.Reader) (*Board, error) {
	var bf File
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(&bf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrBadBoard, err)
	}
	return bf.Decode()
}

func (bf *File) Decode() (*Board, error) {
	name := bf.Chip
	if name == "" {
		name = DEFAULT_CHIP
	}
	chip, err := regs.LookupChip(name)
	if err != nil {
		return nil, err
	}
	b := &Board{Chip: chip}
	if b.Clocks, err = bf.Clocks.Decode(); err != nil {
		return nil, fmt.Errorf("%w: clocks: %w", ErrBadBoard, err)
	}
	if bf.Remap != nil {
		r, err := bf.Remap.Decode()
		if err != nil {
			return nil, fmt.Errorf("%w: remap: %w", ErrBadBoard, err)
		}
		b.Remap = &r
	}
	for _, pf := range bf.Pins {
		p, err := pf.Decode(chip)
		if err != nil {
			return nil, fmt.Errorf("%w: pin %q: %w", ErrBadBoard, pf.Pin, err)
		}
		b.Pins = append(b.Pins, p)
	}
	if bf.Timer != nil {
		t, err := bf.Timer.Decode()
		if err != nil {
			return nil, fmt.Errorf("%w: timer: %w", ErrBadBoard, err)
		}
		b.Timer = &t
	}
	return b, nil
}

// Decode turns a clock section into rcc.Clocks. Omitted fields take the
// values of rcc.Default().
func (cf ClockFile) Decode() (rcc.Clocks, error) {
	c := rcc.Default()
	var err error
	switch strings.ToLower(cf.Source) {
	case "", "hsi":
		c.Source = rcc.HSI()
	case "hse":
		if err := checkHSE(cf.HSEMHz); err != nil {
			return c, err
		}
		c.Source = rcc.HSE(cf.HSEMHz)
	case "pll":
		var in rcc.PLLSource
		switch strings.ToLower(cf.PLLInput) {
		case "", "hsi":
			in = rcc.PLLFromHSI()
		case "hse":
			in = rcc.PLLFromHSE(cf.HSEMHz)
		case "hse_div2":
			in = rcc.PLLFromHSEDiv2(cf.HSEMHz)
		default:
			return c, fmt.Errorf("unknown pll_input %q", cf.PLLInput)
		}
		if in.Kind != rcc.PLLHSI {
			if err := checkHSE(cf.HSEMHz); err != nil {
				return c, err
			}
		}
		c.Source = rcc.PLL(in)
	default:
		return c, fmt.Errorf("unknown source %q", cf.Source)
	}
	if cf.PLLMul != 0 {
		if c.PLLMul, err = rcc.PLLMulFor(cf.PLLMul); err != nil {
			return c, err
		}
	}
	if cf.AHBDiv != 0 {
		if c.AHB, err = rcc.AHBDivFor(cf.AHBDiv); err != nil {
			return c, fmt.Errorf("ahb_div: %w", err)
		}
	}
	if cf.APB1Div != 0 {
		if c.APB1, err = rcc.APBDivFor(cf.APB1Div); err != nil {
			return c, fmt.Errorf("apb1_div: %w", err)
		}
	}
	if cf.APB2Div != 0 {
		if c.APB2, err = rcc.APBDivFor(cf.APB2Div); err != nil {
			return c, fmt.Errorf("apb2_div: %w", err)
		}
	}
	if cf.ADCDiv != 0 {
		if c.ADC, err = rcc.ADCDivFor(cf.ADCDiv); err != nil {
			return c, fmt.Errorf("adc_div: %w", err)
		}
	}
	c.CSS = cf.CSS
	c.HSEBypass = cf.HSEBypass
	return c, nil
}

func checkHSE(mhz uint32) error {
	if mhz == 0 {
		return errors.New("hse needs hse_mhz")
	}
	if mhz < rcc.HSE_MIN_MHZ || mhz > rcc.HSE_MAX_MHZ {
		return fmt.Errorf("hse_mhz %d outside %d..%d", mhz, rcc.HSE_MIN_MHZ, rcc.HSE_MAX_MHZ)
	}
	return nil
}

func (rf RemapFile) Decode() (gpio.Remap, error) {
	r := gpio.DefaultRemap()
	if rf.SWD != nil && !*rf.SWD {
		r.SWCfg = gpio.SWCfgOff
	}
	r.PD01 = rf.PD01
	if rf.CAN {
		r.CAN = gpio.CANRemapped
	}
	r.USART1 = rf.USART1
	r.I2C1 = rf.I2C1
	r.SPI1 = rf.SPI1

	switch strings.ToLower(rf.TIM1) {
	case "", "default":
	case "partial":
		r.TIM1 = gpio.TIM1Partial
	default:
		return r, fmt.Errorf("unknown tim1 remap %q", rf.TIM1)
	}
	switch strings.ToLower(rf.TIM2) {
	case "", "default":
	case "partial1":
		r.TIM2 = gpio.TIM2Partial1
	case "partial2":
		r.TIM2 = gpio.TIM2Partial2
	case "full":
		r.TIM2 = gpio.TIM2Full
	default:
		return r, fmt.Errorf("unknown tim2 remap %q", rf.TIM2)
	}
	switch strings.ToLower(rf.TIM3) {
	case "", "default":
	case "partial":
		r.TIM3 = gpio.TIM3Partial
	case "full":
		r.TIM3 = gpio.TIM3Full
	default:
		return r, fmt.Errorf("unknown tim3 remap %q", rf.TIM3)
	}
	switch strings.ToLower(rf.USART3) {
	case "", "default":
	case "partial":
		r.USART3 = gpio.USART3Partial
	case "full":
		r.USART3 = gpio.USART3Full
	default:
		return r, fmt.Errorf("unknown usart3 remap %q", rf.USART3)
	}
	return r, nil
}

var modes = map[string]gpio.Mode{
	"in":    gpio.Input,
	"out10": gpio.Output10MHz,
	"out2":  gpio.Output2MHz,
	"out50": gpio.Output50MHz,
}

var inputCnfs = map[string]gpio.Cnf{
	"analog":   gpio.Analog,
	"floating": gpio.Floating,
}

var outputCnfs = map[string]gpio.Cnf{
	"pushpull":     gpio.PushPull,
	"opendrain":    gpio.OpenDrain,
	"altpushpull":  gpio.AltPushPull,
	"altopendrain": gpio.AltOpenDrain,
}

var pulls = map[string]gpio.Pull{
	"":     gpio.PullNone,
	"none": gpio.PullNone,
	"up":   gpio.PullUp,
	"down": gpio.PullDown,
}

// ParsePin splits a pin name such as "PC13" into port and number.
func ParsePin(s string) (gpio.Port, uint8, error) {
	s = strings.ToUpper(s)
	if len(s) < 3 || s[0] != 'P' || s[1] < 'A' || s[1] > 'E' {
		return 0, 0, fmt.Errorf("%w: %q", gpio.ErrInvalidPort, s)
	}
	n, err := strconv.ParseUint(s[2:], 10, 8)
	if err != nil || n > 15 {
		return 0, 0, fmt.Errorf("%w: %q", gpio.ErrInvalidPin, s)
	}
	return gpio.Port(s[1] - 'A'), uint8(n), nil
}

func (pf PinFile) Decode(chip regs.Chip) (Pin, error) {
	var p Pin
	var err error
	if p.Port, p.Num, err = ParsePin(pf.Pin); err != nil {
		return p, err
	}
	if !chip.HasPort(int(p.Port)) {
		return p, fmt.Errorf("%w: %v on %s", gpio.ErrInvalidPort, p.Port, chip.Series)
	}
	m, ok := modes[strings.ToLower(pf.Mode)]
	if !ok {
		return p, fmt.Errorf("unknown mode %q", pf.Mode)
	}
	p.Mode = m
	p.Lock = pf.Lock

	cnfs := outputCnfs
	if m == gpio.Input {
		cnfs = inputCnfs
		if p.Pull, ok = pulls[strings.ToLower(pf.Pull)]; !ok {
			return p, fmt.Errorf("unknown pull %q", pf.Pull)
		}
		if pf.Level != "" {
			return p, errors.New("level set on an input")
		}
	} else {
		if pf.Pull != "" {
			return p, errors.New("pull set on an output")
		}
		switch strings.ToLower(pf.Level) {
		case "":
		case "high":
			p.Level = new(bool)
			*p.Level = true
		case "low":
			p.Level = new(bool)
		default:
			return p, fmt.Errorf("unknown level %q", pf.Level)
		}
	}
	if pf.Cnf != "" {
		c, ok := cnfs[strings.ToLower(pf.Cnf)]
		if !ok {
			return p, fmt.Errorf("cnf %q not valid in mode %q", pf.Cnf, pf.Mode)
		}
		if m == gpio.Input && p.Pull != gpio.PullNone {
			return p, errors.New("cnf and pull both set")
		}
		p.Cnf = &c
	}
	return p, nil
}

var clockDivisions = map[uint32]timer.ClockDivision{
	0: timer.CKDiv1,
	1: timer.CKDiv1,
	2: timer.CKDiv2,
	4: timer.CKDiv4,
}

func (tf TimerFile) Decode() (Timer, error) {
	ckd, ok := clockDivisions[tf.ClockDivision]
	if !ok {
		return Timer{}, fmt.Errorf("clock_division %d not one of 1, 2, 4", tf.ClockDivision)
	}
	cfg := timer.BaseConfig{
		Prescaler:         tf.Prescaler,
		Period:            tf.Period,
		ClockDivision:     ckd,
		RepetitionCounter: tf.RepetitionCounter,
	}
	if tf.Down {
		cfg.Mode = timer.Down
	}
	if tf.Immediate {
		cfg.ReloadMode = timer.ReloadImmediate
	}
	return Timer{Config: cfg, Enable: tf.Enable}, nil
}

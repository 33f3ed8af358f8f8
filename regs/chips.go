package regs

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

//go:embed chips.yaml
var rawChips []byte

var chips []Chip

var ErrUnknownChip = errors.New("unknown chip")

// Chip describes one family of parts sharing a register layout.
type Chip struct {
	Series     string   `yaml:"series"`
	Chips      []string `yaml:"chips"`
	PeriphBase uintptr  `yaml:"periphBase"`
	Ports      int      `yaml:"ports"`
	FlashKB    int      `yaml:"flashKB"`
}

// HasPort reports whether GPIO port n (0 = A) is bonded out on this chip.
func (c Chip) HasPort(n int) bool {
	return n >= 0 && n < c.Ports
}

func init() {
	if err := yaml.Unmarshal(rawChips, &chips); err != nil {
		panic(fmt.Sprintf("couldn't parse chip table: %v", err))
	}
}

// Chips returns every known chip entry.
func Chips() []Chip {
	return chips
}

// LookupChip finds the entry for the named part, ignoring case.
func LookupChip(name string) (Chip, error) {
	name = strings.ToLower(name)
	i := slices.IndexFunc(chips, func(c Chip) bool {
		return slices.Contains(c.Chips, name)
	})
	if i < 0 {
		return Chip{}, fmt.Errorf("%w: %q", ErrUnknownChip, name)
	}
	return chips[i], nil
}

package regs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardRestoresPriorState(t *testing.T) {
	s := NewSim()
	g := Enter(s)
	assert.False(t, s.InterruptsEnabled())
	assert.Equal(t, 1, s.Depth())
	g.Exit()
	g.Exit() // second Exit is a no-op
	assert.True(t, s.InterruptsEnabled())
	assert.Equal(t, 0, s.Depth())
}

func TestGuardEarlyReturn(t *testing.T) {
	s := NewSim()
	fail := func() error {
		g := Enter(s)
		defer g.Exit()
		s.Store(RCC_CTLR, 1)
		return errors.New("stop")
	}
	require.Error(t, fail())
	assert.True(t, s.InterruptsEnabled())
}

func TestModify(t *testing.T) {
	s := NewSim()
	s.Poke(RCC_CFGR0, 0xf0)
	SetBits(s, RCC_CFGR0, 0x01)
	ClearBits(s, RCC_CFGR0, 0x10)
	ReplaceBits(s, RCC_CFGR0, 0x300, 0xf00)
	assert.Equal(t, uint32(0x3e1), s.Peek(RCC_CFGR0))
	assert.True(t, HasBits(s, RCC_CFGR0, 0x301))
	assert.False(t, HasBits(s, RCC_CFGR0, 0x10))
	for _, op := range s.Ops {
		if op.Kind == OpStore && !op.Masked {
			t.Errorf("unguarded %v", op)
		}
	}
	assert.True(t, s.InterruptsEnabled())
}

func TestSimHooks(t *testing.T) {
	s := NewSim()
	loads := 0
	s.OnLoad(RCC_CTLR, func(s *Sim) {
		loads++
		if loads == 2 {
			s.Poke(RCC_CTLR, s.Peek(RCC_CTLR)|2)
		}
	})
	s.OnStore(RCC_CTLR, func(s *Sim, old, new uint32) {
		assert.Equal(t, uint32(0), old)
		assert.Equal(t, uint32(1), new)
	})
	s.Store(RCC_CTLR, 1)
	assert.Equal(t, uint32(1), s.Load(RCC_CTLR))
	assert.Equal(t, uint32(3), s.Load(RCC_CTLR))
	assert.Equal(t, []uint32{1}, s.Stores(RCC_CTLR))
	s.Reset()
	assert.Empty(t, s.Ops)
	assert.Equal(t, uint32(3), s.Peek(RCC_CTLR))
}

func TestPageAlign(t *testing.T) {
	tests := []struct {
		addr uintptr
		page uintptr
		base uintptr
		offs uintptr
	}{
		{0x40021000, 4096, 0x40021000, 0},
		{0x40012c00, 4096, 0x40012000, 0xc00},
		{0x40010800, 4096, 0x40010000, 0x800},
		{0x40010800, 65536, 0x40010000, 0x800},
	}
	for _, test := range tests {
		base, offs := pageAlign(test.addr, test.page)
		if base != test.base || offs != test.offs {
			t.Errorf("%08X: got %08X+%X, want %08X+%X", test.addr, base, offs, test.base, test.offs)
		}
	}
}

func TestRegNames(t *testing.T) {
	assert.Equal(t, "RCC_CFGR0", RCC_CFGR0.String())
	assert.Equal(t, "GPIOC+10", GPIO(2, GPIO_BSHR).String())
	assert.Equal(t, Reg(0x11010), GPIO(2, GPIO_BSHR))
}

func TestLookupChip(t *testing.T) {
	c, err := LookupChip("CH32V103C8")
	require.NoError(t, err)
	assert.Equal(t, "ch32v103", c.Series)
	assert.Equal(t, uintptr(0x40000000), c.PeriphBase)
	assert.True(t, c.HasPort(3))
	assert.False(t, c.HasPort(4))

	c, err = LookupChip("ch32v103r8")
	require.NoError(t, err)
	assert.True(t, c.HasPort(4))

	_, err = LookupChip("stm32f103c8")
	assert.ErrorIs(t, err, ErrUnknownChip)
	assert.NotEmpty(t, Chips())
}

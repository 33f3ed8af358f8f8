package rcc

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jon-Bright/rccctl/regs"
)

func quietSequencer(f regs.File) *Sequencer {
	s := NewSequencer(f)
	s.Logger = log.New(io.Discard, "", 0)
	return s
}

func pll72() Clocks {
	c := Default()
	c.Source = PLL(PLLFromHSE(8))
	c.PLLMul = Mul9
	c.AHB = AHBDiv2
	c.APB1 = APBDiv2
	c.ADC = ADCDiv6
	return c
}

func TestFlashLatency(t *testing.T) {
	tests := []struct {
		hz   uint32
		want uint32
	}{
		{0, 1},
		{8_000_000, 1},
		{47_999_999, 1},
		{48_000_000, 2},
		{72_000_000, 2},
		{128_000_000, 2},
	}
	for _, test := range tests {
		if got := FlashLatency(test.hz); got != test.want {
			t.Errorf("%d Hz: got %d, want %d", test.hz, got, test.want)
		}
	}
}

func TestSetupInternal(t *testing.T) {
	sim := NewSim(SimOptions{ReadyAfter: 3})
	s := quietSequencer(sim)
	c := Default()
	require.NoError(t, s.Setup(c))
	assert.Equal(t, Committed, s.State())

	assert.Equal(t, uint32(8_000_000), c.SysClk())
	assert.Equal(t, uint32(8_000_000), c.HClk())
	assert.Equal(t, uint32(8_000_000), c.PClk1())

	ctlr := sim.Peek(regs.RCC_CTLR)
	assert.NotZero(t, ctlr&RCC_CTLR_HSION)
	assert.Zero(t, ctlr&(RCC_CTLR_HSEON|RCC_CTLR_PLLON|RCC_CTLR_CSSON|RCC_CTLR_HSEBYP))
	assert.Equal(t, uint32(0), sim.Peek(regs.RCC_CFGR0)&RCC_CFGR0_BUS_Msk)
	assert.Equal(t, uint32(FLASH_ACTLR_PRFTBE|1), sim.Peek(regs.FLASH_ACTLR))
	assert.Equal(t, HSI(), s.CurrentSource(c))
}

func TestSetupPLLFromHSE(t *testing.T) {
	sim := NewSim(SimOptions{ReadyAfter: 5})
	s := quietSequencer(sim)
	c := pll72()
	require.NoError(t, s.Setup(c))
	assert.Equal(t, Committed, s.State())

	assert.Equal(t, uint32(72_000_000), c.SysClk())
	assert.Equal(t, uint32(36_000_000), c.HClk())

	ctlr := sim.Peek(regs.RCC_CTLR)
	assert.NotZero(t, ctlr&RCC_CTLR_HSEON)
	assert.NotZero(t, ctlr&RCC_CTLR_HSERDY)
	assert.NotZero(t, ctlr&RCC_CTLR_PLLON)
	assert.NotZero(t, ctlr&RCC_CTLR_PLLRDY)

	cfgr := sim.Peek(regs.RCC_CFGR0)
	assert.Equal(t, uint32(2), cfgr&RCC_CFGR0_SW_Msk)
	assert.Equal(t, uint32(2), (cfgr&RCC_CFGR0_SWS_Msk)>>RCC_CFGR0_SWS_Pos)
	assert.Equal(t, uint32(AHBDiv2), (cfgr&RCC_CFGR0_HPRE_Msk)>>RCC_CFGR0_HPRE_Pos)
	assert.Equal(t, uint32(APBDiv2), (cfgr&RCC_CFGR0_PPRE1_Msk)>>RCC_CFGR0_PPRE1_Pos)
	assert.Equal(t, uint32(APBDiv1), (cfgr&RCC_CFGR0_PPRE2_Msk)>>RCC_CFGR0_PPRE2_Pos)
	assert.Equal(t, uint32(ADCDiv6), (cfgr&RCC_CFGR0_ADCPRE_Msk)>>RCC_CFGR0_ADCPRE_Pos)
	assert.Equal(t, uint32(Mul9), (cfgr&RCC_CFGR0_PLLMUL_Msk)>>RCC_CFGR0_PLLMUL_Pos)
	assert.NotZero(t, cfgr&RCC_CFGR0_PLLSRC)
	assert.Zero(t, cfgr&RCC_CFGR0_PLLXTPRE)

	assert.Equal(t, uint32(FLASH_ACTLR_PRFTBE|2), sim.Peek(regs.FLASH_ACTLR))
	assert.Equal(t, c.Source, s.CurrentSource(c))
}

func TestSetupPLLHalvedFeed(t *testing.T) {
	sim := NewSim(SimOptions{})
	c := Default()
	c.Source = PLL(PLLFromHSEDiv2(8))
	c.PLLMul = Mul9
	require.NoError(t, quietSequencer(sim).Setup(c))
	assert.Equal(t, uint32(36_000_000), c.SysClk())
	cfgr := sim.Peek(regs.RCC_CFGR0)
	assert.NotZero(t, cfgr&RCC_CFGR0_PLLSRC)
	assert.NotZero(t, cfgr&RCC_CFGR0_PLLXTPRE)
	assert.Equal(t, uint32(1), sim.Peek(regs.FLASH_ACTLR)&FLASH_ACTLR_LATENCY_Msk)
}

func TestSetupPLLFromHSILeavesHSEAlone(t *testing.T) {
	sim := NewSim(SimOptions{})
	c := Default()
	c.Source = PLL(PLLFromHSI())
	c.PLLMul = Mul6
	require.NoError(t, quietSequencer(sim).Setup(c))
	ctlr := sim.Peek(regs.RCC_CTLR)
	assert.Zero(t, ctlr&RCC_CTLR_HSEON)
	assert.NotZero(t, ctlr&RCC_CTLR_PLLON)
	assert.Zero(t, sim.Peek(regs.RCC_CFGR0)&RCC_CFGR0_PLLSRC)
	assert.Equal(t, uint32(2), sim.Peek(regs.FLASH_ACTLR)&FLASH_ACTLR_LATENCY_Msk)
}

func TestSetupOrdering(t *testing.T) {
	sim := NewSim(SimOptions{ReadyAfter: 2})
	// Start with the PLL running so it has to be stopped first.
	sim.Poke(regs.RCC_CTLR, RCC_CTLR_HSION|RCC_CTLR_HSIRDY|RCC_CTLR_PLLON|RCC_CTLR_PLLRDY)
	sim.OnStore(regs.RCC_CFGR0, func(s *regs.Sim, old, new uint32) {
		if old&RCC_CFGR0_PLLCFG_Msk != new&RCC_CFGR0_PLLCFG_Msk {
			ctlr := s.Peek(regs.RCC_CTLR)
			if ctlr&(RCC_CTLR_PLLON|RCC_CTLR_PLLRDY) != 0 {
				t.Errorf("PLL reconfigured while running, CTLR %08X", ctlr)
			}
		}
	})
	require.NoError(t, quietSequencer(sim).Setup(pll72()))

	var flashAt, firstCtlrAt, pllCfgAt, swAt = -1, -1, -1, -1
	for i, op := range sim.Ops {
		if op.Kind != regs.OpStore {
			continue
		}
		switch op.Reg {
		case regs.FLASH_ACTLR:
			flashAt = i
		case regs.RCC_CTLR:
			if firstCtlrAt < 0 {
				firstCtlrAt = i
			}
		case regs.RCC_CFGR0:
			if pllCfgAt < 0 {
				pllCfgAt = i
			} else if swAt < 0 {
				swAt = i
			}
		}
	}
	require.True(t, flashAt >= 0 && firstCtlrAt >= 0 && pllCfgAt >= 0 && swAt >= 0)
	assert.Less(t, flashAt, firstCtlrAt, "flash latency must be set before any oscillator")
	assert.Less(t, pllCfgAt, swAt, "PLL must be configured before the switch")

	ctlrStores := sim.Stores(regs.RCC_CTLR)
	// HSEON, HSEBYP, PLLON off, PLLON on, CSSON
	require.Len(t, ctlrStores, 5)
	assert.NotZero(t, ctlrStores[0]&RCC_CTLR_HSEON)
	assert.Zero(t, ctlrStores[2]&RCC_CTLR_PLLON)
	assert.NotZero(t, ctlrStores[3]&RCC_CTLR_PLLON)
}

func TestSetupMasksInterrupts(t *testing.T) {
	sim := NewSim(SimOptions{ReadyAfter: 1})
	require.NoError(t, quietSequencer(sim).Setup(pll72()))
	for _, op := range sim.Ops {
		if op.Kind == regs.OpStore && !op.Masked {
			t.Errorf("unguarded %v", op)
		}
	}
	assert.True(t, sim.InterruptsEnabled())
	assert.Equal(t, 0, sim.Depth())
}

func TestSetupBypassAndCSS(t *testing.T) {
	sim := NewSim(SimOptions{})
	c := Default()
	c.Source = HSE(8)
	c.HSEBypass = true
	c.CSS = true
	require.NoError(t, quietSequencer(sim).Setup(c))
	ctlr := sim.Peek(regs.RCC_CTLR)
	assert.NotZero(t, ctlr&RCC_CTLR_HSEBYP)
	assert.NotZero(t, ctlr&RCC_CTLR_CSSON)
	assert.Equal(t, uint32(1), sim.Peek(regs.RCC_CFGR0)&RCC_CFGR0_SW_Msk)

	c.Source = HSI()
	c.HSEBypass = false
	c.CSS = false
	require.NoError(t, quietSequencer(sim).Setup(c))
	ctlr = sim.Peek(regs.RCC_CTLR)
	assert.Zero(t, ctlr&RCC_CTLR_HSEBYP)
	assert.Zero(t, ctlr&RCC_CTLR_CSSON)
	assert.Equal(t, uint32(0), sim.Peek(regs.RCC_CFGR0)&RCC_CFGR0_SW_Msk)
}

func TestSetupUnavailableTouchesNoOscillator(t *testing.T) {
	sim := NewSim(SimOptions{})
	c := Default()
	c.Source = Unavailable()
	require.NoError(t, quietSequencer(sim).Setup(c))
	for _, v := range sim.Stores(regs.RCC_CTLR) {
		assert.Equal(t, uint32(RCC_CTLR_HSION|RCC_CTLR_HSIRDY), v&^(RCC_CTLR_HSEBYP|RCC_CTLR_CSSON))
	}
	assert.Equal(t, uint32(3), sim.Peek(regs.RCC_CFGR0)&RCC_CFGR0_SW_Msk)
	assert.Equal(t, Unavailable(), quietSequencer(sim).CurrentSource(c))
}

func TestSetupDoesNotValidate(t *testing.T) {
	sim := NewSim(SimOptions{})
	c := Default()
	c.Source = PLL(PLLFromHSE(8))
	c.PLLMul = Mul16
	require.Error(t, Validate(c))
	require.NoError(t, quietSequencer(sim).Setup(c))
	assert.Equal(t, uint32(2), sim.Peek(regs.RCC_CFGR0)&RCC_CFGR0_SW_Msk)
}

func TestSetupHardwareFault(t *testing.T) {
	tests := []struct {
		name  string
		start uint32
		stuck uint32
		state State
	}{
		{"hse never ready", RCC_CTLR_HSION | RCC_CTLR_HSIRDY, RCC_CTLR_HSERDY, FeedStabilizing},
		{"pll never unlocks", RCC_CTLR_HSION | RCC_CTLR_HSIRDY | RCC_CTLR_PLLON | RCC_CTLR_PLLRDY, RCC_CTLR_PLLRDY, MultiplierDisabling},
		{"pll never locks", RCC_CTLR_HSION | RCC_CTLR_HSIRDY, RCC_CTLR_PLLRDY, MultiplierLocking},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sim := NewSim(SimOptions{Stuck: test.stuck})
			sim.Poke(regs.RCC_CTLR, test.start)
			s := quietSequencer(sim)
			s.MaxPolls = 50
			err := s.Setup(pll72())
			require.ErrorIs(t, err, ErrHardwareFault)
			assert.Equal(t, test.state, s.State())
			assert.True(t, sim.InterruptsEnabled(), "interrupts left disabled")
			assert.Equal(t, 0, sim.Depth())
			// The clock switch never happened.
			assert.Equal(t, uint32(0), sim.Peek(regs.RCC_CFGR0)&RCC_CFGR0_SW_Msk)
		})
	}
}

func TestSetupSlowOscillatorWithinBudget(t *testing.T) {
	sim := NewSim(SimOptions{ReadyAfter: 40})
	s := quietSequencer(sim)
	s.MaxPolls = 40
	require.NoError(t, s.Setup(pll72()))

	sim = NewSim(SimOptions{ReadyAfter: 41})
	s = quietSequencer(sim)
	s.MaxPolls = 40
	require.ErrorIs(t, s.Setup(pll72()), ErrHardwareFault)
}

func TestSetupZeroPollBudgetUsesDefault(t *testing.T) {
	for _, polls := range []int{0, -1} {
		sim := NewSim(SimOptions{ReadyAfter: 3})
		s := quietSequencer(sim)
		s.MaxPolls = polls
		require.NoError(t, s.Setup(pll72()), "MaxPolls %d", polls)
		assert.Equal(t, Committed, s.State())
	}
}

func TestSetupWaitStatesIgnoreWrap(t *testing.T) {
	// 4.295 GHz wraps to 32704 Hz in 32 bits but still needs two wait states.
	sim := NewSim(SimOptions{})
	s := quietSequencer(sim)
	c := Default()
	c.Source = HSE(4295)
	require.NoError(t, s.Setup(c))
	assert.Equal(t, uint32(2), sim.Peek(regs.FLASH_ACTLR)&FLASH_ACTLR_LATENCY_Msk)
}

func TestCurrentSource(t *testing.T) {
	c := pll72()
	tests := []struct {
		sws  uint32
		want Source
	}{
		{0, HSI()},
		{1, c.Source},
		{2, c.Source},
		{3, Unavailable()},
	}
	for _, test := range tests {
		sim := regs.NewSim()
		sim.Poke(regs.RCC_CFGR0, test.sws<<RCC_CFGR0_SWS_Pos)
		s := quietSequencer(sim)
		if got := s.CurrentSource(c); got != test.want {
			t.Errorf("SWS %d: got %v, want %v", test.sws, got, test.want)
		}
		assert.True(t, sim.InterruptsEnabled())
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "multiplier locking", MultiplierLocking.String())
	assert.Equal(t, "State(9)", State(9).String())
}

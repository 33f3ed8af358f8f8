package regs

import "fmt"

// OpKind distinguishes the entries of a Sim access log.
type OpKind int

const (
	OpLoad OpKind = iota
	OpStore
	OpDisableIRQ
	OpRestoreIRQ
)

// Op is one recorded register access. Masked reports whether interrupt
// delivery was suspended when the access happened.
type Op struct {
	Kind   OpKind
	Reg    Reg
	Value  uint32
	Masked bool
}

func (o Op) String() string {
	switch o.Kind {
	case OpLoad:
		return fmt.Sprintf("load  %v = %08X", o.Reg, o.Value)
	case OpStore:
		return fmt.Sprintf("store %v = %08X", o.Reg, o.Value)
	case OpDisableIRQ:
		return "irq off"
	default:
		return "irq restore"
	}
}

// Sim is an in-memory register file. Hooks let a hardware model react to
// stores (e.g. raise a ready flag) and to loads (e.g. count polls).
type Sim struct {
	vals    map[Reg]uint32
	onStore map[Reg][]func(s *Sim, old, new uint32)
	onLoad  map[Reg][]func(s *Sim)
	irqOn   bool
	depth   int
	Ops     []Op
	// Record turns the access log on. It is on by default.
	Record bool
}

func NewSim() *Sim {
	return &Sim{
		vals:    map[Reg]uint32{},
		onStore: map[Reg][]func(*Sim, uint32, uint32){},
		onLoad:  map[Reg][]func(*Sim){},
		irqOn:   true,
		Record:  true,
	}
}

// OnStore registers fn to run after every store to r.
func (s *Sim) OnStore(r Reg, fn func(s *Sim, old, new uint32)) {
	s.onStore[r] = append(s.onStore[r], fn)
}

// OnLoad registers fn to run before every load of r.
func (s *Sim) OnLoad(r Reg, fn func(s *Sim)) {
	s.onLoad[r] = append(s.onLoad[r], fn)
}

func (s *Sim) Load(r Reg) uint32 {
	for _, fn := range s.onLoad[r] {
		fn(s)
	}
	v := s.vals[r]
	s.record(Op{Kind: OpLoad, Reg: r, Value: v})
	return v
}

func (s *Sim) Store(r Reg, v uint32) {
	old := s.vals[r]
	s.vals[r] = v
	s.record(Op{Kind: OpStore, Reg: r, Value: v})
	for _, fn := range s.onStore[r] {
		fn(s, old, v)
	}
}

// Peek and Poke access a register without running hooks or logging, for use
// by hardware models and tests.
func (s *Sim) Peek(r Reg) uint32 {
	return s.vals[r]
}

func (s *Sim) Poke(r Reg, v uint32) {
	s.vals[r] = v
}

func (s *Sim) DisableInterrupts() IRQState {
	var prev IRQState
	if s.irqOn {
		prev = 1
	}
	s.irqOn = false
	s.depth++
	s.record(Op{Kind: OpDisableIRQ})
	return prev
}

func (s *Sim) RestoreInterrupts(st IRQState) {
	s.depth--
	s.irqOn = st != 0
	s.record(Op{Kind: OpRestoreIRQ})
}

// InterruptsEnabled reports whether interrupt delivery is currently on.
func (s *Sim) InterruptsEnabled() bool {
	return s.irqOn
}

// Depth is the number of critical sections currently held.
func (s *Sim) Depth() int {
	return s.depth
}

// Stores returns the values stored to r, in order.
func (s *Sim) Stores(r Reg) []uint32 {
	var out []uint32
	for _, o := range s.Ops {
		if o.Kind == OpStore && o.Reg == r {
			out = append(out, o.Value)
		}
	}
	return out
}

// Reset clears the access log, keeping register contents.
func (s *Sim) Reset() {
	s.Ops = nil
}

func (s *Sim) record(o Op) {
	if !s.Record {
		return
	}
	o.Masked = !s.irqOn
	s.Ops = append(s.Ops, o)
}

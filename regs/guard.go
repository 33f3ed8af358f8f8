package regs

// Guard is a held critical section. Interrupt delivery stays suspended until
// Exit is called; Exit is idempotent so it can be deferred and also called
// early.
type Guard struct {
	f     File
	state IRQState
	held  bool
}

// Enter suspends interrupt delivery on f. Guards must not be nested.
func Enter(f File) *Guard {
	return &Guard{f: f, state: f.DisableInterrupts(), held: true}
}

func (g *Guard) Exit() {
	if !g.held {
		return
	}
	g.held = false
	g.f.RestoreInterrupts(g.state)
}

// Modify performs one read-modify-write of r inside its own critical section.
func Modify(f File, r Reg, fn func(v uint32) uint32) {
	g := Enter(f)
	defer g.Exit()
	f.Store(r, fn(f.Load(r)))
}

func SetBits(f File, r Reg, bits uint32) {
	Modify(f, r, func(v uint32) uint32 { return v | bits })
}

func ClearBits(f File, r Reg, bits uint32) {
	Modify(f, r, func(v uint32) uint32 { return v &^ bits })
}

// ReplaceBits clears mask in r and sets value (already shifted into place).
func ReplaceBits(f File, r Reg, value, mask uint32) {
	Modify(f, r, func(v uint32) uint32 { return v&^mask | value&mask })
}

func HasBits(f File, r Reg, bits uint32) bool {
	return f.Load(r)&bits == bits
}

package regs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

const (
	MEM_FILE  = "/dev/mem"
	LOCK_FILE = "/var/lock/rccctl.lock"
)

var ErrDeviceBusy = errors.New("device is locked by another process")

type block struct {
	base Reg
	buf  mmap.MMap
	offs uintptr
}

// Memory is a File backed by physical memory mapped from /dev/mem. It is for
// targets where the MCU's peripheral space is reachable from Linux (an SoC
// with the core attached, or a debug bridge exposing it as memory).
//
// Interrupt suspension is emulated with a process-wide mutex, and an
// exclusive flock keeps other processes from applying configurations at the
// same time.
type Memory struct {
	chip   Chip
	mu     sync.Mutex
	lock   *flock.Flock
	blocks []block
}

// OpenMemory maps the RCC, FLASH, AFIO, TIM1 and GPIO blocks of chip.
// lockPath defaults to LOCK_FILE when empty.
func OpenMemory(chip Chip, lockPath string) (*Memory, error) {
	if lockPath == "" {
		lockPath = LOCK_FILE
	}
	m := &Memory{chip: chip, lock: flock.New(lockPath)}
	ok, err := m.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("couldn't lock %s: %w", lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceBusy, lockPath)
	}

	bases := []Reg{RCC_OFFSET, FLASH_OFFSET, AFIO_OFFSET, TIM1_OFFSET}
	for p := 0; p < chip.Ports; p++ {
		bases = append(bases, GPIO(p, 0))
	}
	for _, b := range bases {
		phys := chip.PeriphBase + uintptr(b)
		buf, offs, err := mapMem(phys, BLOCK_SIZE)
		if err != nil {
			m.Close() // Ignore error
			return nil, fmt.Errorf("couldn't map %v at %08X: %w", b, phys, err)
		}
		log.Printf("Got block %v [%d], offset %d\n", b, len(buf), offs)
		m.blocks = append(m.blocks, block{base: b, buf: buf, offs: offs})
	}
	return m, nil
}

// mapMem opens /dev/mem and maps the given physical address into our address
// space. The mapping has to start at a page boundary, so the returned offset
// locates physAddr inside the mapping.
func mapMem(physAddr uintptr, size int) (mmap.MMap, uintptr, error) {
	f, err := os.OpenFile(MEM_FILE, os.O_RDWR|os.O_SYNC, os.ModePerm)
	if err != nil {
		return nil, 0, fmt.Errorf("couldn't open %s: %w", MEM_FILE, err)
	}
	defer f.Close() // Ignore error

	mapAddr, offs := pageAlign(physAddr, uintptr(unix.Getpagesize()))
	size += int(offs)
	mm, err := mmap.MapRegion(f, size, mmap.RDWR, 0, int64(mapAddr))
	if err != nil {
		return nil, 0, fmt.Errorf("couldn't map region (%08X, %v): %w", physAddr, size, err)
	}
	return mm, offs, nil
}

// pageAlign rounds addr down to a page boundary and returns the remainder.
func pageAlign(addr, pageSize uintptr) (uintptr, uintptr) {
	mask := ^(pageSize - 1)
	return addr & mask, addr &^ mask
}

func (m *Memory) word(r Reg) *uint32 {
	for i := range m.blocks {
		b := &m.blocks[i]
		if r >= b.base && r < b.base+BLOCK_SIZE {
			return (*uint32)(unsafe.Pointer(&b.buf[b.offs+uintptr(r-b.base)]))
		}
	}
	panic(fmt.Sprintf("register %v is not mapped", r))
}

func (m *Memory) Load(r Reg) uint32 {
	return atomic.LoadUint32(m.word(r))
}

func (m *Memory) Store(r Reg, v uint32) {
	atomic.StoreUint32(m.word(r), v)
}

func (m *Memory) DisableInterrupts() IRQState {
	m.mu.Lock()
	return 1
}

func (m *Memory) RestoreInterrupts(IRQState) {
	m.mu.Unlock()
}

// Chip returns the chip entry the memory was opened for.
func (m *Memory) Chip() Chip {
	return m.chip
}

// Close unmaps all blocks and releases the device lock. It returns the first
// error encountered but always attempts every step.
func (m *Memory) Close() error {
	var err error
	for _, b := range m.blocks {
		if te := b.buf.Unmap(); te != nil && err == nil {
			err = te
		}
	}
	m.blocks = nil
	if te := m.lock.Unlock(); te != nil && err == nil {
		err = te
	}
	return err
}

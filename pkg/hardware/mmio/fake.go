// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mmio

import (
	"fmt"
	"sync"
)

type OpKind int

const (
	OpRead OpKind = iota
	OpWrite
	OpBarrier
	OpSync
)

// Op is one recorded access on a Fake.
type Op struct {
	Kind    OpKind
	Address uintptr
	Size    int
	Data    uint32
}

func (o Op) String() string {
	switch o.Kind {
	case OpRead:
		return fmt.Sprintf("{read @ %08x, %v bit = %08x}", o.Address, o.Size, o.Data)
	case OpWrite:
		return fmt.Sprintf("{write @ %08x, %v bit = %08x}", o.Address, o.Size, o.Data)
	case OpBarrier:
		return "{barrier}"
	case OpSync:
		return "{sync}"
	}
	return fmt.Sprintf("{unknown op %d}", o.Kind)
}

// Write32 is the Op a MustWrite32 records.
func Write32(a uintptr, d uint32) Op {
	return Op{Kind: OpWrite, Address: a, Size: 32, Data: d}
}

// Write8 is the Op a MustWrite8 records.
func Write8(a uintptr, d uint8) Op {
	return Op{Kind: OpWrite, Address: a, Size: 8, Data: uint32(d)}
}

// Read8 is the Op a MustRead8 records.
func Read8(a uintptr, d uint8) Op {
	return Op{Kind: OpRead, Address: a, Size: 8, Data: uint32(d)}
}

var (
	Barrier = Op{Kind: OpBarrier}
	Sync    = Op{Kind: OpSync}
)

// Fake is an in-memory Provider that records every access in order.
type Fake struct {
	m     sync.Mutex
	mem   map[uintptr]uint8
	holes map[uintptr]bool
	ops   []Op

	// Trace, when set, sees every op as it happens.
	Trace func(Op)
}

func NewFake() *Fake {
	return &Fake{mem: map[uintptr]uint8{}, holes: map[uintptr]bool{}}
}

// Unmappable makes Map fail for any range starting at address.
func (f *Fake) Unmappable(address uintptr) {
	f.m.Lock()
	defer f.m.Unlock()
	f.holes[address] = true
}

// Poke32 sets memory without recording an op.
func (f *Fake) Poke32(a uintptr, d uint32) {
	f.m.Lock()
	defer f.m.Unlock()
	f.store32(a, d)
}

// Peek32 reads memory without recording an op.
func (f *Fake) Peek32(a uintptr) uint32 {
	f.m.Lock()
	defer f.m.Unlock()
	return f.load32(a)
}

// Ops returns the recorded accesses and forgets them.
func (f *Fake) Ops() []Op {
	f.m.Lock()
	defer f.m.Unlock()
	o := f.ops
	f.ops = nil
	return o
}

func (f *Fake) record(o Op) {
	f.ops = append(f.ops, o)
	if f.Trace != nil {
		f.Trace(o)
	}
}

func (f *Fake) store32(a uintptr, d uint32) {
	for i := uintptr(0); i < 4; i++ {
		f.mem[a+i] = uint8(d >> (8 * i))
	}
}

func (f *Fake) load32(a uintptr) uint32 {
	var d uint32
	for i := uintptr(0); i < 4; i++ {
		d |= uint32(f.mem[a+i]) << (8 * i)
	}
	return d
}

func (f *Fake) Map(address uintptr, size int) error {
	f.m.Lock()
	defer f.m.Unlock()
	if f.holes[address] {
		return fmt.Errorf("mmap %#08x: no such device", address)
	}
	if size <= 0 {
		return fmt.Errorf("invalid size %d at %#08x", size, address)
	}
	return nil
}

func (f *Fake) MustRead32(a uintptr) uint32 {
	f.m.Lock()
	defer f.m.Unlock()
	d := f.load32(a)
	f.record(Op{Kind: OpRead, Address: a, Size: 32, Data: d})
	return d
}

func (f *Fake) MustRead8(a uintptr) uint8 {
	f.m.Lock()
	defer f.m.Unlock()
	d := f.mem[a]
	f.record(Read8(a, d))
	return d
}

func (f *Fake) MustWrite32(a uintptr, d uint32) {
	f.m.Lock()
	defer f.m.Unlock()
	f.store32(a, d)
	f.record(Write32(a, d))
}

func (f *Fake) MustWrite8(a uintptr, d uint8) {
	f.m.Lock()
	defer f.m.Unlock()
	f.mem[a] = d
	f.record(Write8(a, d))
}

func (f *Fake) Barrier() {
	f.m.Lock()
	defer f.m.Unlock()
	f.record(Barrier)
}

func (f *Fake) Sync() error {
	f.m.Lock()
	defer f.m.Unlock()
	f.record(Sync)
	return nil
}

func (f *Fake) Close() {
}

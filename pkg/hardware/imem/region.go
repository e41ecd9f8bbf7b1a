// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package imem models the small persistent cells in the SoC internal
// memory that firmware reads back after a reset.
package imem

import (
	"fmt"

	"github.com/u-root/msm-restart/pkg/hardware/mmio"
)

// Region is a fixed window of persistent memory.
type Region interface {
	Name() string
	Address() uintptr
	Size() int
	// MustWrite32 is a raw store at off bytes into the region. It panics if
	// the word does not fit in the region.
	MustWrite32(off uintptr, v uint32)
	// Barrier makes every earlier store visible before any later one.
	Barrier()
	// Flush pushes the region contents out past all caches.
	Flush() error
}

type region struct {
	name string
	mem  mmio.Provider
	base uintptr
	size int
}

// Map returns the region [base, base+size) of mem. A failure here is a
// configuration error: the caller decides which feature to give up.
func Map(name string, mem mmio.Provider, base uintptr, size int) (Region, error) {
	if base == 0 {
		return nil, fmt.Errorf("%s: no address configured", name)
	}
	if base%4 != 0 || size <= 0 || size%4 != 0 {
		return nil, fmt.Errorf("%s: bad region %#08x+%d", name, base, size)
	}
	if err := mem.Map(base, size); err != nil {
		return nil, fmt.Errorf("%s: unable to map: %w", name, err)
	}
	return &region{name: name, mem: mem, base: base, size: size}, nil
}

func (r *region) Name() string {
	return r.name
}

func (r *region) Address() uintptr {
	return r.base
}

func (r *region) Size() int {
	return r.size
}

func (r *region) MustWrite32(off uintptr, v uint32) {
	if off%4 != 0 || off+4 > uintptr(r.size) {
		panic(fmt.Sprintf("%s: write at +%#x outside %d byte region", r.name, off, r.size))
	}
	r.mem.MustWrite32(r.base+off, v)
}

func (r *region) Barrier() {
	r.mem.Barrier()
}

func (r *region) Flush() error {
	r.mem.Barrier()
	return r.mem.Sync()
}

// WriteWords stores words back to back from the start of r, then issues a
// barrier so nobody observes a partly written pattern.
func WriteWords(r Region, words ...uint32) {
	for i, w := range words {
		r.MustWrite32(uintptr(i*4), w)
	}
	r.Barrier()
}

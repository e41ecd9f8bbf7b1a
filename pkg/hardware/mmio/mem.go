// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mmio gives access to physical memory: SoC registers and the
// internal memory (IMEM) cells that survive a warm reset.
//
// All accessors are Must* style. A fault while touching physical memory
// means the platform description is wrong, and there is nothing sensible
// for a caller to do with an error at that point.
package mmio

// Provider is the physical memory surface used by the hardware packages.
type Provider interface {
	// Map makes sure [address, address+size) is accessible. Accessors map
	// lazily, but callers that want to fail early at init call this.
	Map(address uintptr, size int) error
	MustRead32(uintptr) uint32
	MustRead8(uintptr) uint8
	MustWrite32(uintptr, uint32)
	MustWrite8(uintptr, uint8)
	// Barrier orders all previous stores before any later one.
	Barrier()
	// Sync pushes all stores out to the point of coherency.
	Sync() error
	Close()
}

// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package mmio

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

type hostMem struct {
	mf    *os.File
	ps    uintptr
	m     sync.Mutex
	pages map[uintptr][]byte
	fence uint32
}

// Open maps physical memory through /dev/mem.
func Open() (Provider, error) {
	return OpenFile("/dev/mem")
}

// OpenFile is Open on an arbitrary memory device, e.g. a uio node.
func OpenFile(path string) (Provider, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0600)
	if err != nil {
		return nil, err
	}
	return &hostMem{
		mf:    f,
		ps:    uintptr(unix.Getpagesize()),
		pages: map[uintptr][]byte{},
	}, nil
}

// Pages stay mapped until Close.
func (m *hostMem) page(page uintptr) ([]byte, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if p, ok := m.pages[page]; ok {
		return p, nil
	}
	p, err := unix.Mmap(int(m.mf.Fd()), int64(page), int(m.ps), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %#08x: %w", page, err)
	}
	m.pages[page] = p
	return p, nil
}

func (m *hostMem) Map(address uintptr, size int) error {
	if size <= 0 {
		return fmt.Errorf("invalid size %d at %#08x", size, address)
	}
	first := address & ^(m.ps - 1)
	last := (address + uintptr(size) - 1) & ^(m.ps - 1)
	for page := first; page <= last; page += m.ps {
		if _, err := m.page(page); err != nil {
			return err
		}
	}
	return nil
}

func (m *hostMem) at(address uintptr, width uintptr) unsafe.Pointer {
	page := address & ^(m.ps - 1)
	offset := address - page
	if offset+width > m.ps {
		panic(fmt.Sprintf("access at %#08x crosses a page boundary", address))
	}
	p, err := m.page(page)
	if err != nil {
		panic(err)
	}
	return unsafe.Pointer(&p[offset])
}

func (m *hostMem) MustRead32(address uintptr) uint32 {
	return atomic.LoadUint32((*uint32)(m.at(address, 4)))
}

func (m *hostMem) MustRead8(address uintptr) uint8 {
	return *(*uint8)(m.at(address, 1))
}

func (m *hostMem) MustWrite32(address uintptr, data uint32) {
	atomic.StoreUint32((*uint32)(m.at(address, 4)), data)
}

func (m *hostMem) MustWrite8(address uintptr, data uint8) {
	*(*uint8)(m.at(address, 1)) = data
}

// Barrier relies on sync/atomic operations being sequentially consistent:
// no store issued before it can be observed after a store issued after it.
func (m *hostMem) Barrier() {
	atomic.AddUint32(&m.fence, 1)
}

func (m *hostMem) Sync() error {
	m.m.Lock()
	defer m.m.Unlock()
	for page, p := range m.pages {
		if err := unix.Msync(p, unix.MS_SYNC); err != nil {
			return fmt.Errorf("msync %#08x: %w", page, err)
		}
	}
	return nil
}

func (m *hostMem) Close() {
	m.m.Lock()
	defer m.m.Unlock()
	for page, p := range m.pages {
		unix.Munmap(p)
		delete(m.pages, page)
	}
	m.mf.Close()
}

// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Library for poking the MSM SoC registers involved in taking the chip down.
//
// Usually packages like these contain a notice to say use on your own risk
// but this time, it's for real. Lowering PS_HOLD removes power from the
// whole board; nothing runs after it.

package msm

import (
	"github.com/u-root/msm-restart/pkg/hardware/mmio"
)

const (
	// MPM2 PS_HOLD control on msm8974
	MPM2_PSHOLD_BASE uintptr = 0xfc4ab000
)

// Registers are the physical addresses used on a given board. A zero
// address means the block is not present.
type Registers struct {
	PsHold    uintptr
	WdogDebug uintptr
}

type Msm struct {
	mem  mmio.Provider
	regs Registers
}

func OpenWithMemory(mem mmio.Provider, regs Registers) *Msm {
	return &Msm{mem, regs}
}

func (m *Msm) Mem() mmio.Provider {
	return m.mem
}

// LowerPsHold deasserts PS_HOLD. The PMIC cuts power (or resets, depending
// on how the PON block was told to react) as soon as the write lands.
func (m *Msm) LowerPsHold() {
	if m.regs.PsHold == 0 {
		log.Errorf("No PS_HOLD register configured, cannot lower it")
		return
	}
	m.mem.MustWrite32(m.regs.PsHold, 0)
}

// DisableWdogDebug clears the watchdog debug enable so that a watchdog bite
// during reset does not route through the debug image.
func (m *Msm) DisableWdogDebug() {
	if m.regs.WdogDebug == 0 {
		return
	}
	// 0x1 - debug enable
	v := m.mem.MustRead32(m.regs.WdogDebug)
	m.mem.MustWrite32(m.regs.WdogDebug, v & ^uint32(0x1))
	m.mem.Barrier()
}

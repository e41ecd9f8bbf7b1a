// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pmic drives the power-on (PON) block of the Qualcomm PMICs that
// decides what happens when the SoC lets go of PS_HOLD.
package pmic

import (
	"fmt"
	"time"

	"github.com/jmhodges/clock"
	"github.com/u-root/msm-restart/pkg/hardware/mmio"
)

// ResetType is what the PMIC does once PS_HOLD drops.
type ResetType uint8

const (
	WarmReset     ResetType = 0x01
	Shutdown      ResetType = 0x04
	DvddShutdown  ResetType = 0x05
	HardReset     ResetType = 0x07
	DvddHardReset ResetType = 0x08
)

func (r ResetType) String() string {
	switch r {
	case WarmReset:
		return "warm-reset"
	case Shutdown:
		return "shutdown"
	case DvddShutdown:
		return "dvdd-shutdown"
	case HardReset:
		return "hard-reset"
	case DvddHardReset:
		return "dvdd-hard-reset"
	}
	return fmt.Sprintf("reset-type(%#x)", uint8(r))
}

const (
	// QPNP PON register offsets
	PON_WD_RST_S2_CTL2     uintptr = 0x57
	PON_PS_HOLD_RST_CTL    uintptr = 0x5a
	PON_PS_HOLD_RST_CTL2   uintptr = 0x5b
	PON_POWER_OFF_MASK     uint8   = 0x0f
	PON_RESET_EN           uint8   = 0x80
	PON_WD_EN              uint8   = 0x80
	PON_CTRL_1_WD_EN_RESET uint8   = 0x08

	// The PMIC needs 10 sleep clock cycles between disabling and
	// re-arming the PS_HOLD reset.
	resetSettle = 500 * time.Microsecond
)

// Pon is a PON block reachable through a memory window. Ctrl1 is the
// PON_CTRL_1 register of a legacy PM8xxx companion, zero when absent.
type Pon struct {
	mem   mmio.Provider
	base  uintptr
	ctrl1 uintptr
	clk   clock.Clock
}

func New(mem mmio.Provider, base, ctrl1 uintptr) *Pon {
	return NewWithClock(mem, base, ctrl1, clock.New())
}

func NewWithClock(mem mmio.Provider, base, ctrl1 uintptr, clk clock.Clock) *Pon {
	return &Pon{mem: mem, base: base, ctrl1: ctrl1, clk: clk}
}

func (p *Pon) maskedWrite(reg uintptr, mask, val uint8) {
	v := p.mem.MustRead8(reg)
	p.mem.MustWrite8(reg, v&^mask|val&mask)
}

// ResetPwrOff selects whether the legacy PMIC resets (true) or powers off
// (false) when the SoC goes away.
func (p *Pon) ResetPwrOff(reset bool) error {
	if p.ctrl1 == 0 {
		return nil
	}
	v := uint8(0)
	if reset {
		v = PON_CTRL_1_WD_EN_RESET
	}
	p.maskedWrite(p.ctrl1, PON_CTRL_1_WD_EN_RESET, v)
	return nil
}

// SystemPwrOff configures the reaction to PS_HOLD going low.
func (p *Pon) SystemPwrOff(t ResetType) error {
	if p.base == 0 {
		return fmt.Errorf("no PON block configured")
	}
	p.maskedWrite(p.base+PON_PS_HOLD_RST_CTL2, PON_RESET_EN, 0)
	p.clk.Sleep(resetSettle)
	p.maskedWrite(p.base+PON_PS_HOLD_RST_CTL, PON_POWER_OFF_MASK, uint8(t))
	p.maskedWrite(p.base+PON_PS_HOLD_RST_CTL2, PON_RESET_EN, PON_RESET_EN)
	return nil
}

// WatchdogConfig arms or disarms the PMIC watchdog S2 reset.
func (p *Pon) WatchdogConfig(enable bool) error {
	if p.base == 0 {
		return fmt.Errorf("no PON block configured")
	}
	v := uint8(0)
	if enable {
		v = PON_WD_EN
	}
	p.maskedWrite(p.base+PON_WD_RST_S2_CTL2, PON_WD_EN, v)
	return nil
}

// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package restart

import (
	"fmt"

	"github.com/u-root/msm-restart/pkg/hardware/imem"
)

const (
	DloadMagic1 uint32 = 0xE47B337D
	DloadMagic2 uint32 = 0xCE14091A

	EmergencyDloadMagic1 uint32 = 0x322A4F99
	EmergencyDloadMagic2 uint32 = 0xC67E4350
	EmergencyDloadMagic3 uint32 = 0x77777777
)

// RestartMode picks an alternate restart path.
type RestartMode int

const (
	RestartNormal RestartMode = 0x0
	RestartDload  RestartMode = 0x1
)

// downloadMode is the download mode latch. Callers hold Controller.m.
type downloadMode struct {
	feature   bool
	secDebug  bool
	flag      imem.Region
	emergency imem.Region
	pmic      Pmic
	on        bool
}

func (d *downloadMode) set(on bool) {
	if !d.feature || d.flag == nil {
		return
	}
	if on {
		imem.WriteWords(d.flag, DloadMagic1, DloadMagic2)
	} else {
		imem.WriteWords(d.flag, 0, 0)
	}
	d.on = on
	g := 0.0
	if on {
		g = 1
	}
	dloadEnabled.WithLabelValues().Set(g)
	if d.secDebug {
		log.Infof("set_dload_mode <%v>", on)
	}
}

// get is the last value written, not a read back of the hardware.
func (d *downloadMode) get() bool {
	if !d.feature {
		return false
	}
	return d.on
}

// applyPolicy rewrites the latch before a restart. Each step overrides the
// previous one and the master switch goes last so nothing can bypass it.
func (d *downloadMode) applyPolicy(inPanic bool, mode RestartMode, master int) {
	// This looks like a normal reboot at this point.
	d.set(false)
	d.set(inPanic)
	if mode == RestartDload {
		d.set(true)
	}
	if master == 0 {
		d.set(false)
	}
}

// enableEmergency arms emergency download mode. The PMIC watchdog is turned
// off too, otherwise it would reset the device out of the mode.
func (d *downloadMode) enableEmergency() error {
	if !d.feature {
		return ErrDownloadModeUnsupported
	}
	if d.emergency == nil {
		return fmt.Errorf("emergency download mode: %w", ErrRegionUnmapped)
	}
	d.emergency.MustWrite32(0, EmergencyDloadMagic1)
	d.emergency.MustWrite32(4, EmergencyDloadMagic2)
	d.emergency.MustWrite32(8, EmergencyDloadMagic3)
	if err := d.pmic.WatchdogConfig(false); err != nil {
		log.Errorf("Unable to disable PMIC watchdog: %v", err)
	}
	d.emergency.Barrier()
	return nil
}

// ValidateDownloadMode rejects a master switch value with a bit set above bit 0.
func ValidateDownloadMode(v int) error {
	if v>>1 != 0 {
		return fmt.Errorf("%d: %w", v, ErrInvalidDownloadMode)
	}
	return nil
}

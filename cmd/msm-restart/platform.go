// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/u-root/msm-restart/config"
	"github.com/u-root/msm-restart/pkg/hardware/imem"
	"github.com/u-root/msm-restart/pkg/hardware/mmio"
	"github.com/u-root/msm-restart/pkg/hardware/msm"
	"github.com/u-root/msm-restart/pkg/hardware/pmic"
	"github.com/u-root/msm-restart/pkg/hardware/scm"
	"github.com/u-root/msm-restart/pkg/restart"
)

// openMem is replaced in tests.
var openMem = mmio.Open

// mapRegion maps r, returning nil when the platform does not describe it or
// the mapping fails. The controller decides what a missing region means.
func mapRegion(mem mmio.Provider, name string, r config.Region) imem.Region {
	if r.Address == 0 {
		return nil
	}
	region, err := imem.Map(name, mem, uintptr(r.Address), r.Size)
	if err != nil {
		log.Errorf("Unable to map %s: %v", name, err)
		return nil
	}
	return region
}

// openController wires a Controller to physical memory as described by c.
// The returned close function releases the mappings.
func openController(c *config.Config, o restart.Options) (*restart.Controller, func(), error) {
	mem, err := openMem()
	if err != nil {
		return nil, nil, err
	}
	regs := msm.Registers{PsHold: uintptr(c.PsHold), WdogDebug: uintptr(c.WdogDebug)}
	if regs.WdogDebug != 0 {
		if err := mem.Map(regs.WdogDebug, 4); err != nil {
			log.Errorf("Unable to map watchdog debug: %v", err)
			regs.WdogDebug = 0
		}
	}
	if regs.PsHold != 0 {
		if err := mem.Map(regs.PsHold, 4); err != nil {
			mem.Close()
			return nil, nil, err
		}
	}
	soc := msm.OpenWithMemory(mem, regs)

	o.Features = c.Features
	o.Reason = mapRegion(mem, "restart_reason", c.RestartReason)
	o.Download = mapRegion(mem, "download_mode", c.DownloadMode)
	o.EmergencyDownload = mapRegion(mem, "emergency_download_mode", c.EmergencyDownloadMode)
	o.Pmic = pmic.New(mem, uintptr(c.Pon), uintptr(c.PonLegacyCtrl))
	o.PowerHold = soc
	o.WatchdogDebug = soc
	if o.SecureMonitor == nil {
		o.SecureMonitor = scm.Unavailable{}
	}
	if o.DownloadMode, err = c.DownloadModeSwitchFor(fs); err != nil {
		mem.Close()
		return nil, nil, err
	}
	o.PoweroffCharging = c.PoweroffCharging
	o.FatalTimeout = c.FatalTimeout

	ctl, err := restart.New(o)
	if err != nil {
		mem.Close()
		return nil, nil, err
	}
	return ctl, mem.Close, nil
}

// savedSwitch keeps master switch changes for the rest of the boot so that
// later invocations start from the same value.
type savedSwitch struct {
	*restart.Controller
	c *config.Config
}

func (s savedSwitch) SetDownloadModeSwitch(v int) error {
	if err := s.Controller.SetDownloadModeSwitch(v); err != nil {
		return err
	}
	return s.c.SaveDownloadModeSwitch(fs, v)
}

// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package restart decides how an MSM goes down and what it leaves behind
// for the next boot stage.
//
// A restart writes a reason code into persistent IMEM, arms or clears the
// download mode magic, tells the PMIC what to do when PS_HOLD drops and
// then drops it. A power off does the same minus the reason code. Both are
// one way trips: once PS_HOLD is low the only thing left to do is wait for
// the power to go, and complain loudly if it does not.
package restart

import (
	"errors"

	"github.com/u-root/msm-restart/pkg/hardware/pmic"
	"github.com/u-root/msm-restart/pkg/logger"
)

var (
	log  = logger.LogContainer.GetSimpleLogger()
	zlog = logger.LogContainer.GetLogger()
)

var (
	ErrNoReasonRegion          = errors.New("restart reason region not available")
	ErrRegionUnmapped          = errors.New("region not mapped")
	ErrInvalidDownloadMode     = errors.New("download mode must be 0 or 1")
	ErrDownloadModeUnsupported = errors.New("download mode is not enabled on target")
	ErrShutdownInProgress      = errors.New("restart or power off already in progress")
	ErrHalted                  = errors.New("hardware did not go down")
)

// Features are the optional behaviours of a given build, resolved once at
// startup.
type Features struct {
	// DloadMode enables the download mode latch and the emergency variant.
	DloadMode bool `yaml:"dload_mode"`
	// SecDebug adds the sec_debug_hw_reset reason, writes a reason code
	// even when no command is given and clears download mode on a normal
	// reboot notification.
	SecDebug bool `yaml:"sec_debug"`
	// PeripheralSecureCheck adds the peripheral_hw_reset reason.
	PeripheralSecureCheck bool `yaml:"peripheral_secure_check"`
	// SSRDebugLevel adds the cpdebug<N> reason.
	SSRDebugLevel bool `yaml:"ssr_debug_level"`
	// DualModemSwitch adds the swsel<N> reason.
	DualModemSwitch bool `yaml:"dual_modem_switch"`
	// LPMCharging picks the PMIC reset type from the poweroff charging state.
	LPMCharging bool `yaml:"lpm_charging"`
	// MaintenanceMode keeps LPM charging restarts warm so a power key press
	// does not land in maintenance mode.
	MaintenanceMode bool `yaml:"maintenance_mode"`
}

// Pmic is the power management IC as seen by the shutdown path.
type Pmic interface {
	ResetPwrOff(reset bool) error
	SystemPwrOff(t pmic.ResetType) error
	WatchdogConfig(enable bool) error
}

// PowerHold is the PS_HOLD line.
type PowerHold interface {
	LowerPsHold()
}

// WatchdogDebug is the watchdog debug image hook.
type WatchdogDebug interface {
	DisableWdogDebug()
}

// EventSink receives the host's panic and reboot notifications.
type EventSink interface {
	OnPanic()
	OnReboot()
}

type nopWatchdogDebug struct{}

func (nopWatchdogDebug) DisableWdogDebug() {}

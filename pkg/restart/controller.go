// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package restart

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"github.com/u-root/msm-restart/pkg/hardware/imem"
	"github.com/u-root/msm-restart/pkg/hardware/pmic"
	"github.com/u-root/msm-restart/pkg/hardware/scm"
	"github.com/u-root/msm-restart/pkg/logger"
)

type State int

const (
	StateRunning State = iota
	StatePanicObserved
	StateRestartRequested
	StatePowerOffRequested
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePanicObserved:
		return "panic-observed"
	case StateRestartRequested:
		return "restart-requested"
	case StatePowerOffRequested:
		return "poweroff-requested"
	case StateHalted:
		return "halted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options wire a Controller to the hardware. Regions that failed to map
// are left nil.
type Options struct {
	Features Features

	Reason            imem.Region
	Download          imem.Region
	EmergencyDownload imem.Region

	Pmic          Pmic
	PowerHold     PowerHold
	SecureMonitor scm.Caller
	WatchdogDebug WatchdogDebug

	// DownloadMode is the initial master switch, 0 or 1.
	DownloadMode int
	// PoweroffCharging is set when the device was booted to charge only.
	PoweroffCharging bool

	FatalTimeout time.Duration
	Clock        clock.Clock
	// Halt is called once the hardware has failed to go down. The default
	// logs at fatal level, which exits.
	Halt func(error)
}

// Controller is the single owner of the shutdown state. All of panic,
// restart mode, master switch and the latch are guarded by m.
type Controller struct {
	f Features

	m            sync.Mutex
	state        State
	inPanic      bool
	restartMode  RestartMode
	downloadMode int
	dload        downloadMode

	reason           imem.Region
	pmic             Pmic
	poweroffCharging bool
	seq              sequencer
	halt             func(error)
}

var _ EventSink = (*Controller)(nil)

func defaultHalt(err error) {
	log.Fatalf("%v", err)
}

func New(o Options) (*Controller, error) {
	if o.Reason == nil {
		return nil, ErrNoReasonRegion
	}
	if o.Pmic == nil || o.PowerHold == nil {
		return nil, fmt.Errorf("a PMIC and a PS_HOLD line are required")
	}
	if o.Features.DloadMode {
		if err := ValidateDownloadMode(o.DownloadMode); err != nil {
			return nil, err
		}
	}
	if o.SecureMonitor == nil {
		o.SecureMonitor = scm.Unavailable{}
	}
	if o.WatchdogDebug == nil {
		o.WatchdogDebug = nopWatchdogDebug{}
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.FatalTimeout <= 0 {
		o.FatalTimeout = DefaultFatalTimeout
	}
	if o.Halt == nil {
		o.Halt = defaultHalt
	}

	c := &Controller{
		f:            o.Features,
		state:        StateRunning,
		restartMode:  RestartNormal,
		downloadMode: o.DownloadMode,
		dload: downloadMode{
			feature:   o.Features.DloadMode,
			secDebug:  o.Features.SecDebug,
			flag:      o.Download,
			emergency: o.EmergencyDownload,
			pmic:      o.Pmic,
		},
		reason:           o.Reason,
		pmic:             o.Pmic,
		poweroffCharging: o.PoweroffCharging,
		seq: sequencer{
			scm:     o.SecureMonitor,
			wdog:    o.WatchdogDebug,
			hold:    o.PowerHold,
			clk:     o.Clock,
			timeout: o.FatalTimeout,
		},
		halt: o.Halt,
	}

	if o.Features.DloadMode {
		if o.Download == nil {
			log.Errorf("Unable to map imem download mode, download mode disabled")
		}
		if o.EmergencyDownload == nil {
			log.Errorf("Unable to map imem emergency download mode, emergency download mode disabled")
		}
		c.dload.set(c.downloadMode != 0)
	}

	ok, err := o.SecureMonitor.IsCallAvailable(scm.SVC_PWR, scm.IO_DISABLE_PMIC_ARBITER)
	if err != nil {
		log.Warnf("Unable to probe SCM arbiter disable: %v", err)
	}
	c.seq.arbiterDisable = ok && err == nil

	return c, nil
}

// OnPanic records an unrecoverable panic. It is never undone.
func (c *Controller) OnPanic() {
	c.m.Lock()
	defer c.m.Unlock()
	if !c.inPanic {
		panics.WithLabelValues().Inc()
	}
	c.inPanic = true
	if c.state == StateRunning {
		c.state = StatePanicObserved
	}
}

// OnReboot is the normal reboot notification.
func (c *Controller) OnReboot() {
	if !c.f.SecDebug {
		return
	}
	c.m.Lock()
	defer c.m.Unlock()
	c.dload.set(false)
}

func (c *Controller) SetRestartMode(mode RestartMode) {
	c.m.Lock()
	defer c.m.Unlock()
	c.restartMode = mode
}

func (c *Controller) RestartMode() RestartMode {
	c.m.Lock()
	defer c.m.Unlock()
	return c.restartMode
}

// SetDownloadMode writes the download mode latch directly.
func (c *Controller) SetDownloadMode(on bool) {
	c.m.Lock()
	defer c.m.Unlock()
	c.dload.set(on)
}

// DownloadModeEnabled is the last value written to the latch.
func (c *Controller) DownloadModeEnabled() bool {
	c.m.Lock()
	defer c.m.Unlock()
	return c.dload.get()
}

// SetDownloadModeSwitch updates the master switch and pushes it into the
// latch. Invalid values leave everything as it was.
func (c *Controller) SetDownloadModeSwitch(v int) error {
	if !c.f.DloadMode {
		return ErrDownloadModeUnsupported
	}
	if err := ValidateDownloadMode(v); err != nil {
		return err
	}
	c.m.Lock()
	defer c.m.Unlock()
	c.downloadMode = v
	c.dload.set(v != 0)
	return nil
}

func (c *Controller) DownloadModeSwitch() int {
	c.m.Lock()
	defer c.m.Unlock()
	return c.downloadMode
}

// ParseDownloadMode parses a master switch value the way a module
// parameter would be written: an integer, optionally newline terminated.
func ParseDownloadMode(s string) (int, error) {
	v, err := strconv.ParseInt(strings.TrimSuffix(s, "\n"), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidDownloadMode)
	}
	if err := ValidateDownloadMode(int(v)); err != nil {
		return 0, err
	}
	return int(v), nil
}

func (c *Controller) State() State {
	c.m.Lock()
	defer c.m.Unlock()
	return c.state
}

func (c *Controller) InPanic() bool {
	c.m.Lock()
	defer c.m.Unlock()
	return c.inPanic
}

func (c *Controller) ArbiterDisableSupported() bool {
	return c.seq.arbiterDisable
}

// Status is a point in time view of the controller.
type Status struct {
	State               string `json:"state"`
	Panic               bool   `json:"panic"`
	RestartMode         int    `json:"restart_mode"`
	DownloadMode        int    `json:"download_mode"`
	DownloadModeEnabled bool   `json:"download_mode_enabled"`
	ArbiterDisable      bool   `json:"arbiter_disable"`
}

func (c *Controller) Status() Status {
	c.m.Lock()
	defer c.m.Unlock()
	return Status{
		State:               c.state.String(),
		Panic:               c.inPanic,
		RestartMode:         int(c.restartMode),
		DownloadMode:        c.downloadMode,
		DownloadModeEnabled: c.dload.get(),
		ArbiterDisable:      c.seq.arbiterDisable,
	}
}

// begin moves into a terminal request state. Callers hold c.m.
func (c *Controller) begin(next State) error {
	switch c.state {
	case StateRestartRequested, StatePowerOffRequested, StateHalted:
		return fmt.Errorf("%v: %w", c.state, ErrShutdownInProgress)
	}
	c.state = next
	return nil
}

func (c *Controller) fail(path string, err error) error {
	c.m.Lock()
	c.state = StateHalted
	c.m.Unlock()
	failures.WithLabelValues(path).Inc()
	log.Errorf("%v", err)
	c.halt(err)
	return err
}

// resetType is the PMIC reaction to PS_HOLD on restart. Memory contents
// must survive, so it is a warm reset unless we are leaving poweroff
// charging.
func (c *Controller) resetType() pmic.ResetType {
	if !c.f.LPMCharging || !c.poweroffCharging {
		return pmic.WarmReset
	}
	if c.inPanic || c.f.MaintenanceMode {
		return pmic.WarmReset
	}
	return pmic.DvddHardReset
}

// prepare leaves everything the next boot needs in place. Callers hold c.m.
func (c *Controller) prepare(r Reason) {
	c.dload.applyPolicy(c.inPanic, c.restartMode, c.downloadMode)

	if err := c.pmic.ResetPwrOff(true); err != nil {
		log.Errorf("PMIC reset on power off: %v", err)
	}
	t := c.resetType()
	if err := c.pmic.SystemPwrOff(t); err != nil {
		log.Errorf("PMIC system power off (%v): %v", t, err)
	}
	if c.f.LPMCharging && c.poweroffCharging {
		log.Infof("LPM charging restart, panic %v, reset type %v", c.inPanic, t)
	}

	switch {
	case r.Emergency:
		if err := c.dload.enableEmergency(); err != nil {
			log.Errorf("Unable to enable emergency download mode: %v", err)
		}
	case r.Write:
		c.reason.MustWrite32(0, r.Code)
	}

	if err := c.reason.Flush(); err != nil {
		log.Errorf("Flushing restart reason: %v", err)
	}
}

// Restart takes the SoC down for a restart with the given command. It only
// returns early with an error if a shutdown is already under way; past
// that point it returns only if the hardware failed to reset and the halt
// hook came back.
func (c *Controller) Restart(cmd Command) error {
	log.Infof("Going down for restart now")
	r := Encode(c.f, cmd)

	c.m.Lock()
	if err := c.begin(StateRestartRequested); err != nil {
		c.m.Unlock()
		return err
	}
	zlog.Info("Restart requested",
		logger.LogContainer.String("command", cmd.String()),
		logger.LogContainer.String("reason", r.Name),
		logger.LogContainer.Uint32("code", r.Code))
	c.prepare(r)
	c.m.Unlock()
	restartRequests.WithLabelValues(r.Name).Inc()

	// Needed to bypass debug image on some chips
	c.seq.wdog.DisableWdogDebug()
	return c.fail("restart", c.seq.dropPowerHold("Restarting"))
}

// PowerOff powers the SoC off. With lowerHoldLine false only the PMIC is
// configured and the caller is expected to finish the job.
func (c *Controller) PowerOff(lowerHoldLine bool) error {
	log.Errorf("Powering off the SoC")
	c.m.Lock()
	if err := c.begin(StatePowerOffRequested); err != nil {
		c.m.Unlock()
		return err
	}
	c.dload.set(false)
	c.m.Unlock()
	poweroffRequests.WithLabelValues().Inc()

	if err := c.pmic.ResetPwrOff(false); err != nil {
		log.Errorf("PMIC reset on power off: %v", err)
	}
	if err := c.pmic.SystemPwrOff(pmic.DvddShutdown); err != nil {
		log.Errorf("PMIC system power off: %v", err)
	}

	if !lowerHoldLine {
		c.m.Lock()
		c.state = StateHalted
		c.m.Unlock()
		return nil
	}
	return c.fail("poweroff", c.seq.dropPowerHold("Powering off"))
}

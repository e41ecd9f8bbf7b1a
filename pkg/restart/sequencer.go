// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package restart

import (
	"fmt"
	"time"

	"github.com/jmhodges/clock"
	"github.com/u-root/msm-restart/pkg/hardware/scm"
)

// DefaultFatalTimeout is how long we wait for the power to go after
// PS_HOLD has been lowered.
const DefaultFatalTimeout = 10 * time.Second

// sequencer owns the irreversible part of going down.
type sequencer struct {
	scm     scm.Caller
	wdog    WatchdogDebug
	hold    PowerHold
	clk     clock.Clock
	timeout time.Duration

	// arbiterDisable is probed once at init.
	arbiterDisable bool
}

// haltArbiter forces the SPMI PMIC arbiter to shut down so that no SPMI
// transaction is in flight when PS_HOLD drops. Some PMICs lock up
// otherwise.
func (s *sequencer) haltArbiter() {
	if !s.arbiterDisable {
		return
	}
	log.Errorf("Calling SCM to disable SPMI PMIC arbiter")
	if err := s.scm.CallAtomic1(scm.SVC_PWR, scm.IO_DISABLE_PMIC_ARBITER, 0); err != nil {
		log.Errorf("SCM arbiter disable failed: %v", err)
	}
}

// dropPowerHold halts the arbiter, lowers PS_HOLD and waits. Returning at
// all means the hardware ignored us.
func (s *sequencer) dropPowerHold(what string) error {
	s.haltArbiter()
	s.hold.LowerPsHold()
	s.clk.Sleep(s.timeout)
	return fmt.Errorf("%s has failed: %w", what, ErrHalted)
}

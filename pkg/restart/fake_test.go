// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package restart

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/u-root/msm-restart/pkg/hardware/imem"
	"github.com/u-root/msm-restart/pkg/hardware/mmio"
	"github.com/u-root/msm-restart/pkg/hardware/pmic"
	"github.com/u-root/msm-restart/pkg/hardware/scm"
)

const (
	reasonAddr    uintptr = 0xfe80565c
	dloadAddr     uintptr = 0xfe805000
	emergencyAddr uintptr = 0xfe805fe0
)

// recorder collects hardware side effects of every fake in one ordered log.
type recorder struct {
	m      sync.Mutex
	events []string
}

func (r *recorder) add(format string, a ...interface{}) {
	r.m.Lock()
	defer r.m.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, a...))
}

func (r *recorder) take() []string {
	r.m.Lock()
	defer r.m.Unlock()
	e := r.events
	r.events = nil
	return e
}

type fakePmic struct {
	r   *recorder
	err error
}

func (p *fakePmic) ResetPwrOff(reset bool) error {
	p.r.add("pmic reset_pwr_off %v", reset)
	return p.err
}

func (p *fakePmic) SystemPwrOff(t pmic.ResetType) error {
	p.r.add("pmic system_pwr_off %v", t)
	return p.err
}

func (p *fakePmic) WatchdogConfig(enable bool) error {
	p.r.add("pmic wd_config %v", enable)
	return p.err
}

type fakeScm struct {
	r         *recorder
	available bool
	probeErr  error
}

func (s *fakeScm) IsCallAvailable(svc, cmd uint32) (bool, error) {
	if svc != scm.SVC_PWR || cmd != scm.IO_DISABLE_PMIC_ARBITER {
		return false, errors.New("unexpected probe")
	}
	return s.available, s.probeErr
}

func (s *fakeScm) CallAtomic1(svc, cmd, arg uint32) error {
	s.r.add("scm call %#x %#x %#x", svc, cmd, arg)
	return nil
}

type fakeHold struct {
	r *recorder
}

func (h *fakeHold) LowerPsHold() {
	h.r.add("ps_hold low")
}

type fakeWdog struct {
	r *recorder
}

func (w *fakeWdog) DisableWdogDebug() {
	w.r.add("wdog_debug disable")
}

type rig struct {
	t     *testing.T
	r     *recorder
	fm    *mmio.Fake
	clk   clock.FakeClock
	scm   *fakeScm
	pmic  *fakePmic
	halts []error
	o     Options
}

func newRig(t *testing.T, f Features) *rig {
	rg := &rig{t: t, r: &recorder{}, fm: mmio.NewFake(), clk: clock.NewFake()}
	rg.fm.Trace = func(o mmio.Op) { rg.r.add("%v", o) }
	rg.scm = &fakeScm{r: rg.r, available: true}
	rg.pmic = &fakePmic{r: rg.r}
	rg.o = Options{
		Features:      f,
		Reason:        rg.region("restart_reason", reasonAddr, 4),
		Download:      rg.region("download_mode", dloadAddr, 8),
		Pmic:          rg.pmic,
		PowerHold:     &fakeHold{rg.r},
		SecureMonitor: rg.scm,
		WatchdogDebug: &fakeWdog{rg.r},
		DownloadMode:  1,
		Clock:         rg.clk,
		Halt:          func(err error) { rg.halts = append(rg.halts, err) },
	}
	rg.o.EmergencyDownload = rg.region("emergency_download_mode", emergencyAddr, 12)
	return rg
}

func (rg *rig) region(name string, base uintptr, size int) imem.Region {
	r, err := imem.Map(name, rg.fm, base, size)
	if err != nil {
		rg.t.Fatalf("imem.Map(%s): %v", name, err)
	}
	return r
}

// controller builds the Controller and drops whatever init wrote.
func (rg *rig) controller() *Controller {
	c, err := New(rg.o)
	if err != nil {
		rg.t.Fatalf("New: %v", err)
	}
	rg.r.take()
	return c
}

func write(a uintptr, d uint32) string {
	return mmio.Write32(a, d).String()
}

var (
	barrier = mmio.Barrier.String()
	sync_   = mmio.Sync.String()
)

func dloadOn() []string {
	return []string{write(dloadAddr, DloadMagic1), write(dloadAddr+4, DloadMagic2), barrier}
}

func dloadOff() []string {
	return []string{write(dloadAddr, 0), write(dloadAddr+4, 0), barrier}
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func (rg *rig) elapsed(start time.Time) time.Duration {
	return rg.clk.Since(start)
}

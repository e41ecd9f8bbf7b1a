// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package restart

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	pt "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetGetDownloadMode(t *testing.T) {
	rg := newRig(t, Features{DloadMode: true})
	c := rg.controller()

	c.SetDownloadMode(true)
	if !c.DownloadModeEnabled() {
		t.Errorf("expected download mode on")
	}
	if diff := cmp.Diff(dloadOn(), rg.r.take()); diff != "" {
		t.Errorf("on pattern mismatch (-want +got):\n%s", diff)
	}
	if w1, w2 := rg.fm.Peek32(dloadAddr), rg.fm.Peek32(dloadAddr+4); w1 != 0xE47B337D || w2 != 0xCE14091A {
		t.Errorf("on pattern is %#08x %#08x", w1, w2)
	}
	if v := pt.ToFloat64(dloadEnabled.WithLabelValues()); v != 1 {
		t.Errorf("gauge reads %v after arming", v)
	}

	c.SetDownloadMode(false)
	if c.DownloadModeEnabled() {
		t.Errorf("expected download mode off")
	}
	if diff := cmp.Diff(dloadOff(), rg.r.take()); diff != "" {
		t.Errorf("off pattern mismatch (-want +got):\n%s", diff)
	}
	if w1, w2 := rg.fm.Peek32(dloadAddr), rg.fm.Peek32(dloadAddr+4); w1 != 0 || w2 != 0 {
		t.Errorf("off pattern is %#08x %#08x", w1, w2)
	}
	if v := pt.ToFloat64(dloadEnabled.WithLabelValues()); v != 0 {
		t.Errorf("gauge reads %v after clearing", v)
	}
}

func TestGetDownloadModeIsShadow(t *testing.T) {
	rg := newRig(t, Features{DloadMode: true})
	c := rg.controller()
	rg.fm.Poke32(dloadAddr, 0)
	if !c.DownloadModeEnabled() {
		t.Errorf("expected the shadow value, not a hardware read")
	}
	if events := rg.r.take(); len(events) != 0 {
		t.Errorf("getMode touched hardware: %v", events)
	}
}

func TestDownloadModeUnmapped(t *testing.T) {
	rg := newRig(t, Features{DloadMode: true})
	rg.o.Download = nil
	c := rg.controller()
	c.SetDownloadMode(true)
	if c.DownloadModeEnabled() {
		t.Errorf("latch without a region must stay off")
	}
	if events := rg.r.take(); len(events) != 0 {
		t.Errorf("unexpected hardware access: %v", events)
	}
}

func TestDownloadModeFeatureOff(t *testing.T) {
	rg := newRig(t, Features{})
	c := rg.controller()
	c.SetDownloadMode(true)
	if c.DownloadModeEnabled() {
		t.Errorf("latch must read false without the feature")
	}
	if err := c.SetDownloadModeSwitch(1); !errors.Is(err, ErrDownloadModeUnsupported) {
		t.Errorf("expected ErrDownloadModeUnsupported, got %v", err)
	}
	if events := rg.r.take(); len(events) != 0 {
		t.Errorf("unexpected hardware access: %v", events)
	}
}

func TestDownloadModeSwitch(t *testing.T) {
	rg := newRig(t, Features{DloadMode: true})
	c := rg.controller()

	for _, v := range []int{2, 3, -1, 1 << 8} {
		if err := c.SetDownloadModeSwitch(v); !errors.Is(err, ErrInvalidDownloadMode) {
			t.Errorf("%d: expected ErrInvalidDownloadMode, got %v", v, err)
		}
	}
	if v := c.DownloadModeSwitch(); v != 1 {
		t.Errorf("rejected update changed the switch to %d", v)
	}
	if !c.DownloadModeEnabled() {
		t.Errorf("rejected update changed the latch")
	}
	if events := rg.r.take(); len(events) != 0 {
		t.Errorf("rejected update touched hardware: %v", events)
	}

	if err := c.SetDownloadModeSwitch(0); err != nil {
		t.Fatalf("SetDownloadModeSwitch(0): %v", err)
	}
	if diff := cmp.Diff(dloadOff(), rg.r.take()); diff != "" {
		t.Errorf("switch off mismatch (-want +got):\n%s", diff)
	}
	if c.DownloadModeEnabled() || c.DownloadModeSwitch() != 0 {
		t.Errorf("switch off did not propagate")
	}

	if err := c.SetDownloadModeSwitch(1); err != nil {
		t.Fatalf("SetDownloadModeSwitch(1): %v", err)
	}
	if diff := cmp.Diff(dloadOn(), rg.r.take()); diff != "" {
		t.Errorf("switch on mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDownloadMode(t *testing.T) {
	for in, want := range map[string]int{"0": 0, "1": 1, "1\n": 1, "0x1": 1} {
		got, err := ParseDownloadMode(in)
		if err != nil || got != want {
			t.Errorf("ParseDownloadMode(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"", "2", "-1", "yes", "1 "} {
		if _, err := ParseDownloadMode(in); !errors.Is(err, ErrInvalidDownloadMode) {
			t.Errorf("ParseDownloadMode(%q): expected ErrInvalidDownloadMode, got %v", in, err)
		}
	}
}

func TestGaugeFollowsLastWriter(t *testing.T) {
	a := newRig(t, Features{DloadMode: true}).controller()
	b := newRig(t, Features{DloadMode: true}).controller()
	a.SetDownloadMode(true)
	b.SetDownloadMode(false)
	if v := pt.ToFloat64(dloadEnabled.WithLabelValues()); v != 0 {
		t.Errorf("gauge reads %v, want the last write", v)
	}
	a.SetDownloadMode(true)
	if v := pt.ToFloat64(dloadEnabled.WithLabelValues()); v != 1 {
		t.Errorf("gauge reads %v, want the last write", v)
	}
}

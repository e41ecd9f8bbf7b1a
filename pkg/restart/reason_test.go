// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package restart

import (
	"testing"
)

var allFeatures = Features{
	DloadMode:             true,
	SecDebug:              true,
	PeripheralSecureCheck: true,
	SSRDebugLevel:         true,
	DualModemSwitch:       true,
}

func TestEncodeTable(t *testing.T) {
	for _, tc := range []struct {
		cmd  string
		code uint32
	}{
		{"bootloader", 0x77665500},
		{"bootloader-now", 0x77665500},
		{"recovery", 0x77665502},
		{"recovery:wipe", 0x77665502},
		{"rtc", 0x77665503},
		{"oem-1a", 0x6f656d1a},
		{"oem-0x1a", 0x6f656d1a},
		{"oem-1234", 0x6f656d34},
		{"oem-zz", 0x6f656d00},
		{"oem-", 0x6f656d00},
		{"oem-7g", 0x6f656d07},
		{"sec_debug_hw_reset", 0x776655ee},
		{"download", 0x12345671},
		{"downloadx", 0x12345671},
		{"sud5", 0xabcf0005},
		{"sud0", 0xabcf0000},
		{"sud9xyz", 0xabcf0009},
		{"sud", 0xabcf0000},
		{"sudx", 0xabcf0000},
		{"sudA", 0xabcf0000},
		{"debug255", 0xabcd00ff},
		{"debug0x1234", 0xabcd1234},
		{"debug010", 0xabcd0008},
		{"debug+7", 0xabcd0007},
		{"debug7\n", 0xabcd0007},
		{"debug0x12345", 0xabcd2345},
		{"cpdebug3", 0xfedc0003},
		{"swsel1", 0xabce0001},
		{"", 0x12345678},
		{"peripheral_hw_reset", 0x77665507},
		{"reboot-please", 0x77665501},
		{"rtc2", 0x77665501},
		{"debug", 0x77665501},
		{"debugfoo", 0x77665501},
		{"debug12x", 0x77665501},
		{"debug-1", 0x77665501},
		{"debug08", 0x77665501},
		{"debug4294967296", 0x77665501},
		{"Bootloader", 0x77665501},
	} {
		r := Encode(allFeatures, Cmd(tc.cmd))
		if !r.Write || r.Emergency {
			t.Errorf("%q: expected a reason code write, got %+v", tc.cmd, r)
			continue
		}
		if r.Code != tc.code {
			t.Errorf("%q: expected %#08x, got %#08x", tc.cmd, tc.code, r.Code)
		}
	}
}

func TestEncodeEmergency(t *testing.T) {
	for _, cmd := range []string{"edl", "edl-now"} {
		r := Encode(Features{}, Cmd(cmd))
		if !r.Emergency || r.Write {
			t.Errorf("%q: expected emergency download mode and no write, got %+v", cmd, r)
		}
	}
}

func TestEncodeFeatureGates(t *testing.T) {
	for _, cmd := range []string{"sec_debug_hw_reset", "cpdebug3", "swsel1", "peripheral_hw_reset"} {
		r := Encode(Features{}, Cmd(cmd))
		if r.Code != ReasonUnknown {
			t.Errorf("%q without its feature: expected %#08x, got %#08x", cmd, ReasonUnknown, r.Code)
		}
	}
}

func TestEncodeNoCommand(t *testing.T) {
	r := Encode(Features{SecDebug: true}, NoCmd)
	if !r.Write || r.Code != 0x12345678 {
		t.Errorf("debug build: expected 0x12345678, got %+v", r)
	}
	r = Encode(Features{}, NoCmd)
	if r.Write || r.Emergency {
		t.Errorf("release build: expected no write, got %+v", r)
	}
}

func TestCommandString(t *testing.T) {
	if s := NoCmd.String(); s != "<none>" {
		t.Errorf("got %q", s)
	}
	if s := Cmd("").String(); s != `""` {
		t.Errorf("got %q", s)
	}
}

func TestParseHexPrefix(t *testing.T) {
	for in, want := range map[string]uint64{
		"":      0,
		"1a":    0x1a,
		"0x1A":  0x1a,
		"0xg":   0,
		"ff:00": 0xff,
	} {
		if got := parseHexPrefix(in); got != want {
			t.Errorf("parseHexPrefix(%q) = %#x, want %#x", in, got, want)
		}
	}
}

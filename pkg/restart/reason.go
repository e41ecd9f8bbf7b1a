// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package restart

import (
	"math"
	"strconv"
	"strings"
)

// Restart reason codes, read back by the bootloader.
const (
	ReasonBootloader        uint32 = 0x77665500
	ReasonUnknown           uint32 = 0x77665501
	ReasonRecovery          uint32 = 0x77665502
	ReasonRTC               uint32 = 0x77665503
	ReasonPeripheralHWReset uint32 = 0x77665507
	ReasonSecDebugHWReset   uint32 = 0x776655ee
	ReasonOEM               uint32 = 0x6f656d00
	ReasonDownload          uint32 = 0x12345671
	ReasonNormal            uint32 = 0x12345678
	ReasonSUD               uint32 = 0xabcf0000
	ReasonDebug             uint32 = 0xabcd0000
	ReasonSwitchSel         uint32 = 0xabce0000
	ReasonCPDebug           uint32 = 0xfedc0000
)

// Command is the optional argument of a restart request.
type Command struct {
	arg   string
	given bool
}

// NoCmd is a restart without any argument.
var NoCmd = Command{}

// Cmd is a restart with argument arg, possibly empty.
func Cmd(arg string) Command {
	return Command{arg: arg, given: true}
}

func (c Command) Arg() (string, bool) {
	return c.arg, c.given
}

func (c Command) String() string {
	if !c.given {
		return "<none>"
	}
	return strconv.Quote(c.arg)
}

// Reason is what a command turns into.
type Reason struct {
	// Name labels the matched rule in logs and metrics.
	Name string
	Code uint32
	// Write is false when the reason cell must be left alone.
	Write bool
	// Emergency requests emergency download mode instead of a reason code.
	Emergency bool
}

type reasonRule struct {
	name      string
	gate      func(Features) bool
	emergency bool
	match     func(cmd string) (uint32, bool)
}

func prefix(p string, code uint32) func(string) (uint32, bool) {
	return func(cmd string) (uint32, bool) {
		return code, strings.HasPrefix(cmd, p)
	}
}

func exact(s string, code uint32) func(string) (uint32, bool) {
	return func(cmd string) (uint32, bool) {
		return code, cmd == s
	}
}

// numbered matches p followed by an integer that parses in full; the low
// 16 bits of the integer go into the code.
func numbered(p string, code uint32) func(string) (uint32, bool) {
	return func(cmd string) (uint32, bool) {
		if !strings.HasPrefix(cmd, p) {
			return 0, false
		}
		v, ok := parseUlong(cmd[len(p):])
		if !ok {
			return 0, false
		}
		return code | v&0xffff, true
	}
}

func oem(cmd string) (uint32, bool) {
	if !strings.HasPrefix(cmd, "oem-") {
		return 0, false
	}
	return ReasonOEM | uint32(parseHexPrefix(cmd[4:])&0xff), true
}

// sud carries a single decimal digit right after the prefix. Nothing at
// all counts as 0. A non digit also counts as 0 rather than leaking
// cmd[3]-'0' into the code ("sudA" would otherwise give 0xabcf0011).
func sud(cmd string) (uint32, bool) {
	if !strings.HasPrefix(cmd, "sud") {
		return 0, false
	}
	d := uint32(0)
	if len(cmd) > 3 && cmd[3] >= '0' && cmd[3] <= '9' {
		d = uint32(cmd[3] - '0')
	}
	return ReasonSUD | d, true
}

func secDebug(f Features) bool        { return f.SecDebug }
func ssrDebugLevel(f Features) bool   { return f.SSRDebugLevel }
func dualModemSwitch(f Features) bool { return f.DualModemSwitch }
func peripheralCheck(f Features) bool { return f.PeripheralSecureCheck }

// First match wins.
var reasonRules = []reasonRule{
	{name: "bootloader", match: prefix("bootloader", ReasonBootloader)},
	{name: "recovery", match: prefix("recovery", ReasonRecovery)},
	{name: "rtc", match: exact("rtc", ReasonRTC)},
	{name: "oem", match: oem},
	{name: "sec_debug_hw_reset", gate: secDebug, match: prefix("sec_debug_hw_reset", ReasonSecDebugHWReset)},
	{name: "download", match: prefix("download", ReasonDownload)},
	{name: "sud", match: sud},
	{name: "edl", emergency: true, match: prefix("edl", 0)},
	{name: "debug", match: numbered("debug", ReasonDebug)},
	{name: "cpdebug", gate: ssrDebugLevel, match: numbered("cpdebug", ReasonCPDebug)},
	{name: "swsel", gate: dualModemSwitch, match: numbered("swsel", ReasonSwitchSel)},
	{name: "normal", match: exact("", ReasonNormal)},
	{name: "peripheral_hw_reset", gate: peripheralCheck, match: prefix("peripheral_hw_reset", ReasonPeripheralHWReset)},
}

// Encode maps a restart command to the reason left for the bootloader.
func Encode(f Features, c Command) Reason {
	cmd, given := c.Arg()
	if !given {
		if f.SecDebug {
			return Reason{Name: "normal", Code: ReasonNormal, Write: true}
		}
		return Reason{Name: "none"}
	}
	for _, r := range reasonRules {
		if r.gate != nil && !r.gate(f) {
			continue
		}
		code, ok := r.match(cmd)
		if !ok {
			continue
		}
		if r.emergency {
			return Reason{Name: r.name, Emergency: true}
		}
		return Reason{Name: r.name, Code: code, Write: true}
	}
	return Reason{Name: "unknown", Code: ReasonUnknown, Write: true}
}

func digitValue(c byte) (uint64, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint64(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint64(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint64(c-'A') + 10, true
	}
	return 0, false
}

func hasHexPrefix(s string) bool {
	if len(s) < 3 || s[0] != '0' || s[1]|0x20 != 'x' {
		return false
	}
	_, ok := digitValue(s[2])
	return ok
}

// parseHexPrefix reads hex digits up to the first non-hex character, with
// an optional 0x. No digits reads as 0.
func parseHexPrefix(s string) uint64 {
	if hasHexPrefix(s) {
		s = s[2:]
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		d, ok := digitValue(s[i])
		if !ok {
			break
		}
		v = v<<4 | d
	}
	return v
}

// parseUlong parses a whole string as a 32-bit unsigned integer: 0x for
// hex, a leading 0 for octal, decimal otherwise. A leading + and a single
// trailing newline are accepted, nothing else is.
func parseUlong(s string) (uint32, bool) {
	s = strings.TrimPrefix(s, "+")
	base := uint64(10)
	switch {
	case hasHexPrefix(s):
		base = 16
		s = s[2:]
	case strings.HasPrefix(s, "0"):
		base = 8
	}
	var v uint64
	n := 0
	for ; n < len(s); n++ {
		d, ok := digitValue(s[n])
		if !ok || d >= base {
			break
		}
		v = v*base + d
		if v > math.MaxUint32 {
			return 0, false
		}
	}
	if n == 0 {
		return 0, false
	}
	if rest := s[n:]; rest != "" && rest != "\n" {
		return 0, false
	}
	return uint32(v), true
}

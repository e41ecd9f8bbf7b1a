// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

// Package hostreboot hands a restart or power off to the running kernel.
// It is the fallback when the persistent restart reason cell is not
// available to us.
package hostreboot

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Restart reboots through the kernel, passing cmd on to its restart
// handlers. An empty cmd is a plain restart.
func Restart(cmd string) error {
	unix.Sync()
	if cmd == "" {
		return unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART)
	}
	p, err := unix.BytePtrFromString(cmd)
	if err != nil {
		return err
	}
	_, _, e := unix.Syscall6(unix.SYS_REBOOT,
		uintptr(unix.LINUX_REBOOT_MAGIC1),
		uintptr(unix.LINUX_REBOOT_MAGIC2),
		uintptr(unix.LINUX_REBOOT_CMD_RESTART2),
		uintptr(unsafe.Pointer(p)), 0, 0)
	if e != 0 {
		return e
	}
	return nil
}

// PowerOff powers the machine off through the kernel.
func PowerOff() error {
	unix.Sync()
	return unix.Reboot(unix.LINUX_REBOOT_CMD_POWER_OFF)
}

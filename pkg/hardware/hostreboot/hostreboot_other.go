// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package hostreboot

import (
	"errors"
)

var errUnsupported = errors.New("host reboot is only supported on linux")

func Restart(string) error {
	return errUnsupported
}

func PowerOff() error {
	return errUnsupported
}

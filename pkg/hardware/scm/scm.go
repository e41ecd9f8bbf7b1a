// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scm names the secure monitor calls the shutdown path uses.
// The transport itself lives in the platform's secure world driver.
package scm

import (
	"errors"
)

const (
	SVC_PWR uint32 = 0x9

	// IO_DISABLE_PMIC_ARBITER stops the SPMI PMIC arbiter from issuing any
	// further bus transactions.
	IO_DISABLE_PMIC_ARBITER uint32 = 0x1
)

var ErrUnsupported = errors.New("secure monitor call not supported")

// Caller issues secure monitor calls.
type Caller interface {
	// IsCallAvailable asks the secure monitor whether (svc, cmd) exists.
	IsCallAvailable(svc, cmd uint32) (bool, error)
	// CallAtomic1 issues a one argument call that must not sleep.
	CallAtomic1(svc, cmd, arg uint32) error
}

// Unavailable is a Caller for platforms without a secure monitor transport.
type Unavailable struct{}

func (Unavailable) IsCallAvailable(uint32, uint32) (bool, error) {
	return false, nil
}

func (Unavailable) CallAtomic1(uint32, uint32, uint32) error {
	return ErrUnsupported
}

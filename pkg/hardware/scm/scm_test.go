// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scm

import (
	"errors"
	"testing"
)

func TestUnavailable(t *testing.T) {
	var c Caller = Unavailable{}
	ok, err := c.IsCallAvailable(SVC_PWR, IO_DISABLE_PMIC_ARBITER)
	if ok || err != nil {
		t.Errorf("IsCallAvailable = %v, %v", ok, err)
	}
	if err := c.CallAtomic1(SVC_PWR, IO_DISABLE_PMIC_ARBITER, 0); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

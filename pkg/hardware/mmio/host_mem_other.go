// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package mmio

import (
	"errors"
)

func Open() (Provider, error) {
	return nil, errors.New("physical memory access is only supported on linux")
}

func OpenFile(string) (Provider, error) {
	return Open()
}

// Copyright 2021 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msm

import (
	"github.com/u-root/msm-restart/pkg/logger"
)

var log = logger.LogContainer.GetSimpleLogger()

// Copyright 2021 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package restart

import (
	"github.com/u-root/msm-restart/pkg/metric"
)

var (
	restartRequests = metric.Counter(metric.MetricOpts{
		Namespace: "msmrestart",
		Subsystem: "restart",
		Name:      "requests_total",
		Help:      "Restart requests by matched reason.",
	}, "reason")
	poweroffRequests = metric.Counter(metric.MetricOpts{
		Namespace: "msmrestart",
		Subsystem: "poweroff",
		Name:      "requests_total",
		Help:      "Power off requests.",
	})
	failures = metric.Counter(metric.MetricOpts{
		Namespace: "msmrestart",
		Subsystem: "restart",
		Name:      "failures_total",
		Help:      "Times the hardware stayed up after PS_HOLD was lowered.",
	}, "path")
	panics = metric.Counter(metric.MetricOpts{
		Namespace: "msmrestart",
		Name:      "panics_total",
		Help:      "Panic notifications received.",
	})
	// One latch per SoC: whichever controller wrote the cell last owns the
	// value, same as the cell itself.
	dloadEnabled = metric.Gauge(metric.MetricOpts{
		Namespace: "msmrestart",
		Name:      "dload_mode_enabled",
		Help:      "Last value written to the download mode latch.",
	})
)

// Copyright 2021 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metric

import (
	"net/http/httptest"
	"strings"
	"testing"

	pt "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOptsToString(t *testing.T) {
	for _, tc := range []struct {
		opts MetricOpts
		want string
	}{
		{MetricOpts{Namespace: "msmrestart", Subsystem: "restart", Name: "requests_total"}, "msmrestart_restart_requests_total"},
		{MetricOpts{Namespace: "msmrestart", Name: "panics_total"}, "msmrestart_panics_total"},
		{MetricOpts{Subsystem: "restart", Name: "x"}, "restart_x"},
		{MetricOpts{Name: "x"}, "x"},
		{MetricOpts{Namespace: "msmrestart"}, ""},
	} {
		if got := optsToString(tc.opts); got != tc.want {
			t.Errorf("optsToString(%+v) = %q, want %q", tc.opts, got, tc.want)
		}
	}
}

func TestCounterIsShared(t *testing.T) {
	opts := MetricOpts{Namespace: "test", Name: "shared_total"}
	a := Counter(opts, "reason")
	b := Counter(opts, "reason")
	a.WithLabelValues("rtc").Inc()
	b.WithLabelValues("rtc").Inc()
	if v := pt.ToFloat64(a.WithLabelValues("rtc")); v != 2 {
		t.Errorf("expected both handles to hit one counter, got %v", v)
	}
}

func TestHandler(t *testing.T) {
	Gauge(MetricOpts{Namespace: "test", Name: "gauge"}).WithLabelValues().Set(1)
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "test_gauge 1") {
		t.Errorf("gauge missing from exposition:\n%s", rr.Body.String())
	}
}

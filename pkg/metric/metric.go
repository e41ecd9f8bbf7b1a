// Copyright 2021 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metric

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricOpts contains naming pieces of the exposed metric
type MetricOpts struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
}

var (
	// Registry holds every collector created through this package
	Registry = prometheus.NewRegistry()

	m          sync.Mutex
	collectors = map[string]prometheus.Collector{}
)

// Handler serves Registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// StartMetrics adds the metrics handler to a http.ServeMux
func StartMetrics(mux *http.ServeMux) {
	mux.Handle("/metrics", Handler())
}

func getOrCreate(opts MetricOpts, create func() prometheus.Collector) prometheus.Collector {
	m.Lock()
	defer m.Unlock()
	name := optsToString(opts)
	if c, ok := collectors[name]; ok {
		return c
	}
	c := create()
	Registry.MustRegister(c)
	collectors[name] = c
	return c
}

// Counter creates and returns a prometheus.CounterVec
func Counter(opts MetricOpts, labels ...string) *prometheus.CounterVec {
	return getOrCreate(opts, func() prometheus.Collector {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Subsystem: opts.Subsystem,
			Name:      opts.Name,
			Help:      help(opts),
		}, labels)
	}).(*prometheus.CounterVec)
}

// Gauge creates and returns a prometheus.GaugeVec
func Gauge(opts MetricOpts, labels ...string) *prometheus.GaugeVec {
	return getOrCreate(opts, func() prometheus.Collector {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: opts.Namespace,
			Subsystem: opts.Subsystem,
			Name:      opts.Name,
			Help:      help(opts),
		}, labels)
	}).(*prometheus.GaugeVec)
}

func help(opts MetricOpts) string {
	if opts.Help != "" {
		return opts.Help
	}
	return optsToString(opts)
}

func optsToString(opts MetricOpts) string {
	if opts.Name == "" {
		return ""
	}
	switch {
	case opts.Namespace != "" && opts.Subsystem != "":
		return strings.Join([]string{opts.Namespace, opts.Subsystem, opts.Name}, "_")
	case opts.Namespace != "":
		return strings.Join([]string{opts.Namespace, opts.Name}, "_")
	case opts.Subsystem != "":
		return strings.Join([]string{opts.Subsystem, opts.Name}, "_")
	}
	return opts.Name
}

/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package stats

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// PrometheusExporter exposes counters as Prometheus gauges
type PrometheusExporter struct {
	stats *Stats
	mux   sync.Mutex
	desc  map[string]*prometheus.Desc
}

// NewPrometheusExporter creates a new instance of PrometheusExporter
func NewPrometheusExporter(s *Stats) *PrometheusExporter {
	return &PrometheusExporter{stats: s, desc: map[string]*prometheus.Desc{}}
}

// Describe implements prometheus.Collector. Counters come and go with timers, so nothing is described upfront.
func (e *PrometheusExporter) Describe(_ chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector
func (e *PrometheusExporter) Collect(ch chan<- prometheus.Metric) {
	for key, val := range e.stats.Get() {
		m, err := prometheus.NewConstMetric(e.describe(key), prometheus.GaugeValue, float64(val))
		if err != nil {
			log.Errorf("failed to export metric %s: %v", key, err)
			continue
		}
		ch <- m
	}
}

func (e *PrometheusExporter) describe(key string) *prometheus.Desc {
	e.mux.Lock()
	defer e.mux.Unlock()
	d, ok := e.desc[key]
	if !ok {
		d = prometheus.NewDesc(flattenKey(key), key, nil, nil)
		e.desc[key] = d
	}
	return d
}

// Registry returns a registry with the exporter registered
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(e)
	return registry
}

// Handle registers the /metrics handler on the mux
func (e *PrometheusExporter) Handle(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(
		e.Registry(),
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		},
	))
}

func flattenKey(key string) string {
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, "=", "_")
	key = strings.ReplaceAll(key, "/", "_")
	return key
}

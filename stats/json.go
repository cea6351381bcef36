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
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// JSONStats serves counters as JSON via http
type JSONStats struct {
	*Stats
}

// NewJSONStats returns a new JSONStats
func NewJSONStats(s *Stats) *JSONStats {
	return &JSONStats{Stats: s}
}

// Handle registers the JSON handler on the mux
func (s *JSONStats) Handle(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handleRequest)
}

// Start runs http server with JSON and Prometheus endpoints
func Start(monitoringport int, s *Stats) error {
	mux := http.NewServeMux()
	NewJSONStats(s).Handle(mux)
	NewPrometheusExporter(s).Handle(mux)
	addr := fmt.Sprintf(":%d", monitoringport)
	log.Infof("Starting http monitoring server on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// handleRequest is a handler used for all http monitoring requests
func (s *JSONStats) handleRequest(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(s.Get())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}

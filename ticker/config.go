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

package ticker

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/facebook/hrtimer/clock"
	"github.com/facebook/hrtimer/hrtimer"
)

// Defaults
const (
	DefaultMonitoringPort = 21040
	DefaultStatsInterval  = 10 * time.Second
	DefaultPriority       = 50
)

// TimerConfig describes one timer to run
type TimerConfig struct {
	Name     string        // used in logs and stats keys, must be unique
	Clock    string        // clock source, i.e. "monotonic"
	Priority int           // delivery thread priority, clamped to SCHED_FIFO range
	Interval time.Duration // 0 means one-shot
	Start    time.Duration // first firing, offset or point on the clock depending on Mode
	Mode     string        // "relative" or "absolute"
	Queue    bool          // deliver through a queue drained by a consumer instead of a subscriber

	source clock.Source
	mode   hrtimer.Mode
}

// Config represents configuration we expect to read from file
type Config struct {
	Timers         []TimerConfig
	MonitoringPort int           // port to serve JSON and Prometheus stats on, 0 disables it
	StatsInterval  time.Duration // how often process stats are collected
	Duration       time.Duration // stop after this long, 0 means run until interrupted
}

// DefaultConfig returns Config with defaults set
func DefaultConfig() *Config {
	return &Config{
		MonitoringPort: DefaultMonitoringPort,
		StatsInterval:  DefaultStatsInterval,
	}
}

// EvalAndValidate makes sure config is valid and parses clock and mode names for further use.
func (c *Config) EvalAndValidate() error {
	if len(c.Timers) == 0 {
		return fmt.Errorf("bad config: 'timers' must not be empty")
	}
	if c.StatsInterval <= 0 {
		return fmt.Errorf("bad config: 'statsinterval' must be positive")
	}
	if c.Duration < 0 {
		return fmt.Errorf("bad config: 'duration' must not be negative")
	}
	names := map[string]bool{}
	for i := range c.Timers {
		tc := &c.Timers[i]
		if tc.Name == "" {
			return fmt.Errorf("bad config: timer %d: 'name' must be specified", i)
		}
		if names[tc.Name] {
			return fmt.Errorf("bad config: timer %q: duplicate name", tc.Name)
		}
		names[tc.Name] = true
		if err := tc.evalAndValidate(); err != nil {
			return fmt.Errorf("bad config: timer %q: %w", tc.Name, err)
		}
	}
	return nil
}

func (tc *TimerConfig) evalAndValidate() error {
	var err error
	if tc.Clock == "" {
		tc.Clock = clock.Monotonic.String()
	}
	if tc.source, err = clock.ParseSource(tc.Clock); err != nil {
		return err
	}
	if tc.Mode == "" {
		tc.Mode = hrtimer.Relative.String()
	}
	if tc.mode, err = hrtimer.ParseMode(tc.Mode); err != nil {
		return err
	}
	if tc.Interval < 0 {
		return fmt.Errorf("'interval' must not be negative")
	}
	if tc.Start < 0 {
		return fmt.Errorf("'start' must not be negative")
	}
	if tc.Start == 0 {
		return fmt.Errorf("'start' must be positive, zero start never fires")
	}
	return nil
}

// ReadConfig reads config and unmarshals it from yaml into Config
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := DefaultConfig()
	err = yaml.UnmarshalStrict(data, c)
	return c, err
}

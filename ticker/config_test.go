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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facebook/hrtimer/clock"
	"github.com/facebook/hrtimer/hrtimer"
)

func TestEvalAndValidate(t *testing.T) {
	c := &Config{}
	require.Equal(t, fmt.Errorf("bad config: 'timers' must not be empty"), c.EvalAndValidate())

	c.Timers = []TimerConfig{{}}
	require.Equal(t, fmt.Errorf("bad config: 'statsinterval' must be positive"), c.EvalAndValidate())

	c.StatsInterval = time.Second
	c.Duration = -time.Second
	require.Equal(t, fmt.Errorf("bad config: 'duration' must not be negative"), c.EvalAndValidate())

	c.Duration = 0
	require.Equal(t, fmt.Errorf("bad config: timer 0: 'name' must be specified"), c.EvalAndValidate())

	c.Timers[0].Name = "fast"
	c.Timers[0].Clock = "sundial"
	require.EqualError(t, c.EvalAndValidate(), `bad config: timer "fast": unknown clock source "sundial"`)

	c.Timers[0].Clock = "boottime"
	c.Timers[0].Mode = "sideways"
	require.EqualError(t, c.EvalAndValidate(), `bad config: timer "fast": unknown arming mode "sideways"`)

	c.Timers[0].Mode = "absolute"
	c.Timers[0].Interval = -time.Millisecond
	require.EqualError(t, c.EvalAndValidate(), `bad config: timer "fast": 'interval' must not be negative`)

	c.Timers[0].Interval = time.Millisecond
	require.EqualError(t, c.EvalAndValidate(), `bad config: timer "fast": 'start' must be positive, zero start never fires`)

	c.Timers[0].Start = -time.Millisecond
	require.EqualError(t, c.EvalAndValidate(), `bad config: timer "fast": 'start' must not be negative`)

	c.Timers[0].Start = time.Millisecond
	require.NoError(t, c.EvalAndValidate())
	require.Equal(t, clock.Boottime, c.Timers[0].source)
	require.Equal(t, hrtimer.Absolute, c.Timers[0].mode)

	c.Timers = append(c.Timers, TimerConfig{Name: "fast", Start: time.Second})
	require.EqualError(t, c.EvalAndValidate(), `bad config: timer "fast": duplicate name`)
}

func TestEvalAndValidateDefaults(t *testing.T) {
	c := DefaultConfig()
	c.Timers = []TimerConfig{{Name: "a", Start: time.Second}}
	require.NoError(t, c.EvalAndValidate())
	require.Equal(t, "monotonic", c.Timers[0].Clock)
	require.Equal(t, clock.Monotonic, c.Timers[0].source)
	require.Equal(t, "relative", c.Timers[0].Mode)
	require.Equal(t, hrtimer.Relative, c.Timers[0].mode)
}

func TestReadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticker.yaml")
	data := `
monitoringport: 8080
duration: 1m
timers:
  - name: fast
    clock: CLOCK_MONOTONIC
    priority: 60
    interval: 10ms
    start: 1s
    queue: true
  - name: once
    clock: realtime
    start: 500ms
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	c, err := ReadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 8080, c.MonitoringPort)
	require.Equal(t, DefaultStatsInterval, c.StatsInterval)
	require.Equal(t, time.Minute, c.Duration)
	require.Len(t, c.Timers, 2)
	require.Equal(t, TimerConfig{
		Name:     "fast",
		Clock:    "CLOCK_MONOTONIC",
		Priority: 60,
		Interval: 10 * time.Millisecond,
		Start:    time.Second,
		Queue:    true,
	}, c.Timers[0])
	require.NoError(t, c.EvalAndValidate())
	require.Equal(t, clock.Realtime, c.Timers[1].source)
}

func TestReadConfigStrict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timerz: []\n"), 0644))
	_, err := ReadConfig(path)
	require.Error(t, err)

	_, err = ReadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

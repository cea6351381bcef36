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
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facebook/hrtimer/hrtimer"
	"github.com/facebook/hrtimer/stats"
)

// memLogger keeps samples in memory
type memLogger struct {
	sync.Mutex
	samples []LogSample
}

func (l *memLogger) Log(s *LogSample) error {
	l.Lock()
	l.samples = append(l.samples, *s)
	l.Unlock()
	return nil
}

func (l *memLogger) count(timer string) int {
	l.Lock()
	defer l.Unlock()
	n := 0
	for _, s := range l.samples {
		if s.Timer == timer {
			n++
		}
	}
	return n
}

func TestFirstFiring(t *testing.T) {
	now := time.Now()
	tc := &TimerConfig{Start: time.Second, mode: hrtimer.Relative}
	first, err := firstFiring(tc, now)
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Second), first)
}

func TestRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Duration = 300 * time.Millisecond
	cfg.StatsInterval = 50 * time.Millisecond
	cfg.Timers = []TimerConfig{
		{Name: "registry", Priority: 1, Interval: 20 * time.Millisecond, Start: 20 * time.Millisecond},
		{Name: "queue", Priority: 1, Interval: 20 * time.Millisecond, Start: 20 * time.Millisecond, Queue: true},
		{Name: "once", Priority: 1, Start: 10 * time.Millisecond},
	}
	require.NoError(t, cfg.EvalAndValidate())

	s := stats.NewStats()
	l := &memLogger{}
	tk := New(cfg, s, l)
	require.NoError(t, tk.Run(context.Background()))
	require.Empty(t, tk.timers)

	require.Equal(t, 1, l.count("once"))
	require.Greater(t, l.count("registry"), 5)
	require.Greater(t, l.count("queue"), 5)

	counters := s.Get()
	require.Equal(t, int64(3), counters["ticker.timers"])
	require.Equal(t, int64(1), counters["hrtimer.once.firings"])
	require.Greater(t, counters["hrtimer.registry.firings"], int64(5))
	require.Greater(t, counters["process.num_threads"], int64(3))
	require.Contains(t, counters, "hrtimer.queue.jitter_mean_ns")
}

func TestRunCreateFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timers = []TimerConfig{
		{Name: "ok", Start: time.Hour},
		{Name: "cpu", Clock: "process_cputime", Start: time.Second},
	}
	require.NoError(t, cfg.EvalAndValidate())
	tk := New(cfg, stats.NewStats(), &memLogger{})
	err := tk.Run(context.Background())
	require.ErrorContains(t, err, `timer "cpu"`)
	require.Empty(t, tk.timers)
}

func TestRunCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timers = []TimerConfig{{Name: "q", Interval: time.Hour, Start: time.Hour, Queue: true}}
	require.NoError(t, cfg.EvalAndValidate())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- New(cfg, stats.NewStats(), &memLogger{}).Run(ctx)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

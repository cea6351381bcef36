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

/*
Package ticker runs a set of timers described by a config, and reports how
well their firings are delivered: overruns and jitter, as logs and stats.
*/
package ticker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/shirou/gopsutil/process"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/facebook/hrtimer/clock"
	"github.com/facebook/hrtimer/hrtimer"
	"github.com/facebook/hrtimer/stats"
)

// Ticker runs timers from the config
type Ticker struct {
	cfg    *Config
	stats  *stats.Stats
	logger Logger

	timers []*running
}

// running is a created timer and what we know about its firings
type running struct {
	sync.Mutex
	cfg    *TimerConfig
	timer  *hrtimer.Timer
	jitter *jitter
}

// New returns a Ticker
func New(cfg *Config, s *stats.Stats, l Logger) *Ticker {
	return &Ticker{
		cfg:    cfg,
		stats:  s,
		logger: l,
	}
}

// Run creates and arms all timers and reports their firings until ctx is done
// or the configured duration passes. All timers are closed on return.
func (t *Ticker) Run(ctx context.Context) error {
	if t.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Duration)
		defer cancel()
	}
	defer t.closeAll()

	for i := range t.cfg.Timers {
		if err := t.create(&t.cfg.Timers[i]); err != nil {
			return err
		}
	}
	for _, r := range t.timers {
		if err := r.arm(); err != nil {
			return err
		}
	}
	t.stats.SetCounter("ticker.timers", int64(len(t.timers)))
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warningf("failed to notify systemd: %v", err)
	}
	log.Infof("%d timers armed", len(t.timers))

	eg, ctx := errgroup.WithContext(ctx)
	for _, r := range t.timers {
		if q := r.timer.Queue(); q != nil {
			r := r
			eg.Go(func() error {
				return t.consume(ctx, r, q)
			})
		}
	}
	eg.Go(func() error {
		return t.collectSysStats(ctx)
	})
	err := eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func (t *Ticker) create(tc *TimerConfig) error {
	r := &running{cfg: tc}
	opts := []hrtimer.Option{hrtimer.WithName(tc.Name), hrtimer.WithStats(t.stats)}
	if tc.Queue {
		opts = append(opts, hrtimer.WithQueue())
	}
	r.timer = hrtimer.New(opts...)
	if reg := r.timer.Registry(); reg != nil {
		if err := reg.Subscribe(func(overrun int32) { t.handle(r, overrun) }); err != nil {
			return err
		}
	}
	if err := r.timer.Create(tc.source, tc.Priority); err != nil {
		return fmt.Errorf("timer %q: %w", tc.Name, err)
	}
	if r.timer.Priority() != tc.Priority {
		log.Warningf("timer %q: priority %d clamped to %d", tc.Name, tc.Priority, r.timer.Priority())
	}
	// closed by Run even if a later timer fails
	t.timers = append(t.timers, r)
	return nil
}

// arm arms the timer and remembers when the first firing is due
func (r *running) arm() error {
	r.Lock()
	defer r.Unlock()
	first, err := firstFiring(r.cfg, time.Now())
	if err != nil {
		return err
	}
	r.jitter = newJitter(first, r.cfg.Interval)
	if err := r.timer.Arm(r.cfg.Interval, r.cfg.Start, r.cfg.mode); err != nil {
		return fmt.Errorf("timer %q: %w", r.cfg.Name, err)
	}
	return nil
}

// firstFiring translates the start of the timer to local time
func firstFiring(tc *TimerConfig, now time.Time) (time.Time, error) {
	if tc.mode == hrtimer.Relative {
		return now.Add(tc.Start), nil
	}
	sec, nsec, err := clock.Gettime(tc.source)
	if err != nil {
		return time.Time{}, err
	}
	onClock := time.Duration(sec)*time.Second + time.Duration(nsec)
	return now.Add(tc.Start - onClock), nil
}

func (t *Ticker) consume(ctx context.Context, r *running, q *hrtimer.Queue) error {
	for {
		overrun, err := q.ReceiveContext(ctx)
		if err != nil {
			return err
		}
		t.handle(r, int32(overrun))
	}
}

// handle runs for every firing, on the delivery thread or on the queue consumer
func (t *Ticker) handle(r *running, overrun int32) {
	now := time.Now()
	r.Lock()
	late := r.jitter.observe(now, overrun)
	s := &LogSample{
		Timer:          r.cfg.Name,
		Overrun:        overrun,
		Firings:        r.jitter.firings,
		JitterNS:       float64(late),
		JitterMeanNS:   r.jitter.mean(),
		JitterStddevNS: r.jitter.stddev(),
	}
	r.Unlock()

	t.stats.SetCounter(fmt.Sprintf("hrtimer.%s.jitter_ns", r.cfg.Name), int64(s.JitterNS))
	t.stats.SetCounter(fmt.Sprintf("hrtimer.%s.jitter_mean_ns", r.cfg.Name), int64(s.JitterMeanNS))
	t.stats.SetCounter(fmt.Sprintf("hrtimer.%s.jitter_stddev_ns", r.cfg.Name), int64(s.JitterStddevNS))
	if overrun > 0 {
		log.Debugf("timer %q: %d firings missed", r.cfg.Name, overrun)
	}
	if err := t.logger.Log(s); err != nil {
		log.Errorf("timer %q: failed to log sample: %v", r.cfg.Name, err)
	}
}

// collectSysStats reports process stats: every timer has its own delivery thread
func (t *Ticker) collectSysStats(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(t.cfg.StatsInterval)
	defer ticker.Stop()
	for {
		if n, err := proc.NumThreads(); err == nil {
			t.stats.SetCounter("process.num_threads", int64(n))
		} else {
			log.Warningf("failed to get number of threads: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Ticker) closeAll() {
	for _, r := range t.timers {
		if err := r.timer.Close(); err != nil {
			log.Errorf("timer %q: %v", r.cfg.Name, err)
		}
	}
	t.timers = nil
}

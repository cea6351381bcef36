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

package hrtimer

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"golang.org/x/sys/unix"

	"github.com/facebook/hrtimer/clock"
)

// Mode tells how Arm interprets the start time
type Mode int

const (
	// Absolute start is a point on the timer's clock
	Absolute Mode = iota
	// Relative start is an offset from the moment of arming
	Relative
)

var modeToString = map[Mode]string{
	Absolute: "absolute",
	Relative: "relative",
}

func (m Mode) String() string {
	if s, ok := modeToString[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode returns the Mode for "absolute" or "relative"
func ParseMode(s string) (Mode, error) {
	for m, ms := range modeToString {
		if ms == strings.ToLower(s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown arming mode %q", s)
}

// Errors returned for operations called in the wrong state
var (
	ErrNotCreated     = errors.New("timer is not created")
	ErrAlreadyCreated = errors.New("timer is already created")
	ErrClosed         = errors.New("timer is closed")
)

// ErrUnsupportedClock is returned by Create for a clock timers can't count against
var ErrUnsupportedClock = errors.New("clock does not support timers")

// TimerSources are the clocks a Timer can be created on. timerfd_create(2) rejects
// the CPU time, raw, coarse and TAI clocks.
var TimerSources = []clock.Source{
	clock.Realtime,
	clock.Monotonic,
	clock.Boottime,
	clock.RealtimeAlarm,
	clock.BoottimeAlarm,
}

// fatalf terminates the process. Tests replace it to observe fatal conditions
var fatalf = log.Fatalf

// Option configures a Timer
type Option func(*Timer)

// WithQueue makes the timer deliver notifications through a Queue instead of a Registry
func WithQueue() Option {
	return func(t *Timer) {
		t.channel = NewQueue()
	}
}

// WithRegistry makes the timer deliver notifications to subscribers of r
func WithRegistry(r *Registry) Option {
	return func(t *Timer) {
		t.channel = r
	}
}

// WithStats makes the timer count firings and overruns in s
func WithStats(s StatsServer) Option {
	return func(t *Timer) {
		t.stats = s
	}
}

// WithName sets the name used in logs and stats keys. Default is the timer id.
func WithName(name string) Option {
	return func(t *Timer) {
		t.name = name
	}
}

// Timer owns one kernel timer, the thread its firings are delivered on, and the
// Channel the firings are delivered through.
//
// The zero state is empty: ID() is 0 until Create succeeds.
// Mutating calls on one Timer must not race with each other.
//
// A created Timer is referenced by the delivery table until Close, so it is never
// garbage collected on its own. Close is the only way to release the kernel timer
// and its thread.
type Timer struct {
	name     string
	id       atomic.Uint64
	closed   atomic.Bool
	fd       int
	file     *os.File
	clock    clock.Source
	priority int
	channel  Channel
	stats    StatsServer
	slot     uint64
	done     chan struct{}
}

// New returns an empty Timer. Notifications go to a Registry unless WithQueue is passed.
func New(opts ...Option) *Timer {
	t := &Timer{channel: NewRegistry()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// notification is what the delivery thread gets: where to find its timer, and how to set itself up
type notification struct {
	slot uint64
	attr threadAttr
}

// Create requests a kernel timer counting against src, with firings delivered
// on a dedicated thread running at priority in the SCHED_FIFO class.
// Priority outside of the legal range is clamped.
// Only clocks listed in TimerSources are supported, others fail with ErrUnsupportedClock.
// On failure the timer stays empty and Create may be retried.
func (t *Timer) Create(src clock.Source, priority int) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if t.ID() != 0 {
		return ErrAlreadyCreated
	}
	if !slices.Contains(TimerSources, src) {
		return fmt.Errorf("creating timer on %s clock: %w (%w)", src, ErrUnsupportedClock, unix.EINVAL)
	}
	n := notification{attr: newThreadAttr(DeliveryPolicy, priority)}
	fd, err := timerfdCreate(src)
	if err != nil {
		return fmt.Errorf("creating timer on %s clock: %w", src, err)
	}

	t.fd = fd
	t.file = os.NewFile(uintptr(fd), fmt.Sprintf("timerfd:%s", src))
	t.clock = src
	t.priority = int(n.attr.param.priority)
	if t.name == "" {
		t.name = strconv.Itoa(fd)
	}
	t.channel.bind()
	n.slot = register(t)
	t.slot = n.slot
	t.done = make(chan struct{})
	t.id.Store(uint64(fd))
	if t.stats != nil {
		t.stats.SetCounter(statsKey(t.name, "priority"), int64(t.priority))
	}

	go deliver(n, t.file, t.done)
	log.Debugf("timer %s: created on %s clock, delivery priority %d", t.name, src, t.priority)
	return nil
}

func timerfdCreate(src clock.Source) (int, error) {
	fd, err := unix.TimerfdCreate(int(src), unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		return -1, err
	}
	if fd != 0 {
		return fd, nil
	}
	// id 0 means empty, so descriptor 0 can't be an id
	nfd, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 1)
	unix.Close(fd)
	if err != nil {
		return -1, err
	}
	return nfd, nil
}

// Arm schedules the first firing at start and then one every interval.
// Zero interval means one-shot. Arming again replaces the schedule atomically,
// and on failure the previous schedule stays in effect.
func (t *Timer) Arm(interval, start time.Duration, mode Mode) error {
	if err := t.check(); err != nil {
		return err
	}
	spec := unix.ItimerSpec{
		Interval: unix.NsecToTimespec(interval.Nanoseconds()),
		Value:    unix.NsecToTimespec(start.Nanoseconds()),
	}
	flags := 0
	if mode == Absolute {
		flags = unix.TFD_TIMER_ABSTIME
	}
	if err := unix.TimerfdSettime(t.fd, flags, &spec, nil); err != nil {
		return fmt.Errorf("arming timer %s (interval %v, %s start %v): %w", t.name, interval, mode, start, err)
	}
	log.Debugf("timer %s: armed with interval %v, %s start %v", t.name, interval, mode, start)
	return nil
}

// Disarm stops all future firings. The kernel timer is kept and can be armed again.
func (t *Timer) Disarm() error {
	return t.Arm(0, 0, Absolute)
}

// Schedule returns the current interval and the time left until the next firing.
// Both are zero for a disarmed timer.
func (t *Timer) Schedule() (interval, remaining time.Duration, err error) {
	if err := t.check(); err != nil {
		return 0, 0, err
	}
	spec := unix.ItimerSpec{}
	if err := unix.TimerfdGettime(t.fd, &spec); err != nil {
		return 0, 0, fmt.Errorf("reading schedule of timer %s: %w", t.name, err)
	}
	return time.Duration(spec.Interval.Nano()), time.Duration(spec.Value.Nano()), nil
}

func (t *Timer) check() error {
	if t.ID() != 0 {
		return nil
	}
	if t.closed.Load() {
		return ErrClosed
	}
	return ErrNotCreated
}

// ID returns the kernel timer id, 0 if the timer is not created
func (t *Timer) ID() uint64 {
	return t.id.Load()
}

// Name returns the name used in logs and stats
func (t *Timer) Name() string {
	return t.name
}

// Clock returns the clock the timer was created on
func (t *Timer) Clock() clock.Source {
	return t.clock
}

// Priority returns the delivery thread priority after clamping
func (t *Timer) Priority() int {
	return t.priority
}

// Registry returns the subscriber list, nil if the timer delivers to a Queue
func (t *Timer) Registry() *Registry {
	r, _ := t.channel.(*Registry)
	return r
}

// Queue returns the notification queue, nil if the timer delivers to a Registry
func (t *Timer) Queue() *Queue {
	q, _ := t.channel.(*Queue)
	return q
}

// Done is closed once the delivery thread has exited after Close. Nil for a timer never created.
func (t *Timer) Done() <-chan struct{} {
	return t.done
}

// Close deletes the kernel timer and lets its delivery thread exit. There is no
// finalizer: a created timer which is never closed leaks its descriptor and thread.
// It does nothing for a timer which was never created.
// A closed timer can't be used again.
// Failure to release a created timer leaves kernel resources in an unknown state,
// so it terminates the process.
// A delivery already in progress is not interrupted.
func (t *Timer) Close() error {
	id := t.id.Swap(0)
	if id == 0 {
		return nil
	}
	t.closed.Store(true)
	if err := t.file.Close(); err != nil {
		fatalf("timer %s: failed to delete kernel timer %d: %v", t.name, id, err)
		return err
	}
	log.Debugf("timer %s: deleted", t.name)
	return nil
}

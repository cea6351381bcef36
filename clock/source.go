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

package clock

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// Source identifies the kernel clock a timer counts against
type Source int32

// Clock sources from usr/include/linux/time.h
const (
	// System-wide realtime clock
	Realtime Source = unix.CLOCK_REALTIME
	// Monotonic system-wide clock
	Monotonic Source = unix.CLOCK_MONOTONIC
	// High-resolution per-process timer from the CPU
	ProcessCPUTime Source = unix.CLOCK_PROCESS_CPUTIME_ID
	// Thread-specific CPU-time clock
	ThreadCPUTime Source = unix.CLOCK_THREAD_CPUTIME_ID
	// Monotonic system-wide clock, not adjusted for frequency scaling
	MonotonicRaw Source = unix.CLOCK_MONOTONIC_RAW
	// System-wide realtime clock, updated only on ticks
	RealtimeCoarse Source = unix.CLOCK_REALTIME_COARSE
	// Monotonic system-wide clock, updated only on ticks
	MonotonicCoarse Source = unix.CLOCK_MONOTONIC_COARSE
	// Monotonic system-wide clock that includes time spent in suspension
	Boottime Source = unix.CLOCK_BOOTTIME
	// Like Realtime but also wakes the suspended system
	RealtimeAlarm Source = unix.CLOCK_REALTIME_ALARM
	// Like Boottime but also wakes the suspended system
	BoottimeAlarm Source = unix.CLOCK_BOOTTIME_ALARM
	// Like Realtime but in International Atomic Time
	TAI Source = unix.CLOCK_TAI
)

// Sources lists all known clock sources in clock id order
var Sources = []Source{
	Realtime,
	Monotonic,
	ProcessCPUTime,
	ThreadCPUTime,
	MonotonicRaw,
	RealtimeCoarse,
	MonotonicCoarse,
	Boottime,
	RealtimeAlarm,
	BoottimeAlarm,
	TAI,
}

var sourceNames = map[Source]string{
	Realtime:        "realtime",
	Monotonic:       "monotonic",
	ProcessCPUTime:  "process_cputime",
	ThreadCPUTime:   "thread_cputime",
	MonotonicRaw:    "monotonic_raw",
	RealtimeCoarse:  "realtime_coarse",
	MonotonicCoarse: "monotonic_coarse",
	Boottime:        "boottime",
	RealtimeAlarm:   "realtime_alarm",
	BoottimeAlarm:   "boottime_alarm",
	TAI:             "tai",
}

// String returns the lower case name of the clock, i.e. "monotonic"
func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("clock(%d)", int32(s))
}

// ParseSource returns the Source for the given name. Names are case insensitive
// and may carry the CLOCK_ prefix, so "CLOCK_MONOTONIC" and "monotonic" are the same.
func ParseSource(name string) (Source, error) {
	n := strings.TrimPrefix(strings.ToLower(name), "clock_")
	for s, sn := range sourceNames {
		if sn == n {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown clock source %q", name)
}

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

	"golang.org/x/sys/unix"
)

// adjtimex modes from usr/include/linux/timex.h
const (
	// old-fashioned adjtime
	AdjOffsetSingleshot uint32 = 0x8001
	// read-only adjtime
	AdjOffsetSSRead uint32 = 0xa001
)

const usecPerSec = 1000000

// adjtime(3) refuses offsets it cannot represent in microseconds, same limits as glibc
const (
	maxAdjSec = (1<<31-1)/usecPerSec - 2
	minAdjSec = -(1<<31)/usecPerSec + 2
)

// Gettime reads the given clock
func Gettime(src Source) (sec, nsec int64, err error) {
	ts := unix.Timespec{}
	if err := unix.ClockGettime(int32(src), &ts); err != nil {
		return 0, 0, fmt.Errorf("clock_gettime(%s): %w", src, err)
	}
	return int64(ts.Sec), int64(ts.Nsec), nil
}

// Settime writes the given clock. Clocks that can't be set, like Monotonic, return EINVAL
func Settime(src Source, sec, nsec int64) error {
	ts := unix.Timespec{}
	setTimespec(&ts, sec, nsec)
	if err := unix.ClockSettime(int32(src), &ts); err != nil {
		return fmt.Errorf("clock_settime(%s): %w", src, err)
	}
	return nil
}

// RealTime reads CLOCK_REALTIME
func RealTime() (sec, nsec int64, err error) {
	return Gettime(Realtime)
}

// SetRealTime sets CLOCK_REALTIME to the given value as a whole
func SetRealTime(sec, nsec int64) error {
	return Settime(Realtime, sec, nsec)
}

// AdjustTime gradually slews the system clock by the given signed offset, like adjtime(3).
// It returns the adjustment that was pending before the call and not yet applied.
// Kernel errors are ignored, use AdjustTimeErr to get them.
func AdjustTime(sec, usec int32) (oldSec, oldUsec int32) {
	oldSec, oldUsec, _ = AdjustTimeErr(sec, usec)
	return oldSec, oldUsec
}

// AdjustTimeErr is AdjustTime that reports failures
func AdjustTimeErr(sec, usec int32) (oldSec, oldUsec int32, err error) {
	if sec > maxAdjSec || sec < minAdjSec {
		return 0, 0, fmt.Errorf("adjtime offset %ds: %w", sec, unix.EINVAL)
	}
	tx := &unix.Timex{}
	tx.Modes = AdjOffsetSingleshot
	setOffset(tx, int64(sec)*usecPerSec+int64(usec))
	return adjtimex(tx)
}

// PendingAdjustment returns the adjustment still to be applied, without changing it
func PendingAdjustment() (sec, usec int32, err error) {
	tx := &unix.Timex{}
	tx.Modes = AdjOffsetSSRead
	return adjtimex(tx)
}

func adjtimex(tx *unix.Timex) (sec, usec int32, err error) {
	if _, err := unix.Adjtimex(tx); err != nil {
		return 0, 0, fmt.Errorf("adjtimex: %w", err)
	}
	// division truncates towards zero, so both parts carry the sign of the offset
	off := offset(tx)
	return int32(off / usecPerSec), int32(off % usecPerSec), nil
}

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
	"fmt"
	"unsafe"

	"golang.org/x/exp/constraints"
	"golang.org/x/sys/unix"
)

// Policy is a thread scheduling class, see sched(7)
type Policy int

// Scheduling classes from usr/include/linux/sched.h
const (
	SchedOther Policy = 0
	SchedFIFO  Policy = 1
	SchedRR    Policy = 2
)

// DeliveryPolicy is the scheduling class of every delivery thread
const DeliveryPolicy = SchedFIFO

// linux allows 1..99 for both realtime classes
const (
	fallbackPriorityMin = 1
	fallbackPriorityMax = 99
)

// schedParam is struct sched_param
type schedParam struct {
	priority int32
}

// threadAttr is what the delivery thread applies to itself before waiting for the first firing
type threadAttr struct {
	policy Policy
	param  schedParam
}

// PriorityRange returns legal priorities for the scheduling class
func PriorityRange(policy Policy) (minPrio, maxPrio int, err error) {
	minPrio, err = schedGetPriority(unix.SYS_SCHED_GET_PRIORITY_MIN, policy)
	if err != nil {
		return 0, 0, fmt.Errorf("sched_get_priority_min: %w", err)
	}
	maxPrio, err = schedGetPriority(unix.SYS_SCHED_GET_PRIORITY_MAX, policy)
	if err != nil {
		return 0, 0, fmt.Errorf("sched_get_priority_max: %w", err)
	}
	return minPrio, maxPrio, nil
}

// ClampPriority fits priority into the legal range of the scheduling class
func ClampPriority(policy Policy, priority int) int {
	minPrio, maxPrio, err := PriorityRange(policy)
	if err != nil {
		minPrio, maxPrio = fallbackPriorityMin, fallbackPriorityMax
	}
	return clamp(priority, minPrio, maxPrio)
}

func newThreadAttr(policy Policy, priority int) threadAttr {
	return threadAttr{
		policy: policy,
		param:  schedParam{priority: int32(ClampPriority(policy, priority))},
	}
}

// apply sets the attributes on the calling OS thread. Caller must hold the thread with runtime.LockOSThread.
func (a threadAttr) apply() error {
	return schedSetscheduler(0, a.policy, &a.param)
}

// SetProcessScheduler switches the calling thread to the given scheduling class.
// Threads spawned afterwards by that thread inherit it.
// It is never done implicitly, call it once at process start if a realtime class is wanted.
func SetProcessScheduler(policy Policy, priority int) error {
	param := schedParam{priority: int32(ClampPriority(policy, priority))}
	if policy == SchedOther {
		param.priority = 0
	}
	if err := schedSetscheduler(0, policy, &param); err != nil {
		return fmt.Errorf("sched_setscheduler(%d, %d): %w", policy, param.priority, err)
	}
	return nil
}

func schedGetPriority(trap uintptr, policy Policy) (int, error) {
	r, _, errno := unix.RawSyscall(trap, uintptr(policy), 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(r), nil
}

func schedSetscheduler(pid int, policy Policy, param *schedParam) error {
	_, _, errno := unix.RawSyscall(unix.SYS_SCHED_SETSCHEDULER, uintptr(pid), uintptr(policy), uintptr(unsafe.Pointer(param)))
	if errno != 0 {
		return errno
	}
	return nil
}

func clamp[T constraints.Integer](v, lo, hi T) T {
	if v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}

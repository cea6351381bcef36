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
	"math"
	"os"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/facebook/hrtimer/hostendian"
)

// timers maps delivery slots to their owners, so the delivery thread never holds a pointer to a Timer
var timers = struct {
	sync.RWMutex
	next  uint64
	slots map[uint64]*Timer
}{slots: map[uint64]*Timer{}}

func register(t *Timer) uint64 {
	timers.Lock()
	defer timers.Unlock()
	timers.next++
	timers.slots[timers.next] = t
	return timers.next
}

func lookup(slot uint64) *Timer {
	timers.RLock()
	defer timers.RUnlock()
	return timers.slots[slot]
}

func unregister(slot uint64) {
	timers.Lock()
	delete(timers.slots, slot)
	timers.Unlock()
}

// deliver runs on the delivery thread of one timer until the timer is closed.
// Each read of a timerfd returns the number of expirations since the previous read.
func deliver(n notification, f *os.File, done chan struct{}) {
	defer close(done)
	defer unregister(n.slot)

	// never unlocked: the thread carries the delivery priority and exits with the goroutine
	runtime.LockOSThread()
	if err := n.attr.apply(); err != nil {
		log.Warningf("timer slot %d: running delivery thread without policy %d priority %d: %v", n.slot, n.attr.policy, n.attr.param.priority, err)
	}

	buf := make([]byte, 8)
	for {
		if _, err := f.Read(buf); err != nil {
			if !errors.Is(err, os.ErrClosed) {
				log.Errorf("timer slot %d: stopping delivery: %v", n.slot, err)
			}
			return
		}
		t := lookup(n.slot)
		if t == nil {
			fatalf("timer slot %d: firing delivered for a timer which does not exist", n.slot)
			return
		}
		t.fire(overrun(hostendian.Uint64(buf)))
	}
}

// overrun is the number of firings missed before this delivery.
// Capped like timer_getoverrun(2) caps it at DELAYTIMER_MAX.
func overrun(expirations uint64) int32 {
	if expirations == 0 {
		return 0
	}
	return int32(clamp(expirations-1, 0, math.MaxInt32))
}

func (t *Timer) fire(overrun int32) {
	if t.stats != nil {
		t.stats.UpdateCounterBy(statsKey(t.name, "firings"), 1)
		t.stats.UpdateCounterBy(statsKey(t.name, "overruns"), int64(overrun))
	}
	t.channel.deliver(overrun)
}

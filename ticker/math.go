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
	"time"

	"github.com/eclesh/welford"
)

// jitter tracks how late firings are delivered compared to the schedule
type jitter struct {
	first    time.Time
	interval time.Duration
	firings  uint64
	stats    *welford.Stats
}

func newJitter(first time.Time, interval time.Duration) *jitter {
	return &jitter{
		first:    first,
		interval: interval,
		stats:    welford.New(),
	}
}

// observe accounts for a delivery at now which carries overrun missed firings,
// and returns how late the latest of them was delivered
func (j *jitter) observe(now time.Time, overrun int32) time.Duration {
	j.firings += uint64(overrun) + 1
	expected := j.first.Add(time.Duration(j.firings-1) * j.interval)
	late := now.Sub(expected)
	j.stats.Add(float64(late))
	return late
}

func (j *jitter) mean() float64 {
	return j.stats.Mean()
}

func (j *jitter) stddev() float64 {
	return j.stats.Stddev()
}

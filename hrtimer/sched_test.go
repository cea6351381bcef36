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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriorityRange(t *testing.T) {
	minPrio, maxPrio, err := PriorityRange(SchedFIFO)
	require.NoError(t, err)
	require.Equal(t, 1, minPrio)
	require.Equal(t, 99, maxPrio)

	minPrio, maxPrio, err = PriorityRange(SchedOther)
	require.NoError(t, err)
	require.Equal(t, 0, minPrio)
	require.Equal(t, 0, maxPrio)

	_, _, err = PriorityRange(Policy(42))
	require.Error(t, err)
}

func TestClampPriority(t *testing.T) {
	require.Equal(t, 99, ClampPriority(SchedFIFO, 999))
	require.Equal(t, 1, ClampPriority(SchedFIFO, -3))
	require.Equal(t, 50, ClampPriority(SchedFIFO, 50))
	require.Equal(t, 0, ClampPriority(SchedOther, 50))
	// unknown class falls back to the realtime range
	require.Equal(t, 99, ClampPriority(Policy(42), 1000))
}

func TestNewThreadAttr(t *testing.T) {
	a := newThreadAttr(DeliveryPolicy, 999)
	require.Equal(t, SchedFIFO, a.policy)
	require.Equal(t, int32(99), a.param.priority)
}

func TestClamp(t *testing.T) {
	require.Equal(t, uint64(10), clamp(uint64(11), 0, 10))
	require.Equal(t, -1, clamp(-5, -1, 1))
	require.Equal(t, int32(0), clamp(int32(0), -1, 1))
}

func TestSetProcessSchedulerOther(t *testing.T) {
	// going to SCHED_OTHER at priority 0 is always allowed
	require.NoError(t, SetProcessScheduler(SchedOther, 10))
}

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
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	got := []string{}
	require.NoError(t, r.Subscribe(func(overrun int32) {
		got = append(got, "first")
		require.Equal(t, int32(2), overrun)
	}))
	require.NoError(t, r.Subscribe(func(overrun int32) {
		got = append(got, "second")
		require.Equal(t, int32(2), overrun)
	}))
	require.Equal(t, 2, r.Len())

	r.bind()
	r.deliver(2)
	require.Equal(t, []string{"first", "second"}, got)
}

func TestRegistrySubscribeAfterBind(t *testing.T) {
	r := NewRegistry()
	r.bind()
	require.ErrorIs(t, r.Subscribe(func(int32) {}), ErrSubscribeAfterCreate)
	require.Equal(t, 0, r.Len())
	// no subscribers is fine
	r.deliver(0)
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	q.bind()
	for i := int32(0); i < 5; i++ {
		q.deliver(i)
	}
	require.Equal(t, 5, q.Len())
	for i := uint32(0); i < 5; i++ {
		require.Equal(t, i, q.Receive())
	}
	require.Equal(t, 0, q.Len())
}

func TestQueueReceiveContext(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := q.ReceiveContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	q.deliver(7)
	v, err := q.ReceiveContext(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(7), v)
}

func TestQueueReceiveBlocks(t *testing.T) {
	q := NewQueue()
	got := make(chan uint32)
	go func() {
		got <- q.Receive()
	}()
	select {
	case <-got:
		t.Fatal("Receive returned on empty queue")
	case <-time.After(20 * time.Millisecond):
	}
	q.deliver(3)
	require.Equal(t, uint32(3), <-got)
}

func TestQueueConcurrent(t *testing.T) {
	const n = 10000
	q := NewQueue()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int32(0); i < n; i++ {
			q.deliver(i)
		}
	}()
	for i := uint32(0); i < n; i++ {
		require.Equal(t, i, q.Receive())
	}
	wg.Wait()
	require.Equal(t, 0, q.Len())
}

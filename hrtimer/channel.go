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
	"errors"
	"sync"
)

// ErrSubscribeAfterCreate is returned when subscribing to a timer which is already created
var ErrSubscribeAfterCreate = errors.New("subscribers must be added before the timer is created")

// Channel carries firing notifications from the delivery thread to the application.
// There are two kinds: Registry calls subscribers on the delivery thread,
// Queue hands overrun counts to a consumer goroutine.
type Channel interface {
	// bind is called once the timer is created, no subscribers can be added after it
	bind()
	// deliver runs on the delivery thread
	deliver(overrun int32)
}

// Registry is a list of subscribers invoked synchronously, in registration order, on every firing.
// Subscribers must not block, a stuck subscriber stalls all further deliveries of the timer.
type Registry struct {
	mu          sync.Mutex
	bound       bool
	subscribers []func(overrun int32)
}

// NewRegistry returns an empty Registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Subscribe adds fn to the list of subscribers
func (r *Registry) Subscribe(fn func(overrun int32)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bound {
		return ErrSubscribeAfterCreate
	}
	r.subscribers = append(r.subscribers, fn)
	return nil
}

// Len returns the number of subscribers
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}

func (r *Registry) bind() {
	r.mu.Lock()
	r.bound = true
	r.mu.Unlock()
}

// subscribers are frozen by bind, which happens before the delivery thread starts
func (r *Registry) deliver(overrun int32) {
	for _, fn := range r.subscribers {
		fn(overrun)
	}
}

// Queue is an unbounded single producer single consumer FIFO of overrun counts.
// Nothing is dropped or coalesced: if nobody receives, it grows.
type Queue struct {
	mu    sync.Mutex
	items []uint32
	ready chan struct{}
}

// NewQueue returns an empty Queue
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

func (q *Queue) bind() {}

func (q *Queue) deliver(overrun int32) {
	q.push(uint32(overrun))
}

func (q *Queue) push(v uint32) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *Queue) pop() (uint32, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return 0, false
	}
	v := q.items[0]
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return v, true
}

// Receive blocks until the next notification and returns its overrun count
func (q *Queue) Receive() uint32 {
	v, _ := q.ReceiveContext(context.Background())
	return v
}

// ReceiveContext is Receive which gives up when ctx is done
func (q *Queue) ReceiveContext(ctx context.Context) (uint32, error) {
	for {
		if v, ok := q.pop(); ok {
			return v, nil
		}
		select {
		case <-q.ready:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Len returns the number of notifications waiting to be received
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

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
Package hrtimer implements process-local software timers on top of the Linux
high-resolution timer facility (timerfd).

A Timer is created empty, bound to a clock source with Create, armed with Arm
(one-shot or periodic, absolute or relative start) and released with Close.
Every firing is delivered on a dedicated OS thread owned by the timer, which
runs in the SCHED_FIFO class at the priority passed to Create, together with the
overrun count: how many more firings happened before this one could be delivered.

Firings reach the application through one of two channels:
  - Registry (default): subscribers are called synchronously on the delivery thread
  - Queue (WithQueue): overrun counts are queued for a consumer goroutine

	timer := hrtimer.New(hrtimer.WithQueue())
	if err := timer.Create(clock.Monotonic, 50); err != nil {
		return err
	}
	defer timer.Close()
	if err := timer.Arm(10*time.Millisecond, time.Second, hrtimer.Relative); err != nil {
		return err
	}
	for {
		overrun := timer.Queue().Receive()
		...
	}

Failing to release a created timer terminates the process.
*/
package hrtimer

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
Package clock contains thin wrappers around the kernel clock syscalls.

It names the clock sources a timer may count against (Source), and allows
direct interaction with the system realtime clock:
  - reading and writing any settable clock through Gettime and Settime
  - reading and writing CLOCK_REALTIME as a (seconds, nanoseconds) pair
    through RealTime and SetRealTime
  - requesting a gradual slew of the clock through AdjustTime, which has
    adjtime(3) semantics and returns the adjustment that was still pending.

There is no state in this package, every call goes straight to the kernel.
*/
package clock

//go:build !386

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
	"golang.org/x/sys/unix"
)

func setOffset(tx *unix.Timex, usec int64) {
	tx.Offset = usec
}

func offset(tx *unix.Timex) int64 {
	return tx.Offset
}

func setTimespec(ts *unix.Timespec, sec, nsec int64) {
	ts.Sec = sec
	ts.Nsec = nsec
}

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
Package hostendian provides the byte order of the machine this code is running on.

Kernel interfaces like timerfd(2) hand out counters as raw integers in host byte order,
which is typically LittleEndian, but it's not guaranteed.
*/
package hostendian

import (
	"encoding/binary"
	"unsafe"
)

// Order of the bytes
var Order binary.ByteOrder = binary.LittleEndian

// IsBigEndian is a flag determining if value is in Big Endian
var IsBigEndian bool

func init() {
	var i uint16 = 0x0100
	if *(*byte)(unsafe.Pointer(&i)) == 0x01 {
		IsBigEndian = true
		Order = binary.BigEndian
	}
}

// Uint64 decodes a host order counter, such as the expiration count read from a timerfd
func Uint64(b []byte) uint64 {
	return Order.Uint64(b)
}

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
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

var testSample0 = &LogSample{
	Timer:          "fast",
	Overrun:        0,
	Firings:        1,
	JitterNS:       1500,
	JitterMeanNS:   1500,
	JitterStddevNS: 0,
}

var testSample1 = &LogSample{
	Timer:          "fast",
	Overrun:        2,
	Firings:        4,
	JitterNS:       2100.5,
	JitterMeanNS:   1800.25,
	JitterStddevNS: 424.6,
}

func TestLogSample_CSVRecords(t *testing.T) {
	got := testSample1.CSVRecords()
	want := []string{"fast", "2", "4", "2100.5", "1800.25", "424.6"}

	// make sure we are in sync with header
	require.Equal(t, len(header), len(got))

	require.Equal(t, want, got)
}

func TestCSVLogger_Log(t *testing.T) {
	b := &bytes.Buffer{}
	l := NewCSVLogger(b)

	require.NoError(t, l.Log(testSample0))
	want := "timer,overrun,firings,jitter,jitter_mean,jitter_stddev\nfast,0,1,1500,1500,0\n"
	require.Equal(t, want, b.String())

	require.NoError(t, l.Log(testSample1))
	want += "fast,2,4,2100.5,1800.25,424.6\n"
	require.Equal(t, want, b.String())
}

func TestDummyLogger_Log(t *testing.T) {
	b := &bytes.Buffer{}
	l := NewDummyLogger(b)

	require.NoError(t, l.Log(testSample1))
	require.Equal(t, "fast: overrun = 2, jitter = 2.1µs\n", b.String())
}

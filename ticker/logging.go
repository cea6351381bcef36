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
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"
)

// LogSample is what we log about every firing
type LogSample struct {
	Timer          string
	Overrun        int32
	Firings        uint64
	JitterNS       float64
	JitterMeanNS   float64
	JitterStddevNS float64
}

var header = []string{
	"timer",
	"overrun",
	"firings",
	"jitter",
	"jitter_mean",
	"jitter_stddev",
}

// CSVRecords returns all data from this sample as CSV. Must by synced with `header` variable.
func (s *LogSample) CSVRecords() []string {
	return []string{
		s.Timer,
		strconv.FormatInt(int64(s.Overrun), 10),
		strconv.FormatUint(s.Firings, 10),
		strconv.FormatFloat(s.JitterNS, 'f', -1, 64),
		strconv.FormatFloat(s.JitterMeanNS, 'f', -1, 64),
		strconv.FormatFloat(s.JitterStddevNS, 'f', -1, 64),
	}
}

// Logger is something that can store LogSample somewhere
type Logger interface {
	Log(*LogSample) error
}

// CSVLogger logs Sample as CSV into given writer.
// Timers fire on their own threads, so it's safe for concurrent use.
type CSVLogger struct {
	sync.Mutex
	csvwriter     *csv.Writer
	printedHeader bool
}

// NewCSVLogger returns new CSVLogger
func NewCSVLogger(w io.Writer) *CSVLogger {
	return &CSVLogger{
		csvwriter: csv.NewWriter(w),
	}
}

// Log implements Logger interface
func (l *CSVLogger) Log(s *LogSample) error {
	l.Lock()
	defer l.Unlock()
	if !l.printedHeader {
		if err := l.csvwriter.Write(header); err != nil {
			return err
		}
		l.printedHeader = true
	}
	if err := l.csvwriter.Write(s.CSVRecords()); err != nil {
		return err
	}
	l.csvwriter.Flush()
	return l.csvwriter.Error()
}

// DummyLogger logs overrun and jitter to given writer
type DummyLogger struct {
	sync.Mutex
	w io.Writer
}

// NewDummyLogger returns new DummyLogger
func NewDummyLogger(w io.Writer) *DummyLogger {
	return &DummyLogger{w: w}
}

// Log implements Logger interface
func (l *DummyLogger) Log(s *LogSample) error {
	l.Lock()
	defer l.Unlock()
	_, err := fmt.Fprintf(l.w, "%s: overrun = %d, jitter = %v\n", s.Timer, s.Overrun, time.Duration(s.JitterNS))
	return err
}

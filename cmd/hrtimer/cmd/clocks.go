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

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/hrtimer/clock"
	"github.com/facebook/hrtimer/hrtimer"
)

var clocksCmd = &cobra.Command{
	Use:   "clocks",
	Short: "Print clock sources, their readings and whether timers can use them",
	Run:   runClocksCmd,
}

func init() {
	RootCmd.AddCommand(clocksCmd)
}

// clockRow reads the clock and tries to create a timer on it
func clockRow(src clock.Source) []string {
	reading := "n/a"
	if sec, nsec, err := clock.Gettime(src); err == nil {
		reading = fmt.Sprintf("%d.%09d", sec, nsec)
	} else {
		log.Debugf("%v", err)
	}
	timer := "yes"
	t := hrtimer.New()
	if err := t.Create(src, 0); err != nil {
		log.Debugf("%v", err)
		timer = "no"
	} else if err := t.Close(); err != nil {
		log.Debugf("%v", err)
	}
	return []string{src.String(), fmt.Sprintf("%d", int32(src)), reading, timer}
}

func clocksTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"clock", "id", "time", "timer"})
	for _, src := range clock.Sources {
		table.Append(clockRow(src))
	}
	table.Render()
}

func runClocksCmd(_ *cobra.Command, _ []string) {
	ConfigureVerbosity()
	clocksTable(os.Stdout)
}

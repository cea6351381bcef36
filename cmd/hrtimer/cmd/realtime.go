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
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/hrtimer/clock"
)

var realtimeCmd = &cobra.Command{
	Use:   "realtime",
	Short: "Read or set the system realtime clock",
}

var realtimeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the system realtime clock",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := printRealTime(os.Stdout); err != nil {
			log.Fatal(err)
		}
	},
}

var realtimeSetCmd = &cobra.Command{
	Use:   "set SECONDS [NANOSECONDS]",
	Short: "Step the system realtime clock. Requires CAP_SYS_TIME",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()
		sec, nsec, err := parseRealTime(args)
		if err != nil {
			log.Fatal(err)
		}
		if err := clock.SetRealTime(sec, nsec); err != nil {
			log.Fatal(err)
		}
		if err := printRealTime(os.Stdout); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	RootCmd.AddCommand(realtimeCmd)
	realtimeCmd.AddCommand(realtimeGetCmd)
	realtimeCmd.AddCommand(realtimeSetCmd)
}

func parseRealTime(args []string) (sec, nsec int64, err error) {
	if sec, err = strconv.ParseInt(args[0], 10, 64); err != nil {
		return 0, 0, fmt.Errorf("parsing seconds: %w", err)
	}
	if len(args) > 1 {
		if nsec, err = strconv.ParseInt(args[1], 10, 64); err != nil {
			return 0, 0, fmt.Errorf("parsing nanoseconds: %w", err)
		}
	}
	return sec, nsec, nil
}

func printRealTime(w io.Writer) error {
	sec, nsec, err := clock.RealTime()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d.%09d (%s)\n", sec, nsec, time.Unix(sec, nsec).UTC().Format(time.RFC3339Nano))
	return nil
}

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

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/hrtimer/clock"
)

var adjtimeCmd = &cobra.Command{
	Use:   "adjtime [SECONDS MICROSECONDS]",
	Short: "Gradually slew the system clock by a delta, or print the adjustment still pending",
	Long:  "Gradually slew the system clock by a delta (requires CAP_SYS_TIME) and print the adjustment that was pending before. Without arguments only prints the pending adjustment.",
	Args: func(_ *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected 0 or 2 args, got %d", len(args))
		}
		return nil
	},
	Run: runAdjtimeCmd,
}

func init() {
	RootCmd.AddCommand(adjtimeCmd)
}

func adjtime(w io.Writer, args []string) error {
	if len(args) == 0 {
		sec, usec, err := clock.PendingAdjustment()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "pending: %ds %dus\n", sec, usec)
		return nil
	}
	sec, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("parsing seconds: %w", err)
	}
	usec, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("parsing microseconds: %w", err)
	}
	oldSec, oldUsec, err := clock.AdjustTimeErr(int32(sec), int32(usec))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "previous: %ds %dus\n", oldSec, oldUsec)
	return nil
}

func runAdjtimeCmd(_ *cobra.Command, args []string) {
	ConfigureVerbosity()
	if err := adjtime(os.Stdout, args); err != nil {
		log.Fatal(err)
	}
}

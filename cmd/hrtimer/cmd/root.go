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
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/hrtimer/hrtimer"
)

// RootCmd is a main entry point. It's exported so hrtimer could be easily extended without touching core functionality.
var RootCmd = &cobra.Command{
	Use:   "hrtimer",
	Short: "High resolution timers and system clock toolkit",
}

// flags
var rootVerboseFlag bool
var rootSchedFIFOFlag int

func init() {
	RootCmd.PersistentFlags().BoolVarP(&rootVerboseFlag, "verbose", "v", false, "verbose output")
	RootCmd.PersistentFlags().IntVar(&rootSchedFIFOFlag, "sched-fifo", 0, "switch the process to SCHED_FIFO with this priority before doing anything. 0 means don't")
}

// ConfigureVerbosity configures log verbosity based on parsed flags. Needs to be called by any subcommand.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if rootVerboseFlag {
		log.SetLevel(log.DebugLevel)
	}
}

// ConfigureScheduler applies the process scheduling policy if it was asked for. Needs to be called by subcommands running timers.
func ConfigureScheduler() {
	if rootSchedFIFOFlag == 0 {
		return
	}
	if err := hrtimer.SetProcessScheduler(hrtimer.SchedFIFO, rootSchedFIFOFlag); err != nil {
		log.Fatal(err)
	}
	log.Debugf("switched to SCHED_FIFO priority %d", hrtimer.ClampPriority(hrtimer.SchedFIFO, rootSchedFIFOFlag))
}

// Execute is the main entry point for CLI interface
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

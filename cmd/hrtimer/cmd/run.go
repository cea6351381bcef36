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
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/hrtimer/clock"
	"github.com/facebook/hrtimer/stats"
	"github.com/facebook/hrtimer/ticker"
)

// flags
var (
	runConfigFlag         string
	runMonitoringPortFlag int
	runCSVLogFlag         bool
	runCSVPathFlag        string
	runDurationFlag       time.Duration
	runClockFlag          string
	runPriorityFlag       int
	runIntervalFlag       time.Duration
	runQueueFlag          bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run timers and report firings, overruns and jitter",
	Long:  "Run timers described by a yaml config (or a single timer described by flags), log every firing and serve stats as JSON and Prometheus metrics.",
	Run:   runRunCmd,
}

func init() {
	RootCmd.AddCommand(runCmd)
	flags := runCmd.Flags()
	flags.StringVarP(&runConfigFlag, "config", "f", "", "path to yaml config. Timer flags are ignored when it's set")
	flags.IntVar(&runMonitoringPortFlag, "monitoringport", ticker.DefaultMonitoringPort, "port to run monitoring server on, 0 disables it")
	flags.BoolVar(&runCSVLogFlag, "csvlog", false, "log every firing as CSV")
	flags.StringVar(&runCSVPathFlag, "csvpath", "", "write CSV log into this file")
	flags.DurationVarP(&runDurationFlag, "duration", "d", 0, "stop after this long, 0 means run until interrupted")
	flags.StringVarP(&runClockFlag, "clock", "c", clock.Monotonic.String(), "clock source of the timer")
	flags.IntVarP(&runPriorityFlag, "priority", "p", ticker.DefaultPriority, "SCHED_FIFO priority of the delivery thread")
	flags.DurationVarP(&runIntervalFlag, "interval", "i", time.Millisecond, "interval between firings")
	flags.BoolVarP(&runQueueFlag, "queue", "q", false, "receive firings through a queue instead of a subscriber")
}

// flagConfig builds a config with a single timer from flags
func flagConfig() *ticker.Config {
	cfg := ticker.DefaultConfig()
	cfg.MonitoringPort = runMonitoringPortFlag
	cfg.Duration = runDurationFlag
	cfg.Timers = []ticker.TimerConfig{
		{
			Name:     "default",
			Clock:    runClockFlag,
			Priority: runPriorityFlag,
			Interval: runIntervalFlag,
			Start:    runIntervalFlag,
			Queue:    runQueueFlag,
		},
	}
	return cfg
}

func runTicker(ctx context.Context, cfg *ticker.Config, l ticker.Logger) error {
	if err := cfg.EvalAndValidate(); err != nil {
		return err
	}
	log.Debugf("Config: %+v", *cfg)
	st := stats.NewStats()
	if cfg.MonitoringPort != 0 {
		go func() {
			if err := stats.Start(cfg.MonitoringPort, st); err != nil {
				log.Errorf("monitoring server stopped: %v", err)
			}
		}()
	}
	return ticker.New(cfg, st, l).Run(ctx)
}

func runRunCmd(_ *cobra.Command, _ []string) {
	ConfigureVerbosity()
	ConfigureScheduler()

	if runCSVPathFlag != "" && !runCSVLogFlag {
		log.Fatalf("'csvpath' flag requires 'csvlog' flag")
	}
	cfg := flagConfig()
	if runConfigFlag != "" {
		log.Warningf("using config from %s, flag values are ignored", runConfigFlag)
		var err error
		if cfg, err = ticker.ReadConfig(runConfigFlag); err != nil {
			log.Fatal(err)
		}
	}

	// set up sample logging
	w := log.StandardLogger().Writer()
	defer w.Close()
	var l ticker.Logger = ticker.NewDummyLogger(w)
	if runCSVLogFlag {
		csvW := io.Writer(w)
		if runCSVPathFlag != "" {
			f, err := os.Create(runCSVPathFlag)
			if err != nil {
				log.Fatal(err)
			}
			defer f.Close()
			// write both to stderr and file
			csvW = io.MultiWriter(w, f)
		}
		l = ticker.NewCSVLogger(csvW)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := runTicker(ctx, cfg, l); err != nil {
		log.Fatal(err)
	}
}

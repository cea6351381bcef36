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
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/hrtimer/clock"
	"github.com/facebook/hrtimer/hrtimer"
)

// flags
var (
	tickClockFlag    string
	tickPriorityFlag int
	tickIntervalFlag time.Duration
	tickStartFlag    time.Duration
	tickModeFlag     string
	tickQueueFlag    bool
	tickCountFlag    int
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Arm one timer and print its firings",
	Long:  "Arm one timer and print every firing with its overrun count. Interval 0 means one-shot.",
	Run:   runTickCmd,
}

func init() {
	RootCmd.AddCommand(tickCmd)
	flags := tickCmd.Flags()
	flags.StringVarP(&tickClockFlag, "clock", "c", clock.Monotonic.String(), "clock source the timer counts against")
	flags.IntVarP(&tickPriorityFlag, "priority", "p", 50, "SCHED_FIFO priority of the delivery thread, clamped to the legal range")
	flags.DurationVarP(&tickIntervalFlag, "interval", "i", time.Second, "interval between firings, 0 for one-shot")
	flags.DurationVarP(&tickStartFlag, "start", "s", time.Second, "first firing: offset from now, or point on the clock with --mode=absolute")
	flags.StringVarP(&tickModeFlag, "mode", "m", hrtimer.Relative.String(), "how start is interpreted: relative or absolute")
	flags.BoolVarP(&tickQueueFlag, "queue", "q", false, "receive firings through a queue instead of a subscriber")
	flags.IntVarP(&tickCountFlag, "count", "n", 0, "exit after this many firings, 0 means run until interrupted")
}

type tickConfig struct {
	source   clock.Source
	priority int
	interval time.Duration
	start    time.Duration
	mode     hrtimer.Mode
	queue    bool
	count    int
}

func formatFiring(n int, overrun int32, since time.Duration) string {
	o := color.GreenString("overrun %d", overrun)
	if overrun > 0 {
		o = color.YellowString("overrun %d", overrun)
	}
	return fmt.Sprintf("#%d +%v %s", n, since.Round(time.Microsecond), o)
}

// tick runs a timer until count firings were printed or ctx is done
func tick(ctx context.Context, cfg tickConfig, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []hrtimer.Option{hrtimer.WithName("tick")}
	if cfg.queue {
		opts = append(opts, hrtimer.WithQueue())
	}
	timer := hrtimer.New(opts...)
	defer timer.Close()

	firings := make(chan int32, 1)
	if reg := timer.Registry(); reg != nil {
		err := reg.Subscribe(func(overrun int32) {
			select {
			case firings <- overrun:
			case <-ctx.Done():
			}
		})
		if err != nil {
			return err
		}
	}
	if err := timer.Create(cfg.source, cfg.priority); err != nil {
		return err
	}
	if timer.Priority() != cfg.priority {
		log.Warningf("priority %d clamped to %d", cfg.priority, timer.Priority())
	}
	if q := timer.Queue(); q != nil {
		go func() {
			for {
				overrun, err := q.ReceiveContext(ctx)
				if err != nil {
					return
				}
				select {
				case firings <- int32(overrun):
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	armed := time.Now()
	if err := timer.Arm(cfg.interval, cfg.start, cfg.mode); err != nil {
		return err
	}
	fmt.Fprintf(w, "timer %d on %s clock armed: interval %v, %s start %v\n", timer.ID(), cfg.source, cfg.interval, cfg.mode, cfg.start)
	for n := 1; cfg.count == 0 || n <= cfg.count; n++ {
		select {
		case <-ctx.Done():
			return nil
		case overrun := <-firings:
			fmt.Fprintln(w, formatFiring(n, overrun, time.Since(armed)))
		}
	}
	return timer.Disarm()
}

func runTickCmd(_ *cobra.Command, _ []string) {
	ConfigureVerbosity()
	ConfigureScheduler()

	source, err := clock.ParseSource(tickClockFlag)
	if err != nil {
		log.Fatal(err)
	}
	mode, err := hrtimer.ParseMode(tickModeFlag)
	if err != nil {
		log.Fatal(err)
	}
	cfg := tickConfig{
		source:   source,
		priority: tickPriorityFlag,
		interval: tickIntervalFlag,
		start:    tickStartFlag,
		mode:     mode,
		queue:    tickQueueFlag,
		count:    tickCountFlag,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tick(ctx, cfg, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

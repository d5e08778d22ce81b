// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marin Skelhorn

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/skelhorn/aeolian/pkg/mgc3130"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream decoded sensor events to the terminal",
	Long: `Streams every decoded sensor event as a timestamped line.

Resets and configures the sensor, then polls the frame transport and prints
positions, gestures, touches and air-wheel rotation until interrupted.
On exit, prints a summary of everything seen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		backend, info, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close()

		fmt.Printf("Watching sensor events (%s)\n", info)
		fmt.Println("Press Ctrl+C to stop")
		fmt.Println(strings.Repeat("-", 60))

		dev := mgc3130.New(backend)
		if err := dev.Reset(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		if err := dev.Configure(ctx); err != nil {
			return fmt.Errorf("configure: %w", err)
		}

		var tracker mgc3130.AirWheelTracker
		err = dev.Poll(ctx, func(ev mgc3130.Event) {
			stamp := time.Now().Format("15:04:05.000")
			if wheel, ok := ev.(mgc3130.AirWheelSample); ok {
				tracker.Update(wheel.Raw)
				fmt.Printf("[%s] %s (%.2f turns)\n", stamp, wheel, tracker.Turns())
				return
			}
			fmt.Printf("[%s] %s\n", stamp, ev)
		})
		if errors.Is(err, context.Canceled) {
			fmt.Println()
			fmt.Println(dev.Stats().String())
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

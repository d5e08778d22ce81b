// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marin Skelhorn

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/skelhorn/aeolian/pkg/mgc3130"
	"github.com/spf13/cobra"
)

var firmwareTimeout int

var firmwareCmd = &cobra.Command{
	Use:   "firmware",
	Short: "Reset the sensor and report its firmware version",
	Long: `Resets the sensor and waits for its firmware announcement.

The sensor publishes its firmware version once after every reset, so this
doubles as a basic liveness check for the wiring and the transport.

Exit codes:
  0 - firmware version received
  1 - timeout waiting for the announcement
  2 - backend or sensor error`,
	Run: func(cmd *cobra.Command, args []string) {
		backend, info, err := openBackend()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		defer backend.Close()

		fmt.Printf("Querying firmware (%s)\n", info)
		fmt.Printf("Waiting up to %d seconds...\n", firmwareTimeout)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dev := mgc3130.New(backend)
		if err := dev.Reset(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: reset: %v\n", err)
			os.Exit(2)
		}

		versionChan := make(chan mgc3130.FirmwareVersion, 1)
		errChan := make(chan error, 1)

		go func() {
			for {
				events, err := dev.ReadEvents(ctx)
				if err != nil {
					if ctx.Err() == nil {
						errChan <- err
					}
					return
				}
				for _, ev := range events {
					if v, ok := ev.(mgc3130.FirmwareVersion); ok {
						versionChan <- v
						return
					}
				}
				if len(events) == 0 {
					time.Sleep(time.Millisecond)
				}
			}
		}()

		select {
		case v := <-versionChan:
			fmt.Println()
			fmt.Println("SUCCESS: firmware announcement received")
			fmt.Printf("  Version: %s\n", v.Version)
			os.Exit(0)

		case err := <-errChan:
			fmt.Fprintf(os.Stderr, "\nError reading from sensor: %v\n", err)
			os.Exit(2)

		case <-time.After(time.Duration(firmwareTimeout) * time.Second):
			fmt.Printf("\nTIMEOUT: no firmware announcement within %d seconds\n", firmwareTimeout)
			os.Exit(1)
		}
	},
}

func init() {
	firmwareCmd.Flags().IntVar(&firmwareTimeout, "timeout", 5, "Seconds to wait for the announcement")
	rootCmd.AddCommand(firmwareCmd)
}

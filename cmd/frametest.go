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

var (
	frameTestTimeout int
	frameTestSetup   bool
)

var frameTestCmd = &cobra.Command{
	Use:   "frame_test",
	Short: "Test frame transport by waiting for a single valid frame",
	Long: `Tests the frame transport by waiting for one valid sensor frame.

Polls the transfer line and reports the first frame whose header parses.
With --setup, resets and configures the sensor first; without it, the
command observes whatever the sensor is already streaming.

Exit codes:
  0 - valid frame received within timeout
  1 - timeout waiting for a frame
  2 - backend or sensor error`,
	Run: func(cmd *cobra.Command, args []string) {
		backend, info, err := openBackend()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		defer backend.Close()

		fmt.Printf("Testing frame transport (%s)\n", info)
		fmt.Printf("Waiting up to %d seconds for a valid frame...\n", frameTestTimeout)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if frameTestSetup {
			dev := mgc3130.New(backend)
			if err := dev.Reset(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error: reset: %v\n", err)
				os.Exit(2)
			}
			if err := dev.Configure(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error: configure: %v\n", err)
				os.Exit(2)
			}
		}

		frameChan := make(chan mgc3130.Frame, 1)
		errChan := make(chan error, 1)
		shortFrames := 0

		go func() {
			transport := mgc3130.NewTransport(backend)
			for {
				raw, ok, err := transport.TryRead(ctx)
				if err != nil {
					if ctx.Err() == nil {
						errChan <- err
					}
					return
				}
				if !ok {
					time.Sleep(time.Millisecond)
					continue
				}
				frame, ok := mgc3130.ParseFrame(raw)
				if !ok {
					shortFrames++
					continue
				}
				frameChan <- frame
				return
			}
		}()

		select {
		case frame := <-frameChan:
			fmt.Println()
			fmt.Println("SUCCESS: valid frame received")
			fmt.Printf("  Type:    %s (0x%02X)\n", mgc3130.IDName(frame.ID), frame.ID)
			fmt.Printf("  Size:    %d bytes\n", frame.Size)
			fmt.Printf("  Seq:     %d\n", frame.Seq)
			fmt.Printf("  Payload: %d bytes\n", len(frame.Payload))
			if shortFrames > 0 {
				fmt.Printf("  (%d short frames skipped)\n", shortFrames)
			}
			os.Exit(0)

		case err := <-errChan:
			fmt.Fprintf(os.Stderr, "\nError reading from sensor: %v\n", err)
			os.Exit(2)

		case <-time.After(time.Duration(frameTestTimeout) * time.Second):
			fmt.Printf("\nTIMEOUT: no valid frame within %d seconds\n", frameTestTimeout)
			fmt.Println("Check wiring, bus address and the transfer line.")
			os.Exit(1)
		}
	},
}

func init() {
	frameTestCmd.Flags().IntVar(&frameTestTimeout, "timeout", 10, "Seconds to wait for a valid frame")
	frameTestCmd.Flags().BoolVar(&frameTestSetup, "setup", false, "Reset and configure the sensor before listening")
	rootCmd.AddCommand(frameTestCmd)
}

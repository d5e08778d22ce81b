// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marin Skelhorn

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/skelhorn/aeolian/pkg/aether"
	"github.com/spf13/cobra"
)

var (
	pingTimeout int
	pingCount   int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test a bridge board link by sending PING_REQUEST packets",
	Long: `Send PING_REQUEST packets to a bridge board and wait for PING_RESPONSE.

The bridge firmware answers pings itself (the sensor is not involved), so
this verifies the serial or WebSocket link and the framing layer without
touching the bus.

This is useful for verifying:
  - The link is established
  - HTTP Basic authentication works (WebSocket)
  - The bridge firmware is processing packets
  - Bidirectional packet flow works

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
}

func runPing(cmd *cobra.Command, args []string) error {
	backend, connInfo, err := openBackend()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer backend.Close()

	bridge, ok := backend.(*aether.Bridge)
	if !ok {
		return fmt.Errorf("ping needs a bridge board link (--port or --url)")
	}

	fmt.Printf("Aeolian - Bridge Ping Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	successCount := 0
	failCount := 0
	sent := 0

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)
		sent++

		type pong struct {
			uptime time.Duration
			rtt    time.Duration
			err    error
		}
		resultChan := make(chan pong, 1)

		go func() {
			uptime, rtt, err := bridge.Ping()
			resultChan <- pong{uptime: uptime, rtt: rtt, err: err}
		}()

		timedOut := false
		select {
		case r := <-resultChan:
			if r.err != nil {
				fmt.Printf("FAILED: %v\n", r.err)
				failCount++
			} else {
				fmt.Printf("PONG from bridge, uptime=%s, rtt=%v\n",
					formatUptime(r.uptime), r.rtt.Round(time.Millisecond))
				successCount++
			}

		case <-time.After(time.Duration(pingTimeout) * time.Second):
			fmt.Printf("TIMEOUT (no response in %ds)\n", pingTimeout)
			failCount++
			timedOut = true
		}

		// A timed-out round trip still holds the bridge's transaction lock,
		// so further pings would only queue behind it.
		if timedOut {
			break
		}

		// Small delay between pings
		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	// Summary
	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d responses received, %.0f%% packet loss\n",
		sent, successCount, float64(failCount)/float64(sent)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}

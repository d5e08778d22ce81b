// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marin Skelhorn

package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	// Serial bridge flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Local bus flags
	busName     string
	busAddr     string
	resetPin    string
	transferPin string
	tonePin     string

	// Backend selection and logging
	useSim  bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "aeolian",
	Short: "MGC3130 gesture sensor console",
	Long: `Aeolian - A CLI tool for driving and monitoring MGC3130 gesture sensors.

Provides commands for streaming decoded gesture events, querying firmware,
exercising the frame transport, and playing expressive piezo feedback tones.

Backend selection:
  Local bus:  default; sensor wired to this host's header
              [--i2c-bus 1] [--i2c-addr 0x42] [--reset-pin GPIO17]
  Serial:     --port /dev/ttyUSB0 [--baud 115200] (bridge board)
  WebSocket:  --url ws://host/path [--username user] (bridge board)
  Simulator:  --sim (no hardware required)

For WebSocket authentication, the password is read from the AEOLIAN_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version: "1.2.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	},
}

func init() {
	// Serial bridge flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device of a bridge board")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket bridge flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL of a bridge board (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Local bus flags
	rootCmd.PersistentFlags().StringVar(&busName, "i2c-bus", "", "Bus name or number (default: first available)")
	rootCmd.PersistentFlags().StringVar(&busAddr, "i2c-addr", "0x42", "Sensor bus address")
	rootCmd.PersistentFlags().StringVar(&resetPin, "reset-pin", "", "Reset line pin name (default GPIO17)")
	rootCmd.PersistentFlags().StringVar(&transferPin, "xfer-pin", "", "Transfer-ready line pin name (default GPIO27)")
	rootCmd.PersistentFlags().StringVar(&tonePin, "tone-pin", "", "Speaker PWM pin name (default GPIO13)")

	rootCmd.PersistentFlags().BoolVar(&useSim, "sim", false, "Drive a built-in sensor simulator instead of hardware")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

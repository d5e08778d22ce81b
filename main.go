// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn
//
// Aeolian - MGC3130 gesture sensor console
//
// A CLI tool for driving, monitoring and testing MGC3130 gesture sensors
// over a local bus or a bridge board.

package main

import (
	"os"

	"github.com/skelhorn/aeolian/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

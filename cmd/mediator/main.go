// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Command mediator runs the DIDComm mediator: the envelope pipeline, the
// Coordinate Mediation and Message Pickup protocol handlers, and the
// minimal HTTP surface they're exposed over.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mediator",
	Short: "DIDComm mediator - store-and-forward relay for intermittently connected agents",
	Long: `mediator accepts encrypted DIDComm messages on behalf of registered
clients, queues messages addressed to their recipient keys, and forwards
them on request via the Message Pickup protocol.`,
}

func main() {
	// Mirrors the original Rust source's load_dot_env(): load .env before
	// any environment variable is read, silently ignoring its absence.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

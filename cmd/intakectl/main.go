// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package main is intakectl, the operator CLI for the audio intake service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL  string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "intakectl",
	Short: "Operator tooling for the audio intake service",
	Long: `intakectl drives the operational endpoints of a running audio intake
service: diarization health and stats for root-causing pipeline failures,
and the retention jobs for scratch and aged recordings.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	defaultServer := os.Getenv("INTAKE_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "base URL of the intake API")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON output")
}

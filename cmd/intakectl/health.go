// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

var healthRefresh bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check diarization engine health",
	Long: `Runs the diarization health probe on the server. The probe result is
cached server-side; --refresh forces a new probe. Exits 0 when the engine
is available, 1 otherwise.`,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthRefresh, "refresh", false, "bypass the cached probe result")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	path := "/v1/diarization/health"
	if healthRefresh {
		path += "?refresh=true"
	}

	var result models.HealthCheckResult
	if err := apiGet(cmd.Context(), path, &result); err != nil {
		return err
	}

	if jsonOutput {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		printHealth(&result)
	}

	if !result.Available {
		os.Exit(1)
	}
	return nil
}

func printHealth(result *models.HealthCheckResult) {
	if result.Available {
		fmt.Println("Diarization engine: AVAILABLE")
	} else {
		fmt.Println("Diarization engine: UNAVAILABLE")
	}
	fmt.Printf("Checked at: %s\n", result.CheckedAt.Format("2006-01-02 15:04:05 MST"))

	names := make([]string, 0, len(result.Checks))
	for name := range result.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		check := result.Checks[name]
		fmt.Printf("  [%s] %s: %s\n", check.Status, name, check.Message)
	}

	for _, warning := range result.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
	for _, errMsg := range result.Errors {
		fmt.Printf("error: %s\n", errMsg)
	}
}

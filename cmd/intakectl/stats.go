// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/patrimonia-app/audio-intake-service/internal/service"
)

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show diarization success rate and failure breakdown",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "trailing window in days")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	var report service.DiarizationStatsReport
	path := fmt.Sprintf("/v1/diarization/stats?days=%d", statsDays)
	if err := apiGet(cmd.Context(), path, &report); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(report)
	}

	fmt.Printf("Diarization stats, last %d days\n", report.WindowDays)
	fmt.Printf("  attempts:     %d\n", report.TotalAttempts)
	fmt.Printf("  success rate: %.1f%%\n", report.SuccessRate*100)
	fmt.Printf("  avg duration: %dms\n", report.AvgDurationMs)
	for status, count := range report.StatusBreakdown {
		fmt.Printf("  %-9s %d\n", status+":", count)
	}
	if len(report.TopErrors) > 0 {
		fmt.Println("Top errors:")
		for _, e := range report.TopErrors {
			fmt.Printf("  %3dx %s\n", e.Count, e.Message)
		}
	}
	if report.Critical {
		fmt.Printf("CRITICAL: %d consecutive failures\n", report.ConsecutiveFail)
	}
	return nil
}

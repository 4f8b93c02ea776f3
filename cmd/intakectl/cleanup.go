// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/patrimonia-app/audio-intake-service/internal/service"
)

var (
	cleanupHours  int
	cleanupDryRun bool

	purgeDays                  int
	purgeDryRun                bool
	purgeIncludeTranscriptions bool
	purgeTeam                  string
)

var cleanupTempCmd = &cobra.Command{
	Use:   "cleanup-temp",
	Short: "Remove aged scratch audio files",
	Long: `Sweeps scratch files (concatenated and extracted audio, diarization
results) older than the given age. Normal pipeline runs clean up after
themselves; this catches files orphaned by crashes.`,
	RunE: runCleanupTemp,
}

var purgeOldCmd = &cobra.Command{
	Use:   "purge-old",
	Short: "Purge terminal recording sessions past the retention window",
	RunE:  runPurgeOld,
}

func init() {
	cleanupTempCmd.Flags().IntVar(&cleanupHours, "hours", 24, "minimum age in hours")
	cleanupTempCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "report without deleting")
	rootCmd.AddCommand(cleanupTempCmd)

	purgeOldCmd.Flags().IntVar(&purgeDays, "days", 30, "retention window in days")
	purgeOldCmd.Flags().BoolVar(&purgeDryRun, "dry-run", false, "report without deleting")
	purgeOldCmd.Flags().BoolVar(&purgeIncludeTranscriptions, "include-transcriptions", false,
		"also delete transcript-bearing audio records past the window")
	purgeOldCmd.Flags().StringVar(&purgeTeam, "team", "", "restrict the purge to one team")
	rootCmd.AddCommand(purgeOldCmd)
}

func runCleanupTemp(cmd *cobra.Command, _ []string) error {
	body := map[string]any{"hours": cleanupHours, "dry_run": cleanupDryRun}

	var report service.CleanupReport
	if err := apiPost(cmd.Context(), "/v1/admin/cleanup-temp", body, &report); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(report)
	}

	verb := "removed"
	if report.DryRun {
		verb = "would remove"
	}
	fmt.Printf("%s %d scratch file(s)\n", verb, len(report.ScratchRemoved))
	for _, path := range report.ScratchRemoved {
		fmt.Printf("  %s\n", path)
	}
	return nil
}

func runPurgeOld(cmd *cobra.Command, _ []string) error {
	body := map[string]any{
		"days":                   purgeDays,
		"dry_run":                purgeDryRun,
		"include_transcriptions": purgeIncludeTranscriptions,
		"team":                   purgeTeam,
	}

	var report service.CleanupReport
	if err := apiPost(cmd.Context(), "/v1/admin/purge-old", body, &report); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(report)
	}

	verb := "purged"
	if report.DryRun {
		verb = "would purge"
	}
	fmt.Printf("%s %d session(s), skipped %d still in window\n",
		verb, len(report.SessionsPurged), report.SessionsSkipped)
	if purgeIncludeTranscriptions {
		fmt.Printf("%s %d audio record(s)\n", verb, len(report.RecordsDeleted))
	}
	return nil
}

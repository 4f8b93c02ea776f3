// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package service implements the business logic of the audio intake
// pipeline: chunk intake, the finalize state machine, and the merge review
// workflow.
package service

import (
	"github.com/patrimonia-app/audio-intake-service/internal/config"
)

// ServiceConfig holds the settings the services need beyond their injected
// dependencies.
type ServiceConfig struct {
	// GapPolicy is surfaced here so the pipeline can log which policy handled
	// a gap without reaching into the chunk store.
	GapPolicy config.GapPolicy
	// CleanupWorkers bounds the scratch cleanup fan-out.
	CleanupWorkers int
}

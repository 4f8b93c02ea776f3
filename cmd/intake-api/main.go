// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package main is the audio intake API: it accepts chunk uploads and review
// requests over HTTP and runs the finalize pipeline on NATS queue workers.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/patrimonia-app/audio-intake-service/internal/config"
	"github.com/patrimonia-app/audio-intake-service/internal/handlers"
	"github.com/patrimonia-app/audio-intake-service/internal/infrastructure/audioproc"
	"github.com/patrimonia-app/audio-intake-service/internal/infrastructure/chunkstore"
	"github.com/patrimonia-app/audio-intake-service/internal/infrastructure/diarization"
	"github.com/patrimonia-app/audio-intake-service/internal/infrastructure/messaging"
	"github.com/patrimonia-app/audio-intake-service/internal/infrastructure/transcription"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
	"github.com/patrimonia-app/audio-intake-service/internal/service"
)

func main() {
	var configPath = flag.String("c", os.Getenv("INTAKE_CONFIG"), "path to the YAML config file")
	var debug = flag.Bool("d", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error loading configuration")
		os.Exit(1)
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		slog.With(logging.ErrKey, err).Error("invalid configuration")
		os.Exit(1)
	}

	logging.InitStructuredLog(cfg.LogLevel)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	// Setup NATS connection
	natsConn, err := setupNATS(ctx, cfg, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	// Get the key-value stores for the service.
	repos, err := getKeyValueStores(ctx, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting key-value stores")
		return
	}

	// Infrastructure adapters around the external tools.
	runner := audioproc.NewExecRunner()
	chunkStore := chunkstore.NewFSChunkStore(cfg.Chunks.Dir, cfg.Chunks.GapPolicy)
	scratchStore := chunkstore.NewFSScratchStore(cfg.Scratch.Dir)
	concatenator := audioproc.NewFFmpegConcatenator(runner, scratchStore)
	extractor := audioproc.NewFFmpegSegmentExtractor(runner, scratchStore)
	diarizationEngine := diarization.NewPythonEngine(cfg.Diarization, runner, scratchStore)
	transcriber := transcription.NewFailoverTranscriber(cfg.Transcription, runner)

	// Initialize services
	serviceConfig := service.ServiceConfig{
		GapPolicy:      cfg.Chunks.GapPolicy,
		CleanupWorkers: cfg.Workers.Count,
	}
	messageBuilder := messaging.NewMessageBuilder(natsConn)
	sessionService := service.NewRecordingSessionService(
		repos.RecordingSession,
		chunkStore,
		messageBuilder,
		serviceConfig,
	)
	pipelineService := service.NewRecordingPipelineService(
		repos.RecordingSession,
		repos.AudioRecord,
		repos.DiarizationLog,
		chunkStore,
		concatenator,
		diarizationEngine,
		extractor,
		transcriber,
		messageBuilder,
		serviceConfig,
	)
	pendingChangeService := service.NewPendingChangeService(
		repos.PendingChange,
		repos.ClientProfile,
		repos.AudioRecord,
		messageBuilder,
		serviceConfig,
	)
	statsService := service.NewDiarizationStatsService(repos.DiarizationLog)
	retentionService := service.NewRetentionService(
		repos.RecordingSession,
		repos.AudioRecord,
		chunkStore,
		scratchStore,
		serviceConfig,
	)

	// Initialize handlers
	intakeHandler := handlers.NewIntakeHandlers(pipelineService, pendingChangeService)

	api := NewIntakeAPI(
		sessionService,
		pendingChangeService,
		statsService,
		retentionService,
		diarizationEngine,
		natsConn,
	)

	httpServer := setupHTTPServer(cfg, api, &gracefulCloseWG)

	// Create NATS subscriptions for the service.
	if err := createNatsSubscriptions(ctx, intakeHandler, natsConn); err != nil {
		slog.With(logging.ErrKey, err).Error("error creating NATS subscriptions")
		return
	}

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, natsConn, &gracefulCloseWG, cancel)
}

// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/patrimonia-app/audio-intake-service/internal/config"
	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/internal/infrastructure/messaging"
	"github.com/patrimonia-app/audio-intake-service/internal/infrastructure/store"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// gracefulShutdownSeconds is how long shutdown waits for in-flight work.
const gracefulShutdownSeconds = 25

// setupNATS connects to the NATS server used for both storage and messaging.
func setupNATS(ctx context.Context, cfg *config.Config, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	natsConn, err := nats.Connect(
		cfg.NATS.URL,
		nats.DrainTimeout(gracefulShutdownSeconds*time.Second),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection established", "nats_url", cfg.NATS.URL)
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.ErrorContext(ctx, "async NATS error", logging.ErrKey, err, "subject", s.Subject, "queue", s.Queue)
				return
			}
			slog.ErrorContext(ctx, "async NATS error outside subscription", logging.ErrKey, err)
		}),
		nats.ClosedHandler(func(conn *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection closed", logging.ErrKey, conn.LastError())
			gracefulCloseWG.Done()
			done <- os.Interrupt
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", cfg.NATS.URL, err)
	}

	// Accounted for by the ClosedHandler above.
	gracefulCloseWG.Add(1)

	return natsConn, nil
}

// repositories bundles the KV-backed repositories handed to the services.
type repositories struct {
	RecordingSession domain.RecordingSessionRepository
	AudioRecord      domain.AudioRecordRepository
	DiarizationLog   domain.DiarizationLogRepository
	PendingChange    domain.PendingChangeRepository
	ClientProfile    domain.ClientProfileRepository
}

// getKeyValueStores binds (creating when absent) the JetStream KV buckets
// and wraps them in the entity repositories.
func getKeyValueStores(ctx context.Context, natsConn *nats.Conn) (*repositories, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	buckets := make(map[string]jetstream.KeyValue)
	for _, bucket := range []string{
		store.KVStoreNameRecordingSessions,
		store.KVStoreNameAudioRecords,
		store.KVStoreNameDiarizationLogs,
		store.KVStoreNamePendingChanges,
		store.KVStoreNameClientProfiles,
	} {
		kv, err := js.KeyValue(ctx, bucket)
		if err != nil {
			kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: bucket})
			if err != nil {
				return nil, fmt.Errorf("binding KV bucket %s: %w", bucket, err)
			}
		}
		buckets[bucket] = kv
	}

	return &repositories{
		RecordingSession: store.NewNatsRecordingSessionRepository(buckets[store.KVStoreNameRecordingSessions]),
		AudioRecord:      store.NewNatsAudioRecordRepository(buckets[store.KVStoreNameAudioRecords]),
		DiarizationLog:   store.NewNatsDiarizationLogRepository(buckets[store.KVStoreNameDiarizationLogs]),
		PendingChange:    store.NewNatsPendingChangeRepository(buckets[store.KVStoreNamePendingChanges]),
		ClientProfile:    store.NewNatsClientProfileRepository(buckets[store.KVStoreNameClientProfiles]),
	}, nil
}

// createNatsSubscriptions subscribes the intake handler to its subjects.
// Queue subscriptions give single delivery per job across the worker fleet.
func createNatsSubscriptions(ctx context.Context, handler domain.MessageHandler, natsConn *nats.Conn) error {
	subjects := []string{
		models.RecordingFinalizeSubject,
		models.ExtractionCompletedSubject,
	}

	for _, subject := range subjects {
		_, err := natsConn.QueueSubscribe(subject, models.IntakeQueue, func(msg *nats.Msg) {
			handler.HandleMessage(ctx, messaging.NewNatsMsg(msg))
		})
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", subject, err)
		}
		slog.InfoContext(ctx, "subscribed to NATS subject", "subject", subject, "queue", models.IntakeQueue)
	}

	return nil
}

// gracefulShutdown drains NATS and stops the HTTP server, bounded by the
// shutdown budget.
func gracefulShutdown(httpServer *http.Server, natsConn *nats.Conn, gracefulCloseWG *sync.WaitGroup, cancel context.CancelFunc) {
	slog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.With(logging.ErrKey, err).Error("error shutting down HTTP server")
	}
	gracefulCloseWG.Done()

	if natsConn != nil && !natsConn.IsClosed() {
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
		}
	}

	gracefulCloseWG.Wait()
	slog.Info("shutdown complete")
}

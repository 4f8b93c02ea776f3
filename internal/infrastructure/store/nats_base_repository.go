// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package store contains the NATS JetStream KV backed repositories for the
// audio intake service's entities.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// NATS Key-Value store bucket names
const (
	KVStoreNameRecordingSessions = "recording-sessions"
	KVStoreNameAudioRecords      = "audio-records"
	KVStoreNameDiarizationLogs   = "diarization-logs"
	KVStoreNamePendingChanges    = "client-pending-changes"
	KVStoreNameClientProfiles    = "client-profiles"
)

// tracerName is the instrumentation name for the store package.
const tracerName = "github.com/patrimonia-app/audio-intake-service/internal/infrastructure/store"

// INatsKeyValue is the slice of the jetstream.KeyValue API the repositories
// need; narrowed so tests can substitute a fake.
type INatsKeyValue interface {
	ListKeys(context.Context, ...jetstream.WatchOpt) (jetstream.KeyLister, error)
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Create(context.Context, string, []byte) (uint64, error)
	Update(context.Context, string, []byte, uint64) (uint64, error)
	Delete(context.Context, string, ...jetstream.KVDeleteOpt) error
}

// NatsBaseRepository provides common NATS KV operations shared by all the
// entity repositories.
type NatsBaseRepository[T any] struct {
	kvStore    INatsKeyValue
	entityName string // Used in error messages (e.g., "recording session")
}

// NewNatsBaseRepository creates a new base repository for NATS KV operations
func NewNatsBaseRepository[T any](kvStore INatsKeyValue, entityName string) *NatsBaseRepository[T] {
	return &NatsBaseRepository[T]{
		kvStore:    kvStore,
		entityName: entityName,
	}
}

// IsReady checks if the repository is ready for use
func (r *NatsBaseRepository[T]) IsReady() bool {
	return r.kvStore != nil
}

// startSpan opens a client span for a KV operation with the shared db
// attributes. Callers close it via defer.
func (r *NatsBaseRepository[T]) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		attribute.String("db.system", "nats"),
		attribute.String("db.operation", op),
		attribute.String("db.nats.entity", r.entityName),
	}, attrs...)

	return otel.Tracer(tracerName).Start(ctx, "nats.kv."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(all...),
	)
}

// failSpan records err on the span with the given status text and returns it.
func failSpan(span trace.Span, status string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}

// guardReady records and returns an unavailable error when the bucket has not
// been wired up.
func (r *NatsBaseRepository[T]) guardReady(span trace.Span) error {
	if r.IsReady() {
		return nil
	}
	err := domain.NewUnavailableError(fmt.Sprintf("%s repository is not available", r.entityName))
	return failSpan(span, err.Error(), err)
}

// Get retrieves and unmarshals an entity from NATS KV store
func (r *NatsBaseRepository[T]) Get(ctx context.Context, key string) (*T, error) {
	entity, _, err := r.GetWithRevision(ctx, key)
	return entity, err
}

// GetWithRevision retrieves an entity with its revision from NATS KV store
func (r *NatsBaseRepository[T]) GetWithRevision(ctx context.Context, key string) (*T, uint64, error) {
	ctx, span := r.startSpan(ctx, "get", attribute.String("db.nats.key", key))
	defer span.End()

	if err := r.guardReady(span); err != nil {
		return nil, 0, err
	}

	entry, err := r.kvStore.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			notFound := domain.NewNotFoundError(
				fmt.Sprintf("%s with key '%s' not found", r.entityName, key), err)
			return nil, 0, failSpan(span, "not found", notFound)
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error getting %s from NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		internal := domain.NewInternalError(
			fmt.Sprintf("failed to retrieve %s from store", r.entityName), err)
		return nil, 0, failSpan(span, internal.Error(), internal)
	}

	var entity T
	if err := json.Unmarshal(entry.Value(), &entity); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("error unmarshaling %s", r.entityName),
			logging.ErrKey, err, "key", key)
		internal := domain.NewInternalError(
			fmt.Sprintf("failed to unmarshal %s data", r.entityName), err)
		return nil, 0, failSpan(span, internal.Error(), internal)
	}

	span.SetStatus(codes.Ok, "")
	return &entity, entry.Revision(), nil
}

// Exists checks if an entity exists in the store
func (r *NatsBaseRepository[T]) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.Get(ctx, key)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *NatsBaseRepository[T]) encode(ctx context.Context, entity *T) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("error marshaling %s", r.entityName),
			logging.ErrKey, err)
		return nil, domain.NewInternalError(
			fmt.Sprintf("failed to marshal %s", r.entityName), err)
	}
	return data, nil
}

// Create inserts a new entity in the store. The KV create is a CAS insert,
// so a concurrent create of the same key surfaces as a conflict instead of a
// silent overwrite.
func (r *NatsBaseRepository[T]) Create(ctx context.Context, key string, entity *T) error {
	ctx, span := r.startSpan(ctx, "create", attribute.String("db.nats.key", key))
	defer span.End()

	if err := r.guardReady(span); err != nil {
		return err
	}

	data, err := r.encode(ctx, entity)
	if err != nil {
		return failSpan(span, err.Error(), err)
	}

	if _, err := r.kvStore.Create(ctx, key, data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			conflict := domain.NewConflictError(
				fmt.Sprintf("%s with key '%s' already exists", r.entityName, key), err)
			return failSpan(span, "conflict", conflict)
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error creating %s in NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		internal := domain.NewInternalError(
			fmt.Sprintf("failed to create %s in store", r.entityName), err)
		return failSpan(span, internal.Error(), internal)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Update updates an existing entity in the store with optimistic concurrency control
func (r *NatsBaseRepository[T]) Update(ctx context.Context, key string, entity *T, revision uint64) error {
	ctx, span := r.startSpan(ctx, "update",
		attribute.String("db.nats.key", key),
		attribute.Int64("db.nats.revision", int64(revision)),
	)
	defer span.End()

	if err := r.guardReady(span); err != nil {
		return err
	}

	data, err := r.encode(ctx, entity)
	if err != nil {
		return failSpan(span, err.Error(), err)
	}

	if _, err := r.kvStore.Update(ctx, key, data, revision); err != nil {
		switch {
		case errors.Is(err, jetstream.ErrKeyNotFound):
			notFound := domain.NewNotFoundError(fmt.Sprintf("%s not found", r.entityName), err)
			return failSpan(span, "not found", notFound)
		// jetstream surfaces a CAS miss as a plain API error, so the message
		// text is the only discriminator available.
		case strings.Contains(err.Error(), "wrong last sequence"):
			conflict := domain.NewConflictError(fmt.Sprintf("%s has been modified", r.entityName), err)
			return failSpan(span, "conflict", conflict)
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error updating %s in NATS KV", r.entityName),
			logging.ErrKey, err, "key", key, "revision", revision)
		internal := domain.NewInternalError(
			fmt.Sprintf("failed to update %s in store", r.entityName), err)
		return failSpan(span, internal.Error(), internal)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// DeleteWithoutRevision removes an entity from the store without revision
// checking. Used by cleanup jobs where last-writer-wins is acceptable.
func (r *NatsBaseRepository[T]) DeleteWithoutRevision(ctx context.Context, key string) error {
	ctx, span := r.startSpan(ctx, "delete", attribute.String("db.nats.key", key))
	defer span.End()

	if err := r.guardReady(span); err != nil {
		return err
	}

	if err := r.kvStore.Delete(ctx, key); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			notFound := domain.NewNotFoundError(fmt.Sprintf("%s not found", r.entityName), err)
			return failSpan(span, "not found", notFound)
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error deleting %s from NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		internal := domain.NewInternalError(
			fmt.Sprintf("failed to delete %s from store", r.entityName), err)
		return failSpan(span, internal.Error(), internal)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListKeys lists all keys in the store
func (r *NatsBaseRepository[T]) ListKeys(ctx context.Context) ([]string, error) {
	ctx, span := r.startSpan(ctx, "list_keys")
	defer span.End()

	if err := r.guardReady(span); err != nil {
		return nil, err
	}

	lister, err := r.kvStore.ListKeys(ctx)
	if err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("error listing %s keys from NATS KV", r.entityName),
			logging.ErrKey, err)
		internal := domain.NewInternalError(
			fmt.Sprintf("failed to list %s keys from store", r.entityName), err)
		return nil, failSpan(span, internal.Error(), internal)
	}

	var keys []string
	for key := range lister.Keys() {
		keys = append(keys, key)
	}

	span.SetAttributes(attribute.Int("db.nats.keys_count", len(keys)))
	span.SetStatus(codes.Ok, "")
	return keys, nil
}

// ListEntities lists all entities in the bucket. Entries that fail to load
// are skipped with a warning so one corrupt record cannot poison a listing.
func (r *NatsBaseRepository[T]) ListEntities(ctx context.Context) ([]*T, error) {
	keys, err := r.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	var entities []*T
	for _, key := range keys {
		entity, err := r.Get(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, fmt.Sprintf("failed to get %s, skipping", r.entityName),
				"key", key, logging.ErrKey, err)
			continue
		}

		entities = append(entities, entity)
	}

	return entities, nil
}

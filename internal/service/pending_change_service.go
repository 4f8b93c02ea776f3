// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
	"github.com/patrimonia-app/audio-intake-service/pkg/normalize"
)

// PendingChangeService computes field-level diffs between freshly extracted
// data and the live client profile, and applies reviewed decisions.
type PendingChangeService struct {
	pendingChangeRepository domain.PendingChangeRepository
	clientRepository        domain.ClientProfileRepository
	audioRecordRepository   domain.AudioRecordRepository
	messageBuilder          domain.MessageBuilder
	config                  ServiceConfig
}

// NewPendingChangeService creates a new PendingChangeService.
func NewPendingChangeService(
	pendingChangeRepository domain.PendingChangeRepository,
	clientRepository domain.ClientProfileRepository,
	audioRecordRepository domain.AudioRecordRepository,
	messageBuilder domain.MessageBuilder,
	serviceConfig ServiceConfig,
) *PendingChangeService {
	return &PendingChangeService{
		pendingChangeRepository: pendingChangeRepository,
		clientRepository:        clientRepository,
		audioRecordRepository:   audioRecordRepository,
		messageBuilder:          messageBuilder,
		config:                  serviceConfig,
	}
}

// ServiceReady checks if the service is ready to serve requests.
func (s *PendingChangeService) ServiceReady() bool {
	return s.pendingChangeRepository != nil &&
		s.clientRepository != nil &&
		s.audioRecordRepository != nil &&
		s.messageBuilder != nil
}

// CreateFromExtraction turns the extraction service's structured output into
// a pending change with a computed diff. The diff is computed exactly once,
// here; review never recomputes it.
func (s *PendingChangeService) CreateFromExtraction(ctx context.Context, msg models.ExtractionCompletedMessage) (*models.ClientPendingChange, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}

	if msg.ClientUID == "" {
		return nil, domain.NewValidationError("client UID is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("client_uid", msg.ClientUID))

	profile, err := s.clientRepository.Get(ctx, msg.ClientUID)
	if err != nil {
		slog.ErrorContext(ctx, "error loading client profile", logging.ErrKey, err)
		return nil, err
	}

	diff := ComputeDiff(profile, msg.ExtractedData, msg.RelationalData)

	now := time.Now().UTC()
	change := &models.ClientPendingChange{
		UID:            uuid.New().String(),
		ClientUID:      msg.ClientUID,
		UserID:         msg.UserID,
		TeamID:         msg.TeamID,
		AudioRecordUID: msg.AudioRecordUID,
		ExtractedData:  msg.ExtractedData,
		RelationalData: msg.RelationalData,
		ChangesDiff:    diff,
		Status:         models.PendingChangeStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.pendingChangeRepository.Create(ctx, change); err != nil {
		slog.ErrorContext(ctx, "error creating pending change", logging.ErrKey, err)
		return nil, err
	}

	s.markRecordExtracted(ctx, msg.AudioRecordUID)

	slog.InfoContext(ctx, "pending change created",
		"pending_change_uid", change.UID,
		"fields", len(diff),
		"audio_record_uid", msg.AudioRecordUID,
	)

	return change, nil
}

// markRecordExtracted moves the source audio record out of the pending
// state. Best effort: a stale record status never blocks the review flow.
func (s *PendingChangeService) markRecordExtracted(ctx context.Context, recordUID string) {
	if recordUID == "" {
		return
	}
	record, revision, err := s.audioRecordRepository.GetWithRevision(ctx, recordUID)
	if err != nil {
		slog.WarnContext(ctx, "error loading audio record after extraction", logging.ErrKey, err, "audio_record_uid", recordUID)
		return
	}
	record.Status = models.AudioRecordStatusExtracted
	record.UpdatedAt = time.Now().UTC()
	if err := s.audioRecordRepository.Update(ctx, record, revision); err != nil {
		slog.WarnContext(ctx, "error updating audio record status", logging.ErrKey, err, "audio_record_uid", recordUID)
	}
}

// GetChange returns a pending change after checking team ownership.
func (s *PendingChangeService) GetChange(ctx context.Context, changeUID, teamID string) (*models.ClientPendingChange, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}

	change, err := s.pendingChangeRepository.Get(ctx, changeUID)
	if err != nil {
		return nil, err
	}
	if change.TeamID != teamID {
		return nil, domain.NewForbiddenError("pending change belongs to another team")
	}
	return change, nil
}

// ComputeDiff compares extracted scalar fields against the current profile
// and summarizes proposed collection batches. Extracted fields outside the
// known schema are ignored.
func ComputeDiff(profile *models.ClientProfile, extracted map[string]any, relational map[string][]map[string]any) []models.FieldDiff {
	var diff []models.FieldDiff

	for _, spec := range models.ScalarFieldSchema() {
		newValue, present := extracted[spec.Name]
		if !present {
			continue
		}

		currentValue := spec.Get(profile)
		hasChange := !normalize.IsEmpty(newValue) && !normalize.EqualValues(currentValue, newValue)

		diff = append(diff, models.FieldDiff{
			Field:          spec.Name,
			CurrentValue:   currentValue,
			NewValue:       newValue,
			HasChange:      hasChange,
			IsConflict:     hasChange && !normalize.IsEmpty(currentValue),
			IsCritical:     spec.Critical,
			RequiresReview: (hasChange && !normalize.IsEmpty(currentValue)) || spec.Critical,
		})
	}

	// Collections always require human review: accumulate-vs-replace and
	// item matching are judgment calls the diff cannot settle.
	for _, kind := range models.AllCollectionKinds {
		items, present := relational[string(kind)]
		if !present {
			continue
		}
		diff = append(diff, models.FieldDiff{
			Field:          string(kind),
			CurrentValue:   currentCollectionSummary(profile, kind),
			NewValue:       items,
			DisplayValue:   proposedCollectionSummary(kind, items),
			HasChange:      len(items) > 0,
			IsRelational:   true,
			RequiresReview: true,
		})
	}

	return diff
}

// ApplyResult reports the outcome of one review.
type ApplyResult struct {
	Applied  []string              `json:"applied"`
	Rejected []string              `json:"rejected"`
	Profile  *models.ClientProfile `json:"profile"`
}

// ApplyChanges applies the reviewer's decisions. All accepted mutations are
// staged on an in-memory copy of the profile and written in one
// revision-checked update, so a failure anywhere leaves the profile
// untouched. Fields without a decision stay untouched too.
func (s *PendingChangeService) ApplyChanges(
	ctx context.Context,
	changeUID string,
	decisions map[string]models.Decision,
	rejectReasons map[string]string,
	overrides map[string]any,
	reviewerID string,
) (*ApplyResult, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if reviewerID == "" {
		return nil, domain.NewValidationError("reviewer ID is required")
	}
	if len(decisions) == 0 {
		return nil, domain.NewValidationError("at least one decision is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("pending_change_uid", changeUID))

	change, changeRevision, err := s.pendingChangeRepository.GetWithRevision(ctx, changeUID)
	if err != nil {
		return nil, err
	}
	if change.IsReviewed() {
		return nil, domain.NewConflictError("pending change already reviewed")
	}

	profile, profileRevision, err := s.clientRepository.GetWithRevision(ctx, change.ClientUID)
	if err != nil {
		slog.ErrorContext(ctx, "error loading client profile", logging.ErrKey, err, "client_uid", change.ClientUID)
		return nil, err
	}

	applied, rejected, err := s.stageDecisions(change, profile, decisions, overrides)
	if err != nil {
		return nil, err
	}

	// The profile and the change status live in separate buckets, so the two
	// writes below are not atomic. If the status write fails after the
	// profile write landed, the change stays pending and a retried review
	// re-stages the same values onto the already-merged profile: scalar sets
	// are plain overwrites and the collection rules match existing items
	// before inserting, so the retry converges on the same profile state.
	if len(applied) > 0 {
		profile.UpdatedAt = time.Now().UTC()
		if err := s.clientRepository.Update(ctx, profile, profileRevision); err != nil {
			slog.ErrorContext(ctx, "error updating client profile", logging.ErrKey, err, "client_uid", change.ClientUID)
			return nil, err
		}
	}

	now := time.Now().UTC()
	if len(rejected) == 0 {
		change.Status = models.PendingChangeStatusApplied
	} else if len(applied) == 0 {
		change.Status = models.PendingChangeStatusRejected
	} else {
		change.Status = models.PendingChangeStatusPartiallyApplied
	}
	change.UserDecisions = decisions
	change.RejectReasons = rejectReasons
	change.ReviewedBy = reviewerID
	change.ReviewedAt = &now
	change.AppliedAt = &now
	change.UpdatedAt = now
	if err := s.pendingChangeRepository.Update(ctx, change, changeRevision); err != nil {
		slog.ErrorContext(ctx, "error updating pending change after review", logging.ErrKey, err)
		return nil, err
	}

	err = s.messageBuilder.SendMergeAudit(ctx, models.MergeAuditMessage{
		PendingChangeUID: change.UID,
		ClientUID:        change.ClientUID,
		ReviewedBy:       reviewerID,
		AppliedFields:    applied,
		RejectedFields:   rejected,
		AppliedAt:        now,
	})
	if err != nil {
		slog.WarnContext(ctx, "error publishing merge audit event", logging.ErrKey, err)
	}

	slog.InfoContext(ctx, "pending change reviewed",
		"status", change.Status,
		"applied", len(applied),
		"rejected", len(rejected),
		"reviewed_by", reviewerID,
	)

	return &ApplyResult{Applied: applied, Rejected: rejected, Profile: profile}, nil
}

// stageDecisions mutates the in-memory profile copy per the decisions and
// returns the applied and rejected field names. Any error aborts staging
// before anything is persisted.
func (s *PendingChangeService) stageDecisions(
	change *models.ClientPendingChange,
	profile *models.ClientProfile,
	decisions map[string]models.Decision,
	overrides map[string]any,
) (applied, rejected []string, err error) {
	// Iterate the immutable diff so ordering is deterministic and decisions
	// on fields outside the diff are caught.
	decided := make(map[string]bool, len(decisions))
	for _, fieldDiff := range change.ChangesDiff {
		decision, present := decisions[fieldDiff.Field]
		if !present {
			continue
		}
		decided[fieldDiff.Field] = true

		if decision == models.DecisionReject {
			rejected = append(rejected, fieldDiff.Field)
			continue
		}
		if decision != models.DecisionAccept {
			return nil, nil, domain.NewValidationError(
				fmt.Sprintf("invalid decision %q for field %q", decision, fieldDiff.Field))
		}

		if fieldDiff.IsRelational {
			kind, ok := models.ParseCollectionKind(fieldDiff.Field)
			if !ok {
				return nil, nil, domain.NewValidationError("unknown collection " + fieldDiff.Field)
			}
			if err := syncCollection(profile, kind, change.RelationalData[fieldDiff.Field]); err != nil {
				return nil, nil, err
			}
			applied = append(applied, fieldDiff.Field)
			continue
		}

		spec, ok := models.FieldSpecByName(fieldDiff.Field)
		if !ok {
			return nil, nil, domain.NewValidationError("unknown field " + fieldDiff.Field)
		}
		raw := fieldDiff.NewValue
		if override, hasOverride := overrides[fieldDiff.Field]; hasOverride {
			raw = override
		}
		value, parseErr := spec.Type.ParseValue(raw)
		if parseErr != nil {
			return nil, nil, domain.NewValidationError(
				fmt.Sprintf("invalid value for field %q", fieldDiff.Field), parseErr)
		}
		spec.Set(profile, value)
		applied = append(applied, fieldDiff.Field)
	}

	for field := range decisions {
		if !decided[field] {
			return nil, nil, domain.NewValidationError("decision on field not in diff: " + field)
		}
	}

	return applied, rejected, nil
}

// AutoApplySafeChanges accepts every changed field that is neither a
// conflict nor critical, leaves the rest undecided, and applies.
func (s *PendingChangeService) AutoApplySafeChanges(ctx context.Context, changeUID, reviewerID string) (*ApplyResult, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}

	change, err := s.pendingChangeRepository.Get(ctx, changeUID)
	if err != nil {
		return nil, err
	}

	decisions := make(map[string]models.Decision)
	for _, fieldDiff := range change.ChangesDiff {
		if fieldDiff.HasChange && !fieldDiff.RequiresReview {
			decisions[fieldDiff.Field] = models.DecisionAccept
		}
	}
	if len(decisions) == 0 {
		return nil, domain.NewValidationError("no safe changes to auto-apply")
	}

	return s.ApplyChanges(ctx, changeUID, decisions, nil, nil, reviewerID)
}

// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/mocks"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

type pendingChangeMocks struct {
	changeRepo  *mocks.MockPendingChangeRepository
	clientRepo  *mocks.MockClientProfileRepository
	recordRepo  *mocks.MockAudioRecordRepository
	builder     *mocks.MockMessageBuilder
}

func setupPendingChangeServiceForTesting() (*PendingChangeService, *pendingChangeMocks) {
	m := &pendingChangeMocks{
		changeRepo: new(mocks.MockPendingChangeRepository),
		clientRepo: new(mocks.MockClientProfileRepository),
		recordRepo: new(mocks.MockAudioRecordRepository),
		builder:    new(mocks.MockMessageBuilder),
	}
	svc := NewPendingChangeService(m.changeRepo, m.clientRepo, m.recordRepo, m.builder, ServiceConfig{})
	return svc, m
}

func TestComputeDiff_Scalars(t *testing.T) {
	profile := &models.ClientProfile{
		UID:        "client-1",
		FirstName:  "Jean",
		Profession: "",
		City:       "Lyon",
	}

	tests := []struct {
		name      string
		extracted map[string]any
		field     string
		validate  func(*testing.T, models.FieldDiff)
	}{
		{
			name:      "empty incoming value is never a change",
			extracted: map[string]any{"profession": ""},
			field:     "profession",
			validate: func(t *testing.T, d models.FieldDiff) {
				assert.False(t, d.HasChange)
				assert.False(t, d.IsConflict)
				assert.False(t, d.RequiresReview)
			},
		},
		{
			name:      "new value on empty field is a change without conflict",
			extracted: map[string]any{"profession": "architecte"},
			field:     "profession",
			validate: func(t *testing.T, d models.FieldDiff) {
				assert.True(t, d.HasChange)
				assert.False(t, d.IsConflict)
				assert.False(t, d.RequiresReview)
			},
		},
		{
			name:      "differing value on populated field is a conflict",
			extracted: map[string]any{"city": "Paris"},
			field:     "city",
			validate: func(t *testing.T, d models.FieldDiff) {
				assert.True(t, d.HasChange)
				assert.True(t, d.IsConflict)
				assert.True(t, d.RequiresReview)
			},
		},
		{
			name:      "equal value after normalization is no change",
			extracted: map[string]any{"first_name": "  JEAN "},
			field:     "first_name",
			validate: func(t *testing.T, d models.FieldDiff) {
				assert.False(t, d.HasChange)
				assert.False(t, d.IsConflict)
				// Critical fields stay flagged for review even without change.
				assert.True(t, d.RequiresReview)
			},
		},
		{
			name:      "critical field change requires review even without conflict",
			extracted: map[string]any{"email": "jean@example.fr"},
			field:     "email",
			validate: func(t *testing.T, d models.FieldDiff) {
				assert.True(t, d.HasChange)
				assert.False(t, d.IsConflict)
				assert.True(t, d.IsCritical)
				assert.True(t, d.RequiresReview)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			diff := ComputeDiff(profile, tc.extracted, nil)
			require.Len(t, diff, 1)
			assert.Equal(t, tc.field, diff[0].Field)
			tc.validate(t, diff[0])
		})
	}
}

func TestComputeDiff_IgnoresUnknownFields(t *testing.T) {
	diff := ComputeDiff(&models.ClientProfile{}, map[string]any{
		"favorite_color": "bleu",
		"profession":     "medecin",
	}, nil)

	require.Len(t, diff, 1)
	assert.Equal(t, "profession", diff[0].Field)
}

func TestComputeDiff_CollectionsAlwaysRequireReview(t *testing.T) {
	profile := &models.ClientProfile{
		Liabilities: []models.Liability{{Nature: "pret immobilier", Lender: "BNP"}},
	}
	relational := map[string][]map[string]any{
		"liabilities": {
			{"nature": "credit conso", "lender": "Sofinco", "monthly_payment": 250.0},
		},
	}

	diff := ComputeDiff(profile, nil, relational)

	require.Len(t, diff, 1)
	d := diff[0]
	assert.Equal(t, "liabilities", d.Field)
	assert.True(t, d.IsRelational)
	assert.True(t, d.RequiresReview)
	assert.True(t, d.HasChange)
	assert.NotEmpty(t, d.DisplayValue)
}

func TestPendingChangeService_CreateFromExtraction(t *testing.T) {
	ctx := context.Background()
	svc, m := setupPendingChangeServiceForTesting()

	profile := &models.ClientProfile{UID: "client-1", TeamID: "team-1", FirstName: "Jean"}
	m.clientRepo.On("Get", mock.Anything, "client-1").Return(profile, nil)
	m.changeRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *models.ClientPendingChange) bool {
		return c.ClientUID == "client-1" &&
			c.Status == models.PendingChangeStatusPending &&
			len(c.ChangesDiff) == 1
	})).Return(nil)
	m.recordRepo.On("GetWithRevision", mock.Anything, "rec-1").
		Return(&models.AudioRecord{UID: "rec-1", Status: models.AudioRecordStatusPending}, uint64(1), nil)
	m.recordRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *models.AudioRecord) bool {
		return r.Status == models.AudioRecordStatusExtracted
	}), uint64(1)).Return(nil)

	change, err := svc.CreateFromExtraction(ctx, models.ExtractionCompletedMessage{
		AudioRecordUID: "rec-1",
		ClientUID:      "client-1",
		UserID:         "user-1",
		TeamID:         "team-1",
		ExtractedData:  map[string]any{"profession": "architecte"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PendingChangeStatusPending, change.Status)
	m.recordRepo.AssertExpectations(t)
}

func TestPendingChangeService_CreateFromExtraction_RecordUpdateFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	svc, m := setupPendingChangeServiceForTesting()

	m.clientRepo.On("Get", mock.Anything, "client-1").Return(&models.ClientProfile{UID: "client-1"}, nil)
	m.changeRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.recordRepo.On("GetWithRevision", mock.Anything, "rec-1").
		Return(nil, uint64(0), domain.NewNotFoundError("audio record not found"))

	_, err := svc.CreateFromExtraction(ctx, models.ExtractionCompletedMessage{
		AudioRecordUID: "rec-1",
		ClientUID:      "client-1",
		ExtractedData:  map[string]any{"notes": "rendez-vous annuel"},
	})
	require.NoError(t, err)
}

func pendingChangeForReview() *models.ClientPendingChange {
	return &models.ClientPendingChange{
		UID:       "change-1",
		ClientUID: "client-1",
		TeamID:    "team-1",
		Status:    models.PendingChangeStatusPending,
		ChangesDiff: []models.FieldDiff{
			{Field: "profession", NewValue: "architecte", HasChange: true},
			{Field: "city", CurrentValue: "Lyon", NewValue: "Paris", HasChange: true, IsConflict: true, RequiresReview: true},
		},
	}
}

func TestPendingChangeService_ApplyChanges(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		decisions  map[string]models.Decision
		overrides  map[string]any
		wantStatus models.PendingChangeStatus
		validate   func(*testing.T, *ApplyResult)
	}{
		{
			name: "accept one reject one gives partially applied",
			decisions: map[string]models.Decision{
				"profession": models.DecisionAccept,
				"city":       models.DecisionReject,
			},
			wantStatus: models.PendingChangeStatusPartiallyApplied,
			validate: func(t *testing.T, res *ApplyResult) {
				assert.Equal(t, []string{"profession"}, res.Applied)
				assert.Equal(t, []string{"city"}, res.Rejected)
				assert.Equal(t, "architecte", res.Profile.Profession)
				assert.Equal(t, "Lyon", res.Profile.City)
			},
		},
		{
			name: "accept all gives applied",
			decisions: map[string]models.Decision{
				"profession": models.DecisionAccept,
				"city":       models.DecisionAccept,
			},
			wantStatus: models.PendingChangeStatusApplied,
			validate: func(t *testing.T, res *ApplyResult) {
				assert.Equal(t, "Paris", res.Profile.City)
			},
		},
		{
			name: "reject all gives rejected without a profile write",
			decisions: map[string]models.Decision{
				"profession": models.DecisionReject,
				"city":       models.DecisionReject,
			},
			wantStatus: models.PendingChangeStatusRejected,
			validate: func(t *testing.T, res *ApplyResult) {
				assert.Empty(t, res.Applied)
				assert.Equal(t, "Lyon", res.Profile.City)
			},
		},
		{
			name: "override replaces the extracted value",
			decisions: map[string]models.Decision{
				"profession": models.DecisionAccept,
			},
			overrides:  map[string]any{"profession": "urbaniste"},
			wantStatus: models.PendingChangeStatusApplied,
			validate: func(t *testing.T, res *ApplyResult) {
				assert.Equal(t, "urbaniste", res.Profile.Profession)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, m := setupPendingChangeServiceForTesting()
			change := pendingChangeForReview()
			profile := &models.ClientProfile{UID: "client-1", TeamID: "team-1", City: "Lyon"}

			m.changeRepo.On("GetWithRevision", mock.Anything, "change-1").Return(change, uint64(3), nil)
			m.clientRepo.On("GetWithRevision", mock.Anything, "client-1").Return(profile, uint64(8), nil)
			m.clientRepo.On("Update", mock.Anything, profile, uint64(8)).Return(nil)
			m.changeRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *models.ClientPendingChange) bool {
				return c.Status == tc.wantStatus && c.ReviewedBy == "reviewer-1" && c.ReviewedAt != nil
			}), uint64(3)).Return(nil)
			m.builder.On("SendMergeAudit", mock.Anything, mock.Anything).Return(nil)

			res, err := svc.ApplyChanges(ctx, "change-1", tc.decisions, nil, tc.overrides, "reviewer-1")
			require.NoError(t, err)
			tc.validate(t, res)

			if tc.wantStatus == models.PendingChangeStatusRejected {
				m.clientRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			}
			m.changeRepo.AssertExpectations(t)
		})
	}
}

func TestPendingChangeService_ApplyChanges_RetryAfterStatusWriteFailure(t *testing.T) {
	ctx := context.Background()
	svc, m := setupPendingChangeServiceForTesting()

	profile := &models.ClientProfile{UID: "client-1", TeamID: "team-1", City: "Lyon"}
	decisions := map[string]models.Decision{
		"profession": models.DecisionAccept,
		"city":       models.DecisionAccept,
	}

	// First attempt: the profile write lands, the status write does not. Each
	// load returns a fresh pending copy, the way the store hands back what
	// was actually persisted.
	m.changeRepo.On("GetWithRevision", mock.Anything, "change-1").Return(pendingChangeForReview(), uint64(3), nil).Once()
	m.clientRepo.On("GetWithRevision", mock.Anything, "client-1").Return(profile, uint64(8), nil).Once()
	m.clientRepo.On("Update", mock.Anything, profile, uint64(8)).Return(nil).Once()
	m.changeRepo.On("Update", mock.Anything, mock.Anything, uint64(3)).
		Return(domain.NewInternalError("nats connection lost")).Once()

	_, err := svc.ApplyChanges(ctx, "change-1", decisions, nil, nil, "reviewer-1")
	require.Error(t, err)

	// Retry: the change is still pending, the profile already carries the
	// merged values. Re-staging the same decisions converges on the same
	// profile state and finally stamps the change.
	m.changeRepo.On("GetWithRevision", mock.Anything, "change-1").Return(pendingChangeForReview(), uint64(3), nil).Once()
	m.clientRepo.On("GetWithRevision", mock.Anything, "client-1").Return(profile, uint64(9), nil).Once()
	m.clientRepo.On("Update", mock.Anything, profile, uint64(9)).Return(nil).Once()
	m.changeRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *models.ClientPendingChange) bool {
		return c.Status == models.PendingChangeStatusApplied
	}), uint64(3)).Return(nil).Once()
	m.builder.On("SendMergeAudit", mock.Anything, mock.Anything).Return(nil)

	res, err := svc.ApplyChanges(ctx, "change-1", decisions, nil, nil, "reviewer-1")
	require.NoError(t, err)

	assert.Equal(t, "architecte", res.Profile.Profession)
	assert.Equal(t, "Paris", res.Profile.City)
	m.changeRepo.AssertExpectations(t)
	m.clientRepo.AssertExpectations(t)
}

func TestPendingChangeService_ApplyChanges_AlreadyReviewed(t *testing.T) {
	ctx := context.Background()
	svc, m := setupPendingChangeServiceForTesting()

	change := pendingChangeForReview()
	change.Status = models.PendingChangeStatusApplied
	m.changeRepo.On("GetWithRevision", mock.Anything, "change-1").Return(change, uint64(3), nil)

	_, err := svc.ApplyChanges(ctx, "change-1",
		map[string]models.Decision{"city": models.DecisionAccept}, nil, nil, "reviewer-1")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeConflict, domain.GetErrorType(err))
}

func TestPendingChangeService_ApplyChanges_DecisionOutsideDiff(t *testing.T) {
	ctx := context.Background()
	svc, m := setupPendingChangeServiceForTesting()

	m.changeRepo.On("GetWithRevision", mock.Anything, "change-1").
		Return(pendingChangeForReview(), uint64(3), nil)
	m.clientRepo.On("GetWithRevision", mock.Anything, "client-1").
		Return(&models.ClientProfile{UID: "client-1"}, uint64(1), nil)

	_, err := svc.ApplyChanges(ctx, "change-1",
		map[string]models.Decision{"annual_income": models.DecisionAccept}, nil, nil, "reviewer-1")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}

func TestPendingChangeService_ApplyChanges_RelationalDecision(t *testing.T) {
	ctx := context.Background()
	svc, m := setupPendingChangeServiceForTesting()

	change := &models.ClientPendingChange{
		UID:       "change-1",
		ClientUID: "client-1",
		TeamID:    "team-1",
		Status:    models.PendingChangeStatusPending,
		RelationalData: map[string][]map[string]any{
			"real_estate_assets": {
				{"designation": "appartement Lyon", "usage": "locatif", "value": 230000.0},
			},
		},
		ChangesDiff: []models.FieldDiff{
			{Field: "real_estate_assets", IsRelational: true, HasChange: true, RequiresReview: true},
		},
	}
	profile := &models.ClientProfile{
		UID: "client-1",
		RealEstateAssets: []models.RealEstateAsset{
			{UID: "re-1", Designation: "maison principale", Usage: "residence principale"},
		},
	}

	m.changeRepo.On("GetWithRevision", mock.Anything, "change-1").Return(change, uint64(1), nil)
	m.clientRepo.On("GetWithRevision", mock.Anything, "client-1").Return(profile, uint64(2), nil)
	m.clientRepo.On("Update", mock.Anything, profile, uint64(2)).Return(nil)
	m.changeRepo.On("Update", mock.Anything, mock.Anything, uint64(1)).Return(nil)
	m.builder.On("SendMergeAudit", mock.Anything, mock.Anything).Return(nil)

	res, err := svc.ApplyChanges(ctx, "change-1",
		map[string]models.Decision{"real_estate_assets": models.DecisionAccept}, nil, nil, "reviewer-1")
	require.NoError(t, err)

	// Real estate accumulates: the existing property survives.
	require.Len(t, res.Profile.RealEstateAssets, 2)
	assert.Equal(t, "maison principale", res.Profile.RealEstateAssets[0].Designation)
	assert.Equal(t, "appartement Lyon", res.Profile.RealEstateAssets[1].Designation)
}

func TestPendingChangeService_AutoApplySafeChanges(t *testing.T) {
	ctx := context.Background()
	svc, m := setupPendingChangeServiceForTesting()

	change := &models.ClientPendingChange{
		UID:       "change-1",
		ClientUID: "client-1",
		Status:    models.PendingChangeStatusPending,
		ChangesDiff: []models.FieldDiff{
			{Field: "profession", NewValue: "architecte", HasChange: true},
			{Field: "city", CurrentValue: "Lyon", NewValue: "Paris", HasChange: true, IsConflict: true, RequiresReview: true},
			{Field: "email", NewValue: "jean@example.fr", HasChange: true, IsCritical: true, RequiresReview: true},
		},
	}
	profile := &models.ClientProfile{UID: "client-1", City: "Lyon"}

	m.changeRepo.On("Get", mock.Anything, "change-1").Return(change, nil)
	m.changeRepo.On("GetWithRevision", mock.Anything, "change-1").Return(change, uint64(1), nil)
	m.clientRepo.On("GetWithRevision", mock.Anything, "client-1").Return(profile, uint64(1), nil)
	m.clientRepo.On("Update", mock.Anything, profile, uint64(1)).Return(nil)
	m.changeRepo.On("Update", mock.Anything, mock.Anything, uint64(1)).Return(nil)
	m.builder.On("SendMergeAudit", mock.Anything, mock.Anything).Return(nil)

	res, err := svc.AutoApplySafeChanges(ctx, "change-1", "reviewer-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"profession"}, res.Applied)
	assert.Equal(t, "architecte", res.Profile.Profession)
	// Conflicting and critical fields stay untouched.
	assert.Equal(t, "Lyon", res.Profile.City)
	assert.Empty(t, res.Profile.Email)
}

func TestPendingChangeService_AutoApplySafeChanges_NothingSafe(t *testing.T) {
	ctx := context.Background()
	svc, m := setupPendingChangeServiceForTesting()

	change := &models.ClientPendingChange{
		UID:    "change-1",
		Status: models.PendingChangeStatusPending,
		ChangesDiff: []models.FieldDiff{
			{Field: "email", HasChange: true, IsCritical: true, RequiresReview: true},
		},
	}
	m.changeRepo.On("Get", mock.Anything, "change-1").Return(change, nil)

	_, err := svc.AutoApplySafeChanges(ctx, "change-1", "reviewer-1")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}

func TestPendingChangeService_GetChange_TeamOwnership(t *testing.T) {
	ctx := context.Background()
	svc, m := setupPendingChangeServiceForTesting()

	m.changeRepo.On("Get", mock.Anything, "change-1").Return(&models.ClientPendingChange{
		UID:    "change-1",
		TeamID: "team-1",
	}, nil)

	_, err := svc.GetChange(ctx, "change-1", "team-2")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeForbidden, domain.GetErrorType(err))
}

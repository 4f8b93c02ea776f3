// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// PendingChangeStatus is the review state of a proposed merge.
type PendingChangeStatus string

const (
	PendingChangeStatusPending          PendingChangeStatus = "pending"
	PendingChangeStatusApplied          PendingChangeStatus = "applied"
	PendingChangeStatusPartiallyApplied PendingChangeStatus = "partially_applied"
	PendingChangeStatusRejected         PendingChangeStatus = "rejected"
)

// Decision is the reviewer's verdict on one field.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// FieldDiff is the computed comparison of one field between the current
// client profile and the freshly extracted data. Computed once when the
// pending change is created and never recomputed.
type FieldDiff struct {
	Field          string `json:"field"`
	CurrentValue   any    `json:"current_value,omitempty"`
	NewValue       any    `json:"new_value,omitempty"`
	DisplayValue   string `json:"display_value,omitempty"` // human-readable summary for relational fields
	HasChange      bool   `json:"has_change"`
	IsConflict     bool   `json:"is_conflict"`  // has_change and the current value is non-empty
	IsCritical     bool   `json:"is_critical"`  // identity / contact / income fields
	IsRelational   bool   `json:"is_relational"`
	RequiresReview bool   `json:"requires_review"`
}

// ClientPendingChange is a proposed set of updates to a client profile,
// awaiting human accept/reject decisions. Kept for audit after review; only
// an RGPD purge removes it.
type ClientPendingChange struct {
	UID            string `json:"uid"`
	ClientUID      string `json:"client_uid"`
	UserID         string `json:"user_id"`
	TeamID         string `json:"team_id"`
	AudioRecordUID string `json:"audio_record_uid,omitempty"`

	// ExtractedData holds the scalar field map the extraction service produced.
	ExtractedData map[string]any `json:"extracted_data"`
	// RelationalData maps collection names onto proposed item batches. Items
	// stay as loosely typed maps until the collection sync decodes them
	// against the collection's concrete item type.
	RelationalData map[string][]map[string]any `json:"relational_data,omitempty"`
	// ChangesDiff is immutable once computed at creation time.
	ChangesDiff []FieldDiff `json:"changes_diff"`

	Status        PendingChangeStatus `json:"status"`
	UserDecisions map[string]Decision `json:"user_decisions,omitempty"`
	RejectReasons map[string]string   `json:"reject_reasons,omitempty"`
	ReviewedBy    string              `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time          `json:"reviewed_at,omitempty"`
	AppliedAt     *time.Time          `json:"applied_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// DiffForField returns the computed diff entry for the named field.
func (p *ClientPendingChange) DiffForField(field string) (FieldDiff, bool) {
	for _, d := range p.ChangesDiff {
		if d.Field == field {
			return d, true
		}
	}
	return FieldDiff{}, false
}

// IsReviewed reports whether a review decision was already applied.
func (p *ClientPendingChange) IsReviewed() bool {
	return p.Status != PendingChangeStatusPending
}

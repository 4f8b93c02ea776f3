// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Message(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "message only",
			err:      NewValidationError("part index must not be negative"),
			expected: "part index must not be negative",
		},
		{
			name:     "wrapped cause appended",
			err:      NewInternalError("ffmpeg concat failed", errors.New("exit status 1")),
			expected: "ffmpeg concat failed: exit status 1",
		},
		{
			name: "joined causes",
			err: NewInternalError("all transcription backends failed",
				errors.New("local: connection refused"),
				errors.New("remote: 429")),
			expected: "all transcription backends failed: local: connection refused\nremote: 429",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{name: "validation", err: NewValidationError("bad input"), expected: ErrorTypeValidation},
		{name: "not found", err: NewNotFoundError("session not found"), expected: ErrorTypeNotFound},
		{name: "forbidden", err: NewForbiddenError("session belongs to another user"), expected: ErrorTypeForbidden},
		{name: "conflict", err: NewConflictError("revision mismatch"), expected: ErrorTypeConflict},
		{name: "timeout", err: NewTimeoutError("diarization exceeded budget"), expected: ErrorTypeTimeout},
		{name: "internal", err: NewInternalError("boom"), expected: ErrorTypeInternal},
		{name: "unavailable", err: NewUnavailableError("store down"), expected: ErrorTypeUnavailable},
		{name: "plain error defaults to internal", err: errors.New("plain"), expected: ErrorTypeInternal},
		{
			name:     "wrapped domain error keeps its type",
			err:      fmt.Errorf("finalize: %w", NewTimeoutError("diarization exceeded budget")),
			expected: ErrorTypeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorType(tt.err))
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("key not found")
	err := NewNotFoundError("recording session not found", cause)

	assert.ErrorIs(t, err, cause)

	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
}

func TestDomainError_NoCauseUnwrapsNil(t *testing.T) {
	err := NewValidationError("missing user")
	assert.Nil(t, err.Unwrap())
}

func TestErrServiceUnavailable(t *testing.T) {
	assert.Equal(t, ErrorTypeUnavailable, GetErrorType(ErrServiceUnavailable))
	assert.Equal(t, "service unavailable", ErrServiceUnavailable.Error())
}

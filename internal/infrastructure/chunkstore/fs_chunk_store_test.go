// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package chunkstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrimonia-app/audio-intake-service/internal/config"
	"github.com/patrimonia-app/audio-intake-service/internal/domain"
)

func TestFSChunkStore_StoreChunk(t *testing.T) {
	ctx := context.Background()
	store := NewFSChunkStore(t.TempDir(), config.GapPolicySkip)

	path, err := store.StoreChunk(ctx, "sess-1", 0, strings.NewReader("chunk-zero"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "chunk-zero", string(data))

	// Re-uploading the same index overwrites, so browser retries are safe.
	path2, err := store.StoreChunk(ctx, "sess-1", 0, strings.NewReader("retried"))
	require.NoError(t, err)
	assert.Equal(t, path, path2)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "retried", string(data))
}

func TestFSChunkStore_StoreChunk_Validation(t *testing.T) {
	ctx := context.Background()
	store := NewFSChunkStore(t.TempDir(), config.GapPolicySkip)

	tests := []struct {
		name       string
		sessionUID string
		partIndex  int
	}{
		{name: "empty session UID", sessionUID: "", partIndex: 0},
		{name: "path separator in UID", sessionUID: "../escape", partIndex: 0},
		{name: "backslash in UID", sessionUID: `a\b`, partIndex: 0},
		{name: "dot UID", sessionUID: ".", partIndex: 0},
		{name: "negative part index", sessionUID: "sess-1", partIndex: -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.StoreChunk(ctx, tc.sessionUID, tc.partIndex, strings.NewReader("x"))
			require.Error(t, err)
			assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
		})
	}
}

func TestFSChunkStore_ListChunksInOrder(t *testing.T) {
	ctx := context.Background()
	store := NewFSChunkStore(t.TempDir(), config.GapPolicySkip)

	// Uploaded out of order; listing must come back in index order.
	for _, idx := range []int{2, 0, 1} {
		_, err := store.StoreChunk(ctx, "sess-1", idx, strings.NewReader("x"))
		require.NoError(t, err)
	}

	paths, err := store.ListChunksInOrder(ctx, "sess-1", 3)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for i, p := range paths {
		assert.Contains(t, filepath.Base(p), fmt.Sprintf("_part_%d.", i))
	}
}

func TestFSChunkStore_ListChunksInOrder_GapPolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("skip policy drops the missing index", func(t *testing.T) {
		store := NewFSChunkStore(t.TempDir(), config.GapPolicySkip)
		for _, idx := range []int{0, 2} {
			_, err := store.StoreChunk(ctx, "sess-1", idx, strings.NewReader("x"))
			require.NoError(t, err)
		}

		paths, err := store.ListChunksInOrder(ctx, "sess-1", 3)
		require.NoError(t, err)
		assert.Len(t, paths, 2)
	})

	t.Run("fail policy aborts on the missing index", func(t *testing.T) {
		store := NewFSChunkStore(t.TempDir(), config.GapPolicyFail)
		for _, idx := range []int{0, 2} {
			_, err := store.StoreChunk(ctx, "sess-1", idx, strings.NewReader("x"))
			require.NoError(t, err)
		}

		_, err := store.ListChunksInOrder(ctx, "sess-1", 3)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})
}

func TestFSChunkStore_PurgeSession(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store := NewFSChunkStore(base, config.GapPolicySkip)

	_, err := store.StoreChunk(ctx, "sess-1", 0, strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.PurgeSession(ctx, "sess-1"))
	_, err = os.Stat(filepath.Join(base, "sess-1"))
	assert.True(t, os.IsNotExist(err))

	// Idempotent.
	require.NoError(t, store.PurgeSession(ctx, "sess-1"))
}

func TestFSScratchStore_ScratchPath(t *testing.T) {
	store := NewFSScratchStore(t.TempDir())

	a := store.ScratchPath("concat", "webm")
	b := store.ScratchPath("concat", "webm")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".webm"))
	assert.Contains(t, filepath.Base(a), "concat_")
}

func TestFSScratchStore_SweepOlderThan(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFSScratchStore(dir)

	oldFile := filepath.Join(dir, "orphan.webm")
	require.NoError(t, os.WriteFile(oldFile, []byte("x"), 0o640))
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, stale, stale))

	freshFile := filepath.Join(dir, "fresh.webm")
	require.NoError(t, os.WriteFile(freshFile, []byte("x"), 0o640))

	t.Run("dry run reports without removing", func(t *testing.T) {
		removed, err := store.SweepOlderThan(ctx, 24, true)
		require.NoError(t, err)
		assert.Equal(t, []string{oldFile}, removed)
		_, err = os.Stat(oldFile)
		assert.NoError(t, err)
	})

	t.Run("sweep removes only aged files", func(t *testing.T) {
		removed, err := store.SweepOlderThan(ctx, 24, false)
		require.NoError(t, err)
		assert.Equal(t, []string{oldFile}, removed)

		_, err = os.Stat(oldFile)
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(freshFile)
		assert.NoError(t, err)
	})

	t.Run("missing directory is a no-op", func(t *testing.T) {
		missing := NewFSScratchStore(filepath.Join(dir, "does-not-exist"))
		removed, err := missing.SweepOlderThan(ctx, 24, false)
		require.NoError(t, err)
		assert.Empty(t, removed)
	})
}

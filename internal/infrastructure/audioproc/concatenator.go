// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package audioproc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// FFmpegConcatenator joins ordered chunk files into one continuous audio
// file using ffmpeg's concat demuxer with stream copy: no re-encode, so no
// quality loss and near-I/O-bound latency.
type FFmpegConcatenator struct {
	runner  Runner
	scratch domain.ScratchStore
}

// NewFFmpegConcatenator creates a concatenator using the given runner and
// scratch store.
func NewFFmpegConcatenator(runner Runner, scratch domain.ScratchStore) *FFmpegConcatenator {
	return &FFmpegConcatenator{runner: runner, scratch: scratch}
}

// Concatenate joins the ordered chunk files and returns the path of the
// combined file. A single chunk is copied rather than run through ffmpeg.
func (c *FFmpegConcatenator) Concatenate(ctx context.Context, orderedChunkPaths []string) (string, error) {
	if len(orderedChunkPaths) == 0 {
		return "", domain.NewValidationError("no chunks to concatenate")
	}

	if len(orderedChunkPaths) == 1 {
		return c.copySingleChunk(ctx, orderedChunkPaths[0])
	}

	listPath, err := c.writeConcatList(orderedChunkPaths)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = os.Remove(listPath)
	}()

	outPath := c.scratch.ScratchPath("concat", "webm")
	args := []string{
		"-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outPath,
	}

	_, stderr, err := c.runner.Run(ctx, "ffmpeg", args, nil)
	if err != nil {
		slog.ErrorContext(ctx, "ffmpeg concatenation failed",
			logging.ErrKey, err, "chunks", len(orderedChunkPaths), "stderr", string(stderr))
		return "", domain.NewInternalError(
			fmt.Sprintf("audio concatenation failed: %s", strings.TrimSpace(string(stderr))), err)
	}

	if err := validateAudioOutput(outPath); err != nil {
		return "", err
	}

	slog.DebugContext(ctx, "concatenated audio chunks",
		"chunks", len(orderedChunkPaths), "output", outPath)

	return outPath, nil
}

// copySingleChunk moves one chunk to a scratch location untouched. Running a
// single file through the concat demuxer would only add latency.
func (c *FFmpegConcatenator) copySingleChunk(ctx context.Context, chunkPath string) (string, error) {
	outPath := c.scratch.ScratchPath("concat", "webm")

	src, err := os.Open(chunkPath)
	if err != nil {
		return "", domain.NewInternalError("failed to open chunk for copy", err)
	}
	defer func() {
		_ = src.Close()
	}()

	dst, err := os.Create(outPath)
	if err != nil {
		return "", domain.NewInternalError("failed to create concatenated audio file", err)
	}

	_, err = io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(outPath)
		return "", domain.NewInternalError("failed to copy single chunk", err)
	}

	slog.DebugContext(ctx, "single chunk session, copied without re-encoding", "output", outPath)
	return outPath, nil
}

// writeConcatList writes the ffmpeg concat demuxer file list.
func (c *FFmpegConcatenator) writeConcatList(paths []string) (string, error) {
	var b strings.Builder
	for _, p := range paths {
		// Single quotes in the path are escaped per the concat demuxer rules.
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(p, "'", `'\''`))
	}

	listPath := c.scratch.ScratchPath("concat_list", "txt")
	if err := os.WriteFile(listPath, []byte(b.String()), 0o640); err != nil {
		return "", domain.NewInternalError("failed to write concat file list", err)
	}
	return listPath, nil
}

// validateAudioOutput checks that ffmpeg actually produced a non-empty file.
func validateAudioOutput(path string) error {
	stat, err := os.Stat(path)
	if err != nil {
		return domain.NewInternalError(fmt.Sprintf("output audio file not created: %s", path), err)
	}
	if stat.Size() == 0 {
		return domain.NewInternalError(fmt.Sprintf("output audio file is empty: %s", path))
	}
	return nil
}

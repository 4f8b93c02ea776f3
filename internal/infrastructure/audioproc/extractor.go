// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package audioproc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// FFmpegSegmentExtractor cuts the given speaker segments out of a source
// audio file and glues them back together in the caller's order, producing a
// single WAV file suitable for transcription.
type FFmpegSegmentExtractor struct {
	runner  Runner
	scratch domain.ScratchStore
}

// NewFFmpegSegmentExtractor creates a segment extractor using the given
// runner and scratch store.
func NewFFmpegSegmentExtractor(runner Runner, scratch domain.ScratchStore) *FFmpegSegmentExtractor {
	return &FFmpegSegmentExtractor{runner: runner, scratch: scratch}
}

// ExtractSegments extracts the segments from sourcePath and concatenates
// them in the order given. An empty segment list yields an empty path with
// no error so callers can treat "nothing to extract" as a regular outcome.
func (e *FFmpegSegmentExtractor) ExtractSegments(ctx context.Context, sourcePath string, segments []models.SpeakerSegment) (string, error) {
	if len(segments) == 0 {
		return "", nil
	}

	for i, seg := range segments {
		if seg.Start < 0 || seg.Duration <= 0 {
			return "", domain.NewValidationError(
				fmt.Sprintf("invalid segment %d: start=%.3f duration=%.3f", i, seg.Start, seg.Duration))
		}
	}

	outPath := e.scratch.ScratchPath("segments", "wav")
	args := []string{
		"-loglevel", "error",
		"-i", sourcePath,
		"-filter_complex", buildSegmentFilter(segments),
		"-map", "[out]",
		"-y",
		outPath,
	}

	_, stderr, err := e.runner.Run(ctx, "ffmpeg", args, nil)
	if err != nil {
		slog.ErrorContext(ctx, "ffmpeg segment extraction failed",
			logging.ErrKey, err, "segments", len(segments), "stderr", string(stderr))
		return "", domain.NewInternalError(
			fmt.Sprintf("segment extraction failed: %s", strings.TrimSpace(string(stderr))), err)
	}

	if err := validateAudioOutput(outPath); err != nil {
		return "", err
	}

	slog.DebugContext(ctx, "extracted audio segments",
		"segments", len(segments), "output", outPath)

	return outPath, nil
}

// buildSegmentFilter builds an ffmpeg filter graph that trims each segment,
// resets its timestamps, and concatenates the trimmed streams. Segment order
// in the graph matches the caller's order exactly.
func buildSegmentFilter(segments []models.SpeakerSegment) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "[0:a]atrim=start=%.3f:duration=%.3f,asetpts=PTS-STARTPTS[s%d];",
			seg.Start, seg.Duration, i)
	}
	for i := range segments {
		fmt.Fprintf(&b, "[s%d]", i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=0:a=1[out]", len(segments))
	return b.String()
}

// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package audioproc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

// fakeRunner records invocations and delegates to a handler.
type fakeRunner struct {
	calls   [][]string
	handler func(name string, args []string) (stdout, stderr []byte, err error)
}

func (r *fakeRunner) Run(_ context.Context, name string, args []string, _ []string) ([]byte, []byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.handler == nil {
		return nil, nil, nil
	}
	return r.handler(name, args)
}

// testScratch hands out deterministic unique paths under a temp dir.
type testScratch struct {
	dir string
	n   int
}

func (s *testScratch) ScratchPath(hint, ext string) string {
	s.n++
	return filepath.Join(s.dir, fmt.Sprintf("%s_%d.%s", hint, s.n, ext))
}

func (s *testScratch) SweepOlderThan(_ context.Context, _ int, _ bool) ([]string, error) {
	return nil, nil
}

func writeTempAudio(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	return path
}

func TestFFmpegConcatenator_Concatenate_SingleChunkSkipsFFmpeg(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	runner := &fakeRunner{}
	c := NewFFmpegConcatenator(runner, &testScratch{dir: dir})

	chunk := writeTempAudio(t, dir, "chunk0.webm", "opus-bytes")

	out, err := c.Concatenate(ctx, []string{chunk})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "opus-bytes", string(data))
	assert.Empty(t, runner.calls, "a single chunk must not spawn ffmpeg")
}

func TestFFmpegConcatenator_Concatenate_MultiChunk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	var listContent string
	runner := &fakeRunner{
		handler: func(_ string, args []string) ([]byte, []byte, error) {
			// Capture the concat list and simulate ffmpeg writing the output.
			for i, a := range args {
				if a == "-i" {
					data, err := os.ReadFile(args[i+1])
					if err != nil {
						return nil, nil, err
					}
					listContent = string(data)
				}
			}
			outPath := args[len(args)-1]
			return nil, nil, os.WriteFile(outPath, []byte("joined"), 0o640)
		},
	}
	c := NewFFmpegConcatenator(runner, &testScratch{dir: dir})

	a := writeTempAudio(t, dir, "a.webm", "x")
	b := writeTempAudio(t, dir, "b.webm", "y")

	out, err := c.Concatenate(ctx, []string{a, b})
	require.NoError(t, err)
	assert.FileExists(t, out)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "ffmpeg", call[0])
	assert.Contains(t, call, "concat")
	assert.Contains(t, call, "copy")

	assert.Equal(t, fmt.Sprintf("file '%s'\nfile '%s'\n", a, b), listContent)
}

func TestFFmpegConcatenator_Concatenate_EscapesQuotesInListFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	var listContent string
	runner := &fakeRunner{
		handler: func(_ string, args []string) ([]byte, []byte, error) {
			for i, a := range args {
				if a == "-i" {
					data, _ := os.ReadFile(args[i+1])
					listContent = string(data)
				}
			}
			return nil, nil, os.WriteFile(args[len(args)-1], []byte("joined"), 0o640)
		},
	}
	c := NewFFmpegConcatenator(runner, &testScratch{dir: dir})

	quoted := writeTempAudio(t, dir, "l'audio.webm", "x")
	plain := writeTempAudio(t, dir, "b.webm", "y")

	_, err := c.Concatenate(ctx, []string{quoted, plain})
	require.NoError(t, err)
	assert.Contains(t, listContent, `l'\''audio.webm`)
}

func TestFFmpegConcatenator_Concatenate_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("no chunks", func(t *testing.T) {
		c := NewFFmpegConcatenator(&fakeRunner{}, &testScratch{dir: t.TempDir()})
		_, err := c.Concatenate(ctx, nil)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})

	t.Run("ffmpeg error surfaces stderr", func(t *testing.T) {
		dir := t.TempDir()
		runner := &fakeRunner{
			handler: func(_ string, _ []string) ([]byte, []byte, error) {
				return nil, []byte("Invalid data found when processing input\n"), errors.New("exit status 1")
			},
		}
		c := NewFFmpegConcatenator(runner, &testScratch{dir: dir})
		a := writeTempAudio(t, dir, "a.webm", "x")
		b := writeTempAudio(t, dir, "b.webm", "y")

		_, err := c.Concatenate(ctx, []string{a, b})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid data found")
	})

	t.Run("ffmpeg produced no output file", func(t *testing.T) {
		dir := t.TempDir()
		runner := &fakeRunner{
			handler: func(_ string, _ []string) ([]byte, []byte, error) {
				return nil, nil, nil // exits cleanly without writing anything
			},
		}
		c := NewFFmpegConcatenator(runner, &testScratch{dir: dir})
		a := writeTempAudio(t, dir, "a.webm", "x")
		b := writeTempAudio(t, dir, "b.webm", "y")

		_, err := c.Concatenate(ctx, []string{a, b})
		require.Error(t, err)
	})
}

func TestFFmpegSegmentExtractor_ExtractSegments(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	runner := &fakeRunner{
		handler: func(_ string, args []string) ([]byte, []byte, error) {
			return nil, nil, os.WriteFile(args[len(args)-1], []byte("wav"), 0o640)
		},
	}
	e := NewFFmpegSegmentExtractor(runner, &testScratch{dir: dir})

	out, err := e.ExtractSegments(ctx, "/audio/full.webm", []models.SpeakerSegment{
		{Start: 1.5, Duration: 4},
		{Start: 10, Duration: 2.25},
	})
	require.NoError(t, err)
	assert.FileExists(t, out)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Contains(t, call, "-filter_complex")
	assert.Contains(t, call, "[out]")
}

func TestFFmpegSegmentExtractor_EmptySegmentsIsNoOp(t *testing.T) {
	runner := &fakeRunner{}
	e := NewFFmpegSegmentExtractor(runner, &testScratch{dir: t.TempDir()})

	out, err := e.ExtractSegments(context.Background(), "/audio/full.webm", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, runner.calls)
}

func TestFFmpegSegmentExtractor_RejectsInvalidSegments(t *testing.T) {
	e := NewFFmpegSegmentExtractor(&fakeRunner{}, &testScratch{dir: t.TempDir()})

	tests := []struct {
		name    string
		segment models.SpeakerSegment
	}{
		{name: "negative start", segment: models.SpeakerSegment{Start: -1, Duration: 2}},
		{name: "zero duration", segment: models.SpeakerSegment{Start: 0, Duration: 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.ExtractSegments(context.Background(), "/audio/full.webm",
				[]models.SpeakerSegment{tc.segment})
			require.Error(t, err)
			assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
		})
	}
}

func TestBuildSegmentFilter(t *testing.T) {
	filter := buildSegmentFilter([]models.SpeakerSegment{
		{Start: 1.5, Duration: 4},
		{Start: 10, Duration: 2.25},
	})

	expected := "[0:a]atrim=start=1.500:duration=4.000,asetpts=PTS-STARTPTS[s0];" +
		"[0:a]atrim=start=10.000:duration=2.250,asetpts=PTS-STARTPTS[s1];" +
		"[s0][s1]concat=n=2:v=0:a=1[out]"
	assert.Equal(t, expected, filter)
}

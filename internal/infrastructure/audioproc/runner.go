// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package audioproc wraps the ffmpeg invocations of the pipeline:
// container-level chunk concatenation and per-speaker segment extraction.
package audioproc

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"
)

// Runner executes an external command and captures its output. Extra
// environment entries are appended to the parent environment, which is how
// secrets reach subprocesses without ever appearing in argv.
type Runner interface {
	Run(ctx context.Context, name string, args []string, extraEnv []string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec. Cancellation of the context kills
// the process; WaitDelay bounds how long we wait for pipes to drain after
// the kill so a wedged child cannot hang the worker.
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, extraEnv []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

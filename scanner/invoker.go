// Copyright (C) 2026 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/l3montree-dev/imagecatalog/monitoring"
)

type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeTimeout      Outcome = "timeout"
	OutcomeNonZeroExit  Outcome = "non_zero_exit"
	OutcomeSpawnFailure Outcome = "spawn_failure"
)

const (
	DefaultBinary  = "syft"
	DefaultTimeout = 15 * time.Minute

	// how long Wait keeps reading the pipes after the process got killed
	waitDelay = 10 * time.Second
	// only the tail of stderr ends up in error messages
	maxStderr = 4096
)

// Result is the typed outcome of one scanner invocation. Err is set for every outcome but success.
type Result struct {
	Outcome  Outcome
	Output   []byte
	ExitCode int
	Duration time.Duration
	Err      error
}

func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

type Invoker struct {
	binary  string
	timeout time.Duration
}

func NewInvoker(binary string, timeout time.Duration) *Invoker {
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Invoker{binary: binary, timeout: timeout}
}

func (i *Invoker) Binary() string {
	return i.binary
}

// Scan runs the scanner against imageRef and never returns an error, every failure is part of the Result.
// imageRef is passed as a single argument, it never goes through a shell.
func (i *Invoker) Scan(ctx context.Context, imageRef string) Result {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	var stdout bytes.Buffer
	stderr := &tailBuffer{limit: maxStderr}

	cmd := exec.CommandContext(ctx, i.binary, imageRef, "--quiet", "--output", "syft-json") // #nosec G204
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	res := Result{Duration: time.Since(start), ExitCode: -1}
	monitoring.ScanDuration.Observe(res.Duration.Minutes())

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Outcome = OutcomeTimeout
		res.Err = fmt.Errorf("scanner exceeded %s for %s", i.timeout, imageRef)
	case err == nil:
		res.Outcome = OutcomeSuccess
		res.ExitCode = 0
		res.Output = stdout.Bytes()
	case errors.As(err, &exitErr):
		res.Outcome = OutcomeNonZeroExit
		res.ExitCode = exitErr.ExitCode()
		res.Err = fmt.Errorf("scanner exited with code %d: %s", res.ExitCode, stderr.String())
	default:
		res.Outcome = OutcomeSpawnFailure
		res.Err = fmt.Errorf("could not start scanner: %w", err)
	}

	monitoring.ScanOutcomes.WithLabelValues(string(res.Outcome)).Inc()
	slog.Debug("scanner finished", "image", imageRef, "outcome", res.Outcome, "duration", res.Duration)
	return res
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(string(t.buf))
}

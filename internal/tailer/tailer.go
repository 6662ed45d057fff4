// ABOUTME: Reads and clears log files by shelling out to tail and truncate
// ABOUTME: Stderr from a failed command is surfaced in the returned error

package tailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// Tail line-count bounds. Requests outside the range are clamped.
const (
	MinLines     = 10
	MaxLines     = 10000
	DefaultLines = 1000
)

// Runner executes the external tail and truncate commands.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	return &Runner{
		logger: slog.Default().With("component", "tailer"),
	}
}

// ClampLines forces a requested line count into [MinLines, MaxLines].
// Zero or negative requests fall back to DefaultLines.
func ClampLines(n int) int {
	if n <= 0 {
		return DefaultLines
	}
	if n < MinLines {
		return MinLines
	}
	if n > MaxLines {
		return MaxLines
	}
	return n
}

// Tail returns the last n lines of the file at path. The line count is
// clamped before use. Command failure, including a missing file, comes
// back as an error carrying the command's stderr.
func (r *Runner) Tail(ctx context.Context, path string, n int) (string, error) {
	n = ClampLines(n)

	cmd := exec.CommandContext(ctx, "tail", "-n", strconv.Itoa(n), path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", commandError("tail", path, &stderr, err)
	}

	r.logger.Debug("tailed file", "path", path, "lines", n, "bytes", stdout.Len())
	return stdout.String(), nil
}

// Clear truncates the file at path to zero length.
func (r *Runner) Clear(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, "truncate", "-s", "0", path)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return commandError("truncate", path, &stderr, err)
	}

	r.logger.Info("cleared file", "path", path)
	return nil
}

func commandError(name, path string, stderr *bytes.Buffer, err error) error {
	detail := strings.TrimSpace(stderr.String())
	if detail != "" {
		return fmt.Errorf("%s %s: %s: %w", name, path, detail, err)
	}
	return fmt.Errorf("%s %s: %w", name, path, err)
}

package hook

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// Result represents the outcome of one hook execution
type Result struct {
	ExitCode int           `json:"exit_code"`
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Runner executes the configured after-update command
type Runner interface {
	Run(ctx context.Context, command string) (*Result, error)
}

// ShellRunner runs commands through the system shell
type ShellRunner struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewShellRunner creates a new shell runner
func NewShellRunner(timeout time.Duration, logger *zap.Logger) *ShellRunner {
	return &ShellRunner{
		timeout: timeout,
		logger:  logger,
	}
}

// Run executes the command via `sh -c` with the inherited environment,
// capturing combined stdout/stderr. A non-zero exit is reported through the
// Result, not as an error; the returned error covers failures to run the
// command at all, including the execution timeout.
func (r *ShellRunner) Run(ctx context.Context, command string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Debug("Executing hook", zap.String("command", command))

	start := time.Now()
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	output, err := cmd.CombinedOutput()

	result := &Result{
		Output:   string(output),
		Duration: time.Since(start),
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("hook timed out after %s", r.timeout)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		return result, fmt.Errorf("failed to run hook: %w", err)
	}

	return result, nil
}

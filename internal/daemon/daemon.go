package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"allowsync/internal/allowlist"
	"allowsync/internal/config"
	"allowsync/internal/hook"
	"allowsync/internal/meta"

	"go.uber.org/zap"
)

// Writer persists a rendered document to the target path
type Writer interface {
	Write(path, doc string) error
}

// Result represents the outcome of one update cycle
type Result struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Changed   bool          `json:"changed"`
	Error     string        `json:"error,omitempty"`
}

// Status represents aggregate daemon state
type Status struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	Cycles     int64     `json:"cycles"`
	Changes    int64     `json:"changes"`
	Failures   int64     `json:"failures"`
	LastChange time.Time `json:"last_change,omitempty"`
	LastResult *Result   `json:"last_result,omitempty"`
}

// Daemon runs fetch-render-diff-write-hook cycles on a fixed interval.
// Cycle errors are converted to log lines here; none of them stop the loop.
type Daemon struct {
	config  *config.Config
	logger  *zap.Logger
	fetcher meta.Fetcher
	writer  Writer
	hook    hook.Runner

	// lastDoc is the last known rendered document. Cycles run strictly
	// one after another, so no locking is needed for it.
	lastDoc string

	mu     sync.RWMutex
	status Status
}

// New creates a new daemon, seeding the last known document from the
// target file. A missing file seeds as empty; any other read error is a
// startup failure.
func New(cfg *config.Config, fetcher meta.Fetcher, writer Writer, runner hook.Runner, logger *zap.Logger) (*Daemon, error) {
	seed, err := allowlist.Seed(cfg.AllowFile)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		config:  cfg,
		logger:  logger,
		fetcher: fetcher,
		writer:  writer,
		hook:    runner,
		lastDoc: seed,
		status: Status{
			ID:        cfg.Daemon.ID,
			StartedAt: time.Now(),
		},
	}, nil
}

// Run executes update cycles until the context is cancelled. The first
// cycle runs immediately; afterwards the countdown is re-armed only once a
// cycle has fully completed, so cycles never overlap even when one overruns
// the interval. The in-flight cycle is allowed to finish on shutdown.
func (d *Daemon) Run(ctx context.Context) {
	d.logger.Info("Starting update loop",
		zap.Duration("interval", d.config.Interval()),
		zap.String("allow_file", d.config.AllowFile),
		zap.String("category", d.config.API.Category))

	for {
		// Shutdown is only checked between cycles; in-flight fetch and
		// hook work carries its own timeouts rather than being
		// preempted by the shutdown signal
		result := d.runCycle(context.Background())
		d.record(result)

		if result.Success {
			d.logger.Info("Update cycle completed",
				zap.Duration("duration", result.Duration))
			if result.Changed {
				d.logger.Info("Allow list changed")
			} else {
				d.logger.Info("Allow list unchanged")
			}
		} else {
			d.logger.Error("Update cycle failed",
				zap.Duration("duration", result.Duration),
				zap.String("error", result.Error))
		}

		// The countdown starts only once the cycle has fully completed,
		// so an overrunning cycle defers the next tick instead of
		// overlapping with it
		select {
		case <-ctx.Done():
			d.logger.Info("Update loop stopped")
			return
		case <-time.After(d.config.Interval()):
		}
	}
}

// runCycle performs one fetch-render-diff-write-hook sequence
func (d *Daemon) runCycle(ctx context.Context) (result Result) {
	result.StartedAt = time.Now()
	defer func() {
		result.Duration = time.Since(result.StartedAt)
	}()

	cidrs, err := d.fetcher.Fetch(ctx)
	if err != nil {
		result.Error = fmt.Sprintf("failed to fetch address ranges: %v", err)
		return result
	}

	doc := allowlist.Render(cidrs)

	if doc == d.lastDoc {
		result.Success = true
		return result
	}

	if err := d.writer.Write(d.config.AllowFile, doc); err != nil {
		// lastDoc stays untouched so the next cycle re-detects the
		// same change and retries the write
		result.Error = fmt.Sprintf("failed to write allow file: %v", err)
		return result
	}

	d.lastDoc = doc
	result.Success = true
	result.Changed = true

	d.runHook(ctx)

	return result
}

// runHook executes the after-update hook. Hook failures are warnings only;
// the written allow list stays authoritative either way.
func (d *Daemon) runHook(ctx context.Context) {
	command := d.config.AfterUpdateHook
	if command == "" {
		d.logger.Debug("No after-update hook configured, skipping")
		return
	}

	result, err := d.hook.Run(ctx, command)
	if err != nil {
		fields := []zap.Field{zap.String("command", command), zap.Error(err)}
		if result != nil {
			fields = append(fields, zap.String("output", result.Output))
		}
		d.logger.Warn("After-update hook failed", fields...)
		return
	}

	if result.ExitCode != 0 {
		d.logger.Warn("After-update hook exited with non-zero code",
			zap.String("command", command),
			zap.Int("exit_code", result.ExitCode),
			zap.String("output", result.Output))
		return
	}

	d.logger.Info("After-update hook completed",
		zap.Duration("duration", result.Duration))
}

// record updates the daemon status with one cycle result
func (d *Daemon) record(result Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.status.Cycles++
	if !result.Success {
		d.status.Failures++
	}
	if result.Changed {
		d.status.Changes++
		d.status.LastChange = result.StartedAt
	}
	d.status.LastResult = &result
}

// Status returns a copy of the current daemon status
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

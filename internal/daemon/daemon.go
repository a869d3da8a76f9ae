package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"lineup/internal/config"
	"lineup/internal/draft"
	"lineup/internal/genjob"
	"lineup/internal/logging"
	"lineup/internal/platform"
	"lineup/internal/publish"
	"lineup/internal/schedule"
	"lineup/internal/services/genbackend"
	"lineup/internal/staging"
	"lineup/internal/validate"
)

// Daemon hosts the staging pipeline behind the local HTTP API and enforces
// single-instance execution per data directory.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	drafts    *draft.Store
	jobStore  *genjob.Store
	jobs      *genjob.Manager
	committer *publish.Committer
	registry  *Registry
	api       *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	runCtx  context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DraftDBPath  string
	JobDBPath    string
	LockFilePath string
	Sessions     []*staging.Session
}

// New constructs a daemon with initialized stores and collaborators.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires a config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	drafts, err := draft.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open draft store: %w", err)
	}
	jobStore, err := genjob.OpenStore(cfg)
	if err != nil {
		_ = drafts.Close()
		return nil, fmt.Errorf("open job store: %w", err)
	}

	table, err := platform.NewTable(cfg.Platforms)
	if err != nil {
		_ = drafts.Close()
		_ = jobStore.Close()
		return nil, fmt.Errorf("build platform rules: %w", err)
	}
	validator := validate.New(table)

	backend := genbackend.NewClient(genbackend.Config{
		BaseURL:        cfg.Generation.BaseURL,
		APIKey:         cfg.Generation.APIKey,
		TimeoutSeconds: cfg.Generation.RequestTimeout,
		RetryAttempts:  cfg.Generation.RetryAttempts,
	})
	jobs := genjob.NewManager(jobStore, backend, logger)

	sink := publish.NewHTTPSink(cfg.Publish)
	committer := publish.NewCommitter(sink, drafts, validator, logger)

	deps := staging.Deps{
		Config:    cfg,
		Drafts:    drafts,
		Jobs:      jobs,
		Validator: validator,
		Assistant: schedule.NewAssistant(logger),
		Logger:    logger,
	}
	idle := time.Duration(cfg.Workflow.SessionIdleTimeout) * time.Second
	registry := NewRegistry(deps, idle, logger)

	lockPath := filepath.Join(cfg.Paths.DataDir, "lineupd.lock")
	d := &Daemon{
		cfg:       cfg,
		logger:    logger.With(slog.String(logging.FieldComponent, "daemon")),
		drafts:    drafts,
		jobStore:  jobStore,
		jobs:      jobs,
		committer: committer,
		registry:  registry,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and brings up the API server and the
// session sweeper.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another lineup daemon is already running against this data dir")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.runCtx = runCtx
	d.cancel = cancel

	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		d.cancel = nil
		return err
	}
	go d.registry.Run(runCtx)

	d.running.Store(true)
	d.logger.Info("lineup daemon started", slog.String("lock", d.lockPath))
	return nil
}

// Stop flushes every open session and releases the daemon lock. Graceful
// shutdown loses no domain state; sessions persist their drafts on close.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.registry.CloseAll()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", slog.String("error", err.Error()))
	}
	d.running.Store(false)
	d.logger.Info("lineup daemon stopped")
}

// Close releases all resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var firstErr error
	if d.drafts != nil {
		firstErr = d.drafts.Close()
	}
	if d.jobStore != nil {
		if err := d.jobStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// watchJob follows a submitted job in the background so its terminal state
// is recorded even when no client ever polls it through the API.
func (d *Daemon) watchJob(jobID string) {
	ctx := d.runCtx
	if ctx == nil {
		return
	}
	interval := time.Duration(d.cfg.Generation.PollInterval) * time.Second
	timeout := time.Duration(d.cfg.Generation.PollTimeout) * time.Second
	poller := genjob.NewPoller(d.jobs, interval, timeout, d.logger)
	go func() {
		if _, err := poller.Wait(ctx, jobID); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Debug("job watch ended",
				slog.String(logging.FieldJobID, jobID),
				slog.String("error", err.Error()))
		}
	}()
}

// Status reports daemon runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DraftDBPath:  filepath.Join(d.cfg.Paths.DataDir, "drafts.db"),
		JobDBPath:    filepath.Join(d.cfg.Paths.DataDir, "jobs.db"),
		LockFilePath: d.lockPath,
		Sessions:     d.registry.List(),
	}
}

// APIAddr returns the address the API server is listening on, once started.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

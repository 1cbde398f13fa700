package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

// Outcome is posted once per background scan.
type Outcome struct {
	Result *ScanResult
	Err    error
}

// Analyzer runs at most one walk at a time on a single background worker.
type Analyzer struct {
	// OnFile is called from the walking goroutine for every counted file.
	OnFile func(FileRecord)
	Stats  *AppStats

	pool *ants.Pool
	busy atomic.Bool
}

func NewAnalyzer() (*Analyzer, error) {
	// blocking submit: busy is cleared before the worker returns, a follow-up
	// Start waits for it instead of failing with ErrPoolOverload
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	return &Analyzer{pool: pool, Stats: &AppStats{}}, nil
}

// Release stops the background worker.
func (a *Analyzer) Release() {
	a.pool.Release()
}

// Busy reports whether a walk is in flight.
func (a *Analyzer) Busy() bool { return a.busy.Load() }

// Analyze walks root synchronously.
func (a *Analyzer) Analyze(ctx context.Context, root string, cfg ScanConfig) (*ScanResult, error) {
	if !a.busy.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer a.busy.Store(false)
	return a.walk(ctx, root, cfg)
}

// Start validates input, then runs the walk on the background worker. The returned
// channel receives exactly one Outcome.
func (a *Analyzer) Start(ctx context.Context, root string, cfg ScanConfig) (<-chan Outcome, error) {
	if err := ValidateRoot(root); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !a.busy.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	done := make(chan Outcome, 1)
	err := a.pool.Submit(func() {
		res, err := a.walk(ctx, root, cfg)
		// free the slot before posting so the receiver can start the next scan
		a.busy.Store(false)
		done <- Outcome{Result: res, Err: err}
	})
	if err != nil {
		a.busy.Store(false)
		return nil, fmt.Errorf("submit scan: %w", err)
	}
	return done, nil
}

// ValidateRoot checks that root names an existing directory.
func ValidateRoot(root string) error {
	if root == "" {
		return &ConfigError{Field: "root", Err: ErrRootRequired}
	}
	st, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ConfigError{Field: "root", Value: root, Err: ErrRootNotFound}
		}
		return &ConfigError{Field: "root", Value: root, Err: err}
	}
	if !st.IsDir() {
		return &ConfigError{Field: "root", Value: root, Err: ErrRootNotDir}
	}
	return nil
}

// walk is the scan pipeline: admitted tasks folded into an aggregate.
func (a *Analyzer) walk(ctx context.Context, root string, cfg ScanConfig) (*ScanResult, error) {
	if err := ValidateRoot(root); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Prepare()
	// WalkDir does not follow a symlinked root; records stay relative to it either way.
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, &ConfigError{Field: "root", Value: root, Err: err}
	}

	stats := a.Stats
	if stats == nil {
		stats = &AppStats{}
	}
	stats.Start()
	log := logrus.WithFields(logrus.Fields{"root": root, "method": cfg.Method})
	log.Debug("Scan started")

	agg := NewAggregator(root, cfg.Method)
	for t, err := range Tasks(ctx, walkRoot, &cfg) {
		if err != nil {
			var cerr *ConfigError
			if errors.As(err, &cerr) {
				return nil, err
			}
			stats.Errors.Add(1)
			logrus.WithFields(logrus.Fields{"file": pathOf(err), "err": err}).Warn("Skip file")
			agg.Skip(err)
			continue
		}
		stats.FilesFound.Add(1)
		rec, err := buildRecord(t, cfg.Method)
		if err != nil {
			stats.Errors.Add(1)
			logrus.WithFields(logrus.Fields{"file": t.Rel(), "err": err}).Warn("Skip file")
			agg.Skip(err)
			continue
		}
		stats.FilesProcessed.Add(1)
		if rec.Lines.IsBinary() {
			stats.Binary.Add(1)
		}
		agg.Add(rec)
		if a.OnFile != nil {
			a.OnFile(rec)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := agg.Result()
	log.WithFields(logrus.Fields{
		"files":   res.TotalFiles(),
		"lines":   res.TotalLines(),
		"skipped": res.SkippedCount(),
		"elapsed": stats.Elapsed(),
	}).Debug("Scan finished")
	return res, nil
}

// buildRecord opens the task once, classifies and counts it.
// A file that cannot be opened fails classification toward binary unless its
// extension is known text, in which case it is skipped.
func buildRecord(t Task, method Method) (FileRecord, error) {
	rc, size, err := t.Open()
	if err != nil {
		if IsTextExt(t.Ext()) {
			return FileRecord{}, &FileError{Path: t.Rel(), Op: "open", Err: err}
		}
		logrus.WithFields(logrus.Fields{"file": t.Rel(), "err": err}).Debug("Unreadable file recorded as binary")
		return FileRecord{Path: t.Rel(), Ext: t.Ext(), Size: t.size(), Lines: Binary}, nil
	}
	defer rc.Close()

	lines, err := countReader(rc, t.Ext(), method)
	if err != nil {
		return FileRecord{}, &FileError{Path: t.Rel(), Op: "read", Err: err}
	}
	return FileRecord{Path: t.Rel(), Ext: t.Ext(), Size: size, Lines: lines}, nil
}

func pathOf(err error) string {
	var ferr *FileError
	if errors.As(err, &ferr) {
		return ferr.Path
	}
	return ""
}

package internal

import (
	"cmp"
	"slices"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/maruel/natural"
)

// AppStats atomic counters for a running scan.
type AppStats struct {
	start          time.Time
	FilesFound     atomic.Int64
	FilesProcessed atomic.Int64
	Binary         atomic.Int64
	Errors         atomic.Int64
}

func (s *AppStats) Start() {
	s.start = time.Now()
}

func (s *AppStats) Elapsed() time.Duration {
	return time.Since(s.start)
}

// FileRecord is one counted file.
type FileRecord struct {
	Path  string // relative to the scan root, "/" separated
	Ext   string
	Size  int64
	Lines LineCount
}

// ExtensionAggregate totals for one extension.
type ExtensionAggregate struct {
	Files int
	Lines int
	Size  int64
}

// ScanResult is the immutable output of one walk.
type ScanResult struct {
	Root       string
	Method     Method
	Files      []FileRecord
	Extensions map[string]ExtensionAggregate
	// Skipped holds the per-file errors of the walk, nil when none.
	Skipped error
}

func (r *ScanResult) TotalFiles() int { return len(r.Files) }

func (r *ScanResult) TotalLines() int {
	total := 0
	for _, f := range r.Files {
		total += f.Lines.Value()
	}
	return total
}

func (r *ScanResult) TotalSize() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.Size
	}
	return total
}

// SkippedCount is the number of files dropped because of read errors.
func (r *ScanResult) SkippedCount() int {
	if me, ok := r.Skipped.(*multierror.Error); ok {
		return me.Len()
	}
	if r.Skipped != nil {
		return 1
	}
	return 0
}

// SortedFiles returns the records by descending line count, Binary last,
// ties broken by path.
func (r *ScanResult) SortedFiles() []FileRecord {
	out := slices.Clone(r.Files)
	slices.SortStableFunc(out, func(a, b FileRecord) int {
		if c := b.Lines.Compare(a.Lines); c != 0 {
			return c
		}
		return comparePaths(a.Path, b.Path)
	})
	return out
}

// ExtensionRow pairs an extension with its aggregate.
type ExtensionRow struct {
	Ext string
	ExtensionAggregate
}

// SortedExtensions returns the aggregates by descending line count, then extension.
func (r *ScanResult) SortedExtensions() []ExtensionRow {
	out := make([]ExtensionRow, 0, len(r.Extensions))
	for ext, agg := range r.Extensions {
		out = append(out, ExtensionRow{Ext: ext, ExtensionAggregate: agg})
	}
	slices.SortFunc(out, func(a, b ExtensionRow) int {
		if c := cmp.Compare(b.Lines, a.Lines); c != 0 {
			return c
		}
		return cmp.Compare(a.Ext, b.Ext)
	})
	return out
}

func comparePaths(a, b string) int {
	switch {
	case a == b:
		return 0
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	}
	return cmp.Compare(a, b)
}

// Aggregator folds records into a ScanResult.
type Aggregator struct {
	res     *ScanResult
	skipped *multierror.Error
}

func NewAggregator(root string, method Method) *Aggregator {
	return &Aggregator{res: &ScanResult{
		Root:       root,
		Method:     method,
		Extensions: make(map[string]ExtensionAggregate),
	}}
}

// Add appends rec and updates the aggregate of its extension.
func (a *Aggregator) Add(rec FileRecord) {
	a.res.Files = append(a.res.Files, rec)
	agg := a.res.Extensions[rec.Ext]
	agg.Files++
	agg.Lines += rec.Lines.Value()
	agg.Size += rec.Size
	a.res.Extensions[rec.Ext] = agg
}

// Skip records a file that could not be read.
func (a *Aggregator) Skip(err error) {
	a.skipped = multierror.Append(a.skipped, err)
}

// Result finalizes the fold. The aggregator must not be used afterwards.
func (a *Aggregator) Result() *ScanResult {
	if a.skipped != nil {
		a.res.Skipped = a.skipped.ErrorOrNil()
	}
	res := a.res
	a.res = nil
	return res
}

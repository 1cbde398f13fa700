package internal

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
	"github.com/sirupsen/logrus"
)

const maxArchiveFiles = 10000 // zip-bomb protection

// IsArchive by extension. O(1) map lookup
var archiveExt = map[string]struct{}{
	".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".xz": {},
	".rar": {}, ".br": {}, ".lz4": {}, ".lz": {}, ".mz": {},
	".sz": {}, ".s2": {}, ".zz": {}, ".zst": {}, ".7z": {},
}

func IsArchive(path string) bool {
	_, ok := archiveExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Task describes one admitted file.
// For archive entries fsys is only valid while the task is being yielded.
type Task struct {
	path      string
	innerPath string
	isArchive bool
	rel       string
	name      string
	fsys      iofs.FS
}

// Rel is the "/" separated path reported in records.
func (t Task) Rel() string { return t.rel }

// Ext is the lowercase extension of the file name.
func (t Task) Ext() string { return Ext(t.name) }

// Open returns the content of the task and its size.
func (t Task) Open() (io.ReadCloser, int64, error) {
	var (
		f   iofs.File
		err error
	)
	if t.isArchive {
		f, err = t.fsys.Open(t.innerPath)
	} else {
		f, err = os.Open(t.path)
	}
	if err != nil {
		return nil, 0, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, st.Size(), nil
}

// size is the on-disk size without opening the file, 0 when unknown.
func (t Task) size() int64 {
	if t.isArchive {
		if st, err := iofs.Stat(t.fsys, t.innerPath); err == nil {
			return st.Size()
		}
		return 0
	}
	if st, err := os.Stat(t.path); err == nil {
		return st.Size()
	}
	return 0
}

// WalkWithDepth uses WalkDir and cuts branches by depth.
func WalkWithDepth(ctx context.Context, root string, maxDepth int, fn func(path string, d os.DirEntry, err error) error) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fn(path, d, err)
		}
		if maxDepth > 0 {
			rel, _ := filepath.Rel(root, path)
			if rel != "." && depthCount(rel) > maxDepth {
				return filepath.SkipDir
			}
		}
		return fn(path, d, nil)
	})
}

func depthCount(rel string) int {
	if rel == "" {
		return 0
	}
	return strings.Count(rel, string(os.PathSeparator)) + 1
}

// errStopWalk unwinds the walk when the consumer stops ranging.
var errStopWalk = errors.New("walk stopped")

// Tasks lazily yields the files under root admitted by cfg. Per-file problems are
// yielded as *FileError and the walk goes on; an unreadable root is yielded as a
// *ConfigError and ends the sequence. Cancellation ends the sequence silently,
// callers check ctx.Err().
func Tasks(ctx context.Context, root string, cfg *ScanConfig) iter.Seq2[Task, error] {
	return func(yield func(Task, error) bool) {
		_ = WalkWithDepth(ctx, root, cfg.Depth, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				if p == root {
					yield(Task{}, &ConfigError{Field: "root", Value: root, Err: err})
					return filepath.SkipAll
				}
				if !yield(Task{}, &FileError{Path: p, Op: "walk", Err: err}) {
					return errStopWalk
				}
				return nil
			}
			if d.IsDir() {
				if p != root && !cfg.AdmitDir(d.Name()) {
					logrus.WithField("dir", p).Debug("Pruned folder")
					return filepath.SkipDir
				}
				return nil
			}
			if !isRegular(p, d) {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				rel = p
			}
			rel = filepath.ToSlash(rel)
			name := d.Name()

			if cfg.Archives && IsArchive(name) && (cfg.Mode() == ExtModeEverything || !MatchAny(name, cfg.ExcludeFiles)) {
				if !walkArchive(ctx, p, rel, cfg, yield) {
					return errStopWalk
				}
				return nil
			}
			if !cfg.AdmitFile(name) {
				return nil
			}
			if !yield(Task{path: p, rel: rel, name: name}, nil) {
				return errStopWalk
			}
			return nil
		})
	}
}

// isRegular follows symlinks; directories, devices and pipes are not counted.
func isRegular(p string, d os.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&iofs.ModeSymlink == 0 {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}

// walkArchive feeds archive entries as tasks. It returns false when the consumer stopped.
func walkArchive(ctx context.Context, archivePath, rel string, cfg *ScanConfig, yield func(Task, error) bool) bool {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return yield(Task{}, &FileError{Path: archivePath, Op: "open archive", Err: err})
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer closer.Close()
	}

	stopped := false
	count := 0
	_ = iofs.WalkDir(fsys, ".", func(inner string, d iofs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if !yield(Task{}, &FileError{Path: archivePath + "/" + inner, Op: "walk archive", Err: err}) {
				stopped = true
				return errStopWalk
			}
			return nil
		}
		if d.IsDir() {
			if inner != "." && !cfg.AdmitDir(d.Name()) {
				return iofs.SkipDir
			}
			return nil
		}
		if count >= maxArchiveFiles {
			logrus.Warnf("Archive %s truncated: too many files (>= %d)", archivePath, maxArchiveFiles)
			return iofs.SkipAll
		}
		name := path.Base(inner)
		if !cfg.AdmitFile(name) {
			return nil
		}
		count++
		t := Task{
			path:      archivePath,
			innerPath: inner,
			isArchive: true,
			rel:       rel + "/" + inner,
			name:      name,
			fsys:      fsys,
		}
		if !yield(t, nil) {
			stopped = true
			return errStopWalk
		}
		return nil
	})
	return !stopped
}

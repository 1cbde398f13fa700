package internal

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
)

const (
	sniffLen       = 8192
	minTextPortion = 0.50
)

// Extensions that are always treated as text, whatever their content.
var textExt = map[string]struct{}{
	".txt": {}, ".md": {}, ".rst": {}, ".csv": {}, ".tsv": {}, ".log": {},
	".json": {}, ".yaml": {}, ".yml": {}, ".toml": {}, ".ini": {}, ".cfg": {}, ".conf": {},
	".xml": {}, ".html": {}, ".htm": {}, ".css": {}, ".scss": {}, ".less": {}, ".vue": {},
	".py": {}, ".js": {}, ".ts": {}, ".jsx": {}, ".tsx": {}, ".mjs": {}, ".cjs": {},
	".java": {}, ".kt": {}, ".scala": {}, ".go": {}, ".rs": {}, ".swift": {},
	".c": {}, ".h": {}, ".cpp": {}, ".hpp": {}, ".cc": {}, ".cs": {}, ".m": {}, ".mm": {},
	".php": {}, ".rb": {}, ".pl": {}, ".r": {}, ".lua": {}, ".sql": {},
	".sh": {}, ".bash": {}, ".zsh": {}, ".bat": {}, ".cmd": {}, ".ps1": {},
}

// IsTextExt reports whether ext is on the known-text allow-list.
func IsTextExt(ext string) bool {
	_, ok := textExt[ext]
	return ok
}

// IsBinary classifies a file on disk. Any failure to read it counts as binary.
func IsBinary(path string) bool {
	if IsTextExt(Ext(filepath.Base(path))) {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()
	return isBinaryReader(bufio.NewReaderSize(f, sniffLen))
}

// isBinaryReader peeks at the head of br without consuming it.
func isBinaryReader(br *bufio.Reader) bool {
	sample, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return true
	}
	return looksBinary(sample)
}

func looksBinary(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	text := 0
	for _, b := range sample {
		if isTextByte(b) {
			text++
		}
	}
	return float64(text)/float64(len(sample)) < minTextPortion
}

func isTextByte(b byte) bool {
	switch {
	case b == '\t', b == '\n', b == '\r':
		return true
	case b >= 32 && b <= 126:
		return true
	case b >= 128:
		return true
	}
	return false
}

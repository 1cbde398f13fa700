package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const binaryMarker = "BINARY"

// LineCount is either a number of lines or the Binary marker.
type LineCount struct {
	n      int
	binary bool
}

// Binary marks a file classified as non-text; no lines were counted.
var Binary = LineCount{binary: true}

// Lines wraps a counted value.
func Lines(n int) LineCount { return LineCount{n: n} }

func (c LineCount) IsBinary() bool { return c.binary }

// Value returns the count; binary files count as zero.
func (c LineCount) Value() int {
	if c.binary {
		return 0
	}
	return c.n
}

func (c LineCount) String() string {
	if c.binary {
		return binaryMarker
	}
	return fmt.Sprintf("%d", c.n)
}

// Compare orders counts ascending with Binary below every number.
func (c LineCount) Compare(o LineCount) int {
	switch {
	case c.binary && o.binary:
		return 0
	case c.binary:
		return -1
	case o.binary:
		return 1
	case c.n < o.n:
		return -1
	case c.n > o.n:
		return 1
	}
	return 0
}

func (c LineCount) MarshalJSON() ([]byte, error) {
	if c.binary {
		return json.Marshal(binaryMarker)
	}
	return json.Marshal(c.n)
}

func (c *LineCount) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(b, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s != binaryMarker {
			return fmt.Errorf("unexpected line count %q", s)
		}
		*c = Binary
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = Lines(n)
	return nil
}

// Line prefixes treated as comments by code_only counting.
var (
	hashComments   = []string{"#"}
	braceComments  = []string{"//", "/*", "*"}
	markupComments = []string{"<!--", "*"}
	styleComments  = []string{"/*", "*"}
	queryComments  = []string{"--", "/*"}
)

var commentPrefixes = map[string][]string{
	".py": hashComments, ".sh": hashComments, ".r": hashComments,
	".rb": hashComments, ".pl": hashComments, ".ps1": hashComments,

	".js": braceComments, ".ts": braceComments, ".jsx": braceComments, ".tsx": braceComments,
	".java": braceComments, ".c": braceComments, ".cpp": braceComments, ".h": braceComments,
	".cs": braceComments, ".php": braceComments, ".go": braceComments, ".rs": braceComments,
	".swift": braceComments, ".kt": braceComments, ".scala": braceComments,

	".html": markupComments, ".htm": markupComments, ".xml": markupComments, ".vue": markupComments,

	".css": styleComments,

	".sql": queryComments,
}

// IsCommentLine reports whether a trimmed line starts with a comment prefix for ext.
func IsCommentLine(line, ext string) bool {
	for _, p := range commentPrefixes[ext] {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func countText(text, ext string, method Method) int {
	lines := splitLines(text)
	if method == MethodAll {
		return len(lines)
	}
	n := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if method == MethodCodeOnly && IsCommentLine(line, ext) {
			continue
		}
		n++
	}
	return n
}

// CountLines counts a file on disk. Binary files yield Binary; files that cannot
// be read yield zero.
func CountLines(path string, method Method) LineCount {
	ext := Ext(filepath.Base(path))
	if !IsTextExt(ext) && IsBinary(path) {
		return Binary
	}
	f, err := os.Open(path)
	if err != nil {
		return Lines(0)
	}
	defer f.Close()
	c, err := countReader(f, ext, method)
	if err != nil {
		return Lines(0)
	}
	return c
}

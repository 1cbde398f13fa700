package internal

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Method selects how lines of a text file are counted.
type Method int

const (
	MethodAll Method = iota
	MethodNonEmpty
	MethodCodeOnly
)

var ErrUnknownMethod = errors.New("unknown counting method")

// ParseMethod accepts the names used on the command line: all, non_empty, code_only.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return MethodAll, nil
	case "non_empty":
		return MethodNonEmpty, nil
	case "code_only":
		return MethodCodeOnly, nil
	}
	return MethodAll, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

func (m Method) String() string {
	switch m {
	case MethodNonEmpty:
		return "non_empty"
	case MethodCodeOnly:
		return "code_only"
	default:
		return "all"
	}
}

// Sentinel include tokens.
const (
	IncludeEverything        = ".*"
	IncludeAllExceptExcluded = ".**"
)

// ExtMode is the extension-inclusion policy derived from the include tokens.
type ExtMode int

const (
	ExtModeDefault           ExtMode = iota // empty list: everything
	ExtModeExplicit                         // only listed extensions
	ExtModeAllExceptExcluded                // ".**"
	ExtModeEverything                       // ".*", file excludes bypassed
)

// ScanConfig - filters and counting policy for one walk.
type ScanConfig struct {
	IncludeExts  []string
	ExcludeFiles []string
	ExcludeDirs  []string
	Method       Method
	Depth        int  // 0 - unlimited
	Archives     bool // expand archives and count their entries

	mode     ExtMode
	extMap   map[string]struct{}
	prepared bool
}

// Validate checks invariants.
func (c *ScanConfig) Validate() error {
	if c.Depth < 0 {
		return &ConfigError{Field: "depth", Err: errors.New("must not be negative")}
	}
	for _, group := range []struct {
		field    string
		patterns []string
	}{
		{"exclude", c.ExcludeFiles},
		{"exclude-folders", c.ExcludeDirs},
	} {
		for _, p := range group.patterns {
			if _, err := filepath.Match(globPattern(p), ""); err != nil {
				return &ConfigError{Field: group.field, Value: p, Err: err}
			}
		}
	}
	return nil
}

// Prepare builds fast lookup structures and resolves the extension mode.
func (c *ScanConfig) Prepare() {
	var exts []string
	everything, allExcept := false, false
	for _, tok := range c.IncludeExts {
		tok = strings.ToLower(strings.TrimSpace(tok))
		switch tok {
		case "":
		case IncludeEverything:
			everything = true
		case IncludeAllExceptExcluded:
			allExcept = true
		default:
			exts = append(exts, tok)
		}
	}
	switch {
	case everything:
		c.mode = ExtModeEverything
	case allExcept:
		c.mode = ExtModeAllExceptExcluded
	case len(exts) > 0:
		c.mode = ExtModeExplicit
	default:
		c.mode = ExtModeDefault
	}
	c.extMap = toSet(exts)
	c.prepared = true
}

// Mode reports the resolved extension-inclusion mode.
func (c *ScanConfig) Mode() ExtMode {
	if !c.prepared {
		c.Prepare()
	}
	return c.mode
}

func toSet(s []string) map[string]struct{} {
	if len(s) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(s))
	for _, x := range s {
		m[x] = struct{}{}
	}
	return m
}

func (c *ScanConfig) allowedExt(ext string) bool {
	if c.Mode() != ExtModeExplicit {
		return true
	}
	_, ok := c.extMap[ext]
	return ok
}

// AdmitFile applies exclude patterns and the extension policy to a bare file name.
func (c *ScanConfig) AdmitFile(name string) bool {
	if c.Mode() != ExtModeEverything && MatchAny(name, c.ExcludeFiles) {
		return false
	}
	return c.allowedExt(Ext(name))
}

// AdmitDir reports whether a directory with this bare name should be descended into.
func (c *ScanConfig) AdmitDir(name string) bool {
	return !MatchAny(name, c.ExcludeDirs)
}

// ParseList splits a comma separated value, trims tokens and drops empty ones.
func ParseList(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, tok := range strings.Split(v, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			out = append(out, tok)
		}
	}
	return out
}

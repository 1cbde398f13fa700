package internal

import (
	"runtime"
	"testing"
)

func TestMatchAny_Globs(t *testing.T) {
	cases := []struct {
		name     string
		patterns []string
		want     bool
	}{
		{"compiled.pyc", []string{"*.pyc"}, true},
		{"main.py", []string{"*.pyc", "*.exe"}, false},
		{"a1.txt", []string{"a?.txt"}, true},
		{"ab1.txt", []string{"a?.txt"}, false},
		{"log3", []string{"log[0-9]"}, true},
		{"logx", []string{"log[!0-9]"}, true},
		{"log7", []string{"log[!0-9]"}, false},
		{"README.MD", []string{"*.md"}, false}, // case-sensitive
		{"node_modules", []string{".git", "node_*"}, true},
		{"anything", nil, false},
	}
	for _, c := range cases {
		if got := MatchAny(c.name, c.patterns); got != c.want {
			t.Errorf("MatchAny(%q, %v) = %v, want %v", c.name, c.patterns, got, c.want)
		}
	}
}

func TestMatchAny_LiteralCaretAndBackslash(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("filepath.Match has no escapes on windows")
	}
	if !MatchAny("^", []string{"[^x]"}) || MatchAny("y", []string{"[^x]"}) {
		t.Error(`"^" must be literal inside a class`)
	}
	if !MatchAny(`a\b`, []string{`a\b`}) || MatchAny("ab", []string{`a\b`}) {
		t.Error("backslash must not escape")
	}
}

func TestGlobPattern(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("filepath.Match has no escapes on windows")
	}
	cases := map[string]string{
		"*.pyc":     "*.pyc",
		"log[!0-9]": "log[^0-9]",
		"[^x]":      `[\^x]`,
		`a\b`:       `a\\b`,
		"[a]^":      "[a]^",
	}
	for in, want := range cases {
		if got := globPattern(in); got != want {
			t.Errorf("globPattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchAny_BadPatternNeverMatches(t *testing.T) {
	if MatchAny("[", []string{"["}) {
		t.Fatal("malformed pattern must not match")
	}
}

func TestExt(t *testing.T) {
	cases := map[string]string{
		"main.py":        ".py",
		"Main.PY":        ".py",
		"archive.tar.gz": ".gz",
		"Makefile":       "",
		".bashrc":        "",
		"file.":          "",
		"..hidden":       ".hidden",
	}
	for name, want := range cases {
		if got := Ext(name); got != want {
			t.Errorf("Ext(%q) = %q, want %q", name, got, want)
		}
	}
}

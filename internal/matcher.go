package internal

import (
	"path/filepath"
	"runtime"
	"strings"
)

// MatchAny reports whether name matches any shell glob in patterns.
// Matching is case-sensitive; "[!...]" is accepted as a negated class.
func MatchAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(globPattern(p), name); err == nil && ok {
			return true
		}
	}
	return false
}

// globPattern translates an fnmatch-style pattern into the form filepath.Match
// understands: "[!" negates a class, a leading "^" in a class is literal and
// a backslash is an ordinary character.
func globPattern(p string) string {
	if !strings.ContainsAny(p, `[\`) {
		return p
	}
	var sb strings.Builder
	inClass := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '\\':
			if runtime.GOOS == "windows" {
				sb.WriteByte(c)
			} else {
				sb.WriteString(`\\`)
			}
		case c == '[' && !inClass:
			inClass = true
			sb.WriteByte(c)
			if i+1 < len(p) {
				switch p[i+1] {
				case '!':
					sb.WriteByte('^')
					i++
				case '^':
					// no escapes on windows, "^" keeps its negating meaning there
					if runtime.GOOS != "windows" {
						sb.WriteString(`\^`)
						i++
					}
				}
			}
		case c == ']' && inClass:
			inClass = false
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// Ext returns the lowercase suffix of a bare name: the text from the last dot,
// unless that dot starts or ends the name (".bashrc" and "file." have none).
func Ext(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i:])
}

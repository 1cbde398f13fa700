package internal

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, data, 0644))
	return p
}

func TestSplitLines(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"\n", []string{""}},
		{"a", []string{"a"}},
		{"a\n", []string{"a"}},
		{"a\nb", []string{"a", "b"}},
		{"a\r\nb\r\n", []string{"a", "b"}},
		{"a\rb\r", []string{"a", "b"}},
		{"a\n\n\nb", []string{"a", "", "", "b"}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, splitLines(c.in), "input %q", c.in)
	}
}

func TestCountText_Methods(t *testing.T) {
	src := "package main\n\n// comment\n  /* block */\n   * inside\nfunc main() {}\n   \n"
	assert.Equal(t, 7, countText(src, ".go", MethodAll))
	assert.Equal(t, 5, countText(src, ".go", MethodNonEmpty))
	assert.Equal(t, 2, countText(src, ".go", MethodCodeOnly))

	// no rule for .txt: every non-empty line is code
	assert.Equal(t, 5, countText(src, ".txt", MethodCodeOnly))
}

func TestCountText_OneBlankLine(t *testing.T) {
	assert.Equal(t, 1, countText("\n", ".py", MethodAll))
	assert.Equal(t, 0, countText("\n", ".py", MethodNonEmpty))
	assert.Equal(t, 0, countText("\n", ".py", MethodCodeOnly))
}

func TestIsCommentLine(t *testing.T) {
	cases := []struct {
		line, ext string
		want      bool
	}{
		{"# hi", ".py", true},
		{"# hi", ".sh", true},
		{"# hi", ".go", false},
		{"// hi", ".go", true},
		{"/* hi", ".java", true},
		{"* hi", ".c", true},
		{"<!-- hi -->", ".html", true},
		{"* x", ".vue", true},
		{"// hi", ".html", false},
		{"/* hi */", ".css", true},
		{"-- hi", ".sql", true},
		{"# hi", ".sql", false},
		{"-- hi", ".md", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsCommentLine(c.line, c.ext), "%q in %s", c.line, c.ext)
	}
}

func TestLooksBinary(t *testing.T) {
	assert.False(t, looksBinary(nil))
	assert.False(t, looksBinary([]byte("hello\tworld\r\n")))
	assert.True(t, looksBinary([]byte("abc\x00def")))
	assert.False(t, looksBinary([]byte{0xC3, 0xA9, 0xFF, 0x80}), "extended bytes are text-like")

	// exactly half text-like is still text, below half is binary
	assert.False(t, looksBinary([]byte{'a', 'b', 0x01, 0x02}))
	assert.True(t, looksBinary([]byte{'a', 0x01, 0x02, 0x03}))
}

func TestIsBinary(t *testing.T) {
	dir := t.TempDir()
	bin := writeFile(t, dir, "blob.dat", []byte("MZ\x00\x01\x02"))
	txt := writeFile(t, dir, "notes.dat", []byte("plain text\n"))
	empty := writeFile(t, dir, "empty.dat", nil)
	// allow-listed extension skips sniffing even with a NUL inside
	forced := writeFile(t, dir, "weird.py", []byte("x = 1\x00\n"))

	assert.True(t, IsBinary(bin))
	assert.False(t, IsBinary(txt))
	assert.False(t, IsBinary(empty))
	assert.False(t, IsBinary(forced))
	assert.True(t, IsBinary(filepath.Join(dir, "missing.dat")), "unreadable is binary")
}

func TestIsBinary_NullAfterSniffWindow(t *testing.T) {
	dir := t.TempDir()
	data := append(bytes.Repeat([]byte("a"), sniffLen), 0)
	p := writeFile(t, dir, "late.dat", data)
	assert.False(t, IsBinary(p), "only the first 8192 bytes are sampled")
}

func TestCountLines(t *testing.T) {
	dir := t.TempDir()
	py := writeFile(t, dir, "main.py", []byte("# header\nimport os\n\nprint(os.name)\n"))
	bin := writeFile(t, dir, "tool.exe", []byte{0x7f, 'E', 'L', 'F', 0, 0, 1})
	blank := writeFile(t, dir, "blank.py", []byte("\n"))

	assert.Equal(t, Lines(4), CountLines(py, MethodAll))
	assert.Equal(t, Lines(3), CountLines(py, MethodNonEmpty))
	assert.Equal(t, Lines(2), CountLines(py, MethodCodeOnly))
	assert.Equal(t, Binary, CountLines(bin, MethodAll))
	assert.Equal(t, Lines(1), CountLines(blank, MethodAll))
	assert.Equal(t, Lines(0), CountLines(blank, MethodNonEmpty))
	assert.Equal(t, Lines(0), CountLines(filepath.Join(dir, "gone.py"), MethodAll))
}

func TestCountReader_Latin1Fallback(t *testing.T) {
	// 0xE9 alone is invalid UTF-8 but valid ISO-8859-1
	c, err := countReader(bytes.NewReader([]byte("caf\xe9\nna\xefve\n")), ".txt", MethodAll)
	require.NoError(t, err)
	assert.Equal(t, Lines(2), c)
	assert.Equal(t, "café", strings.Split(decodeText([]byte("caf\xe9")), "\n")[0])
}

func TestCountReader_StripsBOM(t *testing.T) {
	assert.Equal(t, "x", decodeText([]byte("\xef\xbb\xbfx")))
}

type errorReader struct{}

func (e *errorReader) Read(p []byte) (int, error) { return 0, os.ErrInvalid }

func TestCountReader_ReadError(t *testing.T) {
	_, err := countReader(&errorReader{}, ".py", MethodAll)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrInvalid))
}

func TestCountReader_SniffFailureIsBinary(t *testing.T) {
	c, err := countReader(&errorReader{}, ".dat", MethodAll)
	require.NoError(t, err)
	assert.True(t, c.IsBinary())
}

func TestLineCount(t *testing.T) {
	assert.Equal(t, 0, Binary.Value())
	assert.Equal(t, "BINARY", Binary.String())
	assert.Equal(t, "12", Lines(12).String())
	assert.Equal(t, -1, Binary.Compare(Lines(0)))
	assert.Equal(t, 1, Lines(3).Compare(Lines(2)))
	assert.Equal(t, 0, Binary.Compare(Binary))

	b, err := Binary.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"BINARY"`, string(b))

	var c LineCount
	require.NoError(t, c.UnmarshalJSON([]byte("42")))
	assert.Equal(t, Lines(42), c)
	require.NoError(t, c.UnmarshalJSON([]byte(`"BINARY"`)))
	assert.True(t, c.IsBinary())
	assert.Error(t, c.UnmarshalJSON([]byte(`"many"`)))
}

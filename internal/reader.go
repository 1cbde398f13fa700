package internal

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// countReader classifies and counts one stream.
// The head is sniffed through the buffer, so the stream is read only once.
// The error is non-nil only when reading the body failed.
func countReader(r io.Reader, ext string, method Method) (LineCount, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	if !IsTextExt(ext) && isBinaryReader(br) {
		return Binary, nil
	}
	data, err := io.ReadAll(br)
	if err != nil {
		return LineCount{}, err
	}
	return Lines(countText(decodeText(data), ext, method)), nil
}

// decodeText returns UTF-8 content as is and falls back to ISO-8859-1,
// which maps every byte and so cannot fail.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(bytes.ToValidUTF8(data, nil))
	}
	return string(out)
}

// splitLines breaks text on "\n", "\r\n" and "\r".
// A trailing terminator does not start another line.
func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

package internal

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Format is an export layout.
type Format int

const (
	FormatCSV Format = iota
	FormatJSON
)

const noExtension = "(no extension)"

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv", "":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatCSV, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "csv"
}

// Report is the structured export document.
type Report struct {
	Summary    ReportSummary     `json:"analysis_summary"`
	Files      []ReportFile      `json:"files"`
	Extensions []ReportExtension `json:"extension_summary"`
}

type ReportSummary struct {
	TotalFiles int    `json:"total_files"`
	TotalLines int    `json:"total_lines"`
	TotalSize  int64  `json:"total_size_bytes"`
	Root       string `json:"analyzed_folder"`
	Method     string `json:"count_method"`
}

type ReportFile struct {
	Path   string    `json:"path"`
	Ext    *string   `json:"extension"`
	Lines  LineCount `json:"lines_of_code"`
	Size   int64     `json:"file_size_bytes"`
	SizeKB float64   `json:"file_size_kb"`
}

type ReportExtension struct {
	Ext    *string `json:"extension"`
	Files  int     `json:"file_count"`
	Lines  int     `json:"total_lines"`
	Size   int64   `json:"total_size_bytes"`
	SizeKB float64 `json:"total_size_kb"`
}

// NewReport builds the structured document for res.
func NewReport(res *ScanResult) *Report {
	rep := &Report{
		Summary: ReportSummary{
			TotalFiles: res.TotalFiles(),
			TotalLines: res.TotalLines(),
			TotalSize:  res.TotalSize(),
			Root:       res.Root,
			Method:     res.Method.String(),
		},
		Files:      []ReportFile{},
		Extensions: []ReportExtension{},
	}
	for _, f := range res.SortedFiles() {
		rep.Files = append(rep.Files, ReportFile{
			Path:   f.Path,
			Ext:    nullableExt(f.Ext),
			Lines:  f.Lines,
			Size:   f.Size,
			SizeKB: kbValue(f.Size),
		})
	}
	for _, e := range res.SortedExtensions() {
		rep.Extensions = append(rep.Extensions, ReportExtension{
			Ext:    nullableExt(e.Ext),
			Files:  e.Files,
			Lines:  e.Lines,
			Size:   e.Size,
			SizeKB: kbValue(e.Size),
		})
	}
	return rep
}

// ParseReport reads a structured export back.
func ParseReport(data []byte) (*Report, error) {
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &rep, nil
}

// Export writes res to w in the given format.
func Export(w io.Writer, res *ScanResult, format Format) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	var err error
	switch format {
	case FormatJSON:
		err = writeJSON(bw, res)
	case FormatCSV:
		err = writeCSV(bw, res)
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
	if err != nil {
		return &ExportError{Op: "serialize", Err: err}
	}
	if err := bw.Flush(); err != nil {
		return &ExportError{Op: "write", Err: err}
	}
	return nil
}

// Serialize returns the export as text.
func Serialize(res *ScanResult, format Format) (string, error) {
	var sb strings.Builder
	if err := Export(&sb, res, format); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteFile writes the export to path through a temp file renamed on success,
// so a partial file is never left behind.
func WriteFile(path string, res *ScanResult, format Format) (retErr error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".linecounter-export-*.tmp")
	if err != nil {
		return &ExportError{Op: "create", Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	defer func() {
		if retErr != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := Export(tmp, res, format); err != nil {
		var eerr *ExportError
		if errors.As(err, &eerr) {
			eerr.Path = path
		}
		return err
	}
	if err := tmp.Close(); err != nil {
		return &ExportError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return &ExportError{Op: "chmod", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		// On Windows, Rename cannot replace an existing destination.
		if runtime.GOOS != "windows" {
			return &ExportError{Op: "rename", Path: path, Err: err}
		}
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return &ExportError{Op: "replace", Path: path, Err: rmErr}
		}
		if err := os.Rename(tmpPath, path); err != nil {
			return &ExportError{Op: "rename", Path: path, Err: err}
		}
	}
	return nil
}

func writeJSON(w io.Writer, res *ScanResult) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(NewReport(res))
}

func writeCSV(w io.Writer, res *ScanResult) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"File Path", "Extension", "Lines of Code", "File Size (bytes)", "File Size (KB)"},
	}
	for _, f := range res.SortedFiles() {
		rows = append(rows, []string{
			f.Path,
			extLabel(f.Ext),
			f.Lines.String(),
			strconv.FormatInt(f.Size, 10),
			formatKB(f.Size),
		})
	}
	rows = append(rows,
		[]string{},
		[]string{"Summary"},
		[]string{"Total Files", strconv.Itoa(res.TotalFiles())},
		[]string{"Total Lines", strconv.Itoa(res.TotalLines())},
		[]string{"Total Size (MB)", strconv.FormatFloat(float64(res.TotalSize())/(1024*1024), 'f', 2, 64)},
		[]string{},
		[]string{"Extension", "Files", "Lines", "Size (KB)"},
	)
	for _, e := range res.SortedExtensions() {
		rows = append(rows, []string{
			extLabel(e.Ext),
			strconv.Itoa(e.Files),
			strconv.Itoa(e.Lines),
			formatKB(e.Size),
		})
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func extLabel(ext string) string {
	if ext == "" {
		return noExtension
	}
	return ext
}

func nullableExt(ext string) *string {
	if ext == "" {
		return nil
	}
	return &ext
}

func kb(size int64) float64 { return float64(size) / 1024 }

// formatKB rounds to two decimals, ties to even, like the CSV writer.
func formatKB(size int64) string { return strconv.FormatFloat(kb(size), 'f', 2, 64) }

// kbValue is formatKB as a number so both export formats agree.
func kbValue(size int64) float64 {
	v, _ := strconv.ParseFloat(formatKB(size), 64)
	return v
}

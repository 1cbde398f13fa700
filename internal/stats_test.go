package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregator_FoldsRecords(t *testing.T) {
	agg := NewAggregator("/root", MethodNonEmpty)
	agg.Add(FileRecord{Path: "a.go", Ext: ".go", Size: 100, Lines: Lines(7)})
	agg.Add(FileRecord{Path: "b.go", Ext: ".go", Size: 50, Lines: Lines(3)})
	agg.Add(FileRecord{Path: "img.png", Ext: ".png", Size: 900, Lines: Binary})
	agg.Skip(&FileError{Path: "x.go", Op: "open", Err: errors.New("boom")})
	agg.Skip(&FileError{Path: "y.go", Op: "read", Err: errors.New("bang")})
	res := agg.Result()

	assert.Equal(t, ExtensionAggregate{Files: 2, Lines: 10, Size: 150}, res.Extensions[".go"])
	assert.Equal(t, ExtensionAggregate{Files: 1, Lines: 0, Size: 900}, res.Extensions[".png"])
	assert.Equal(t, 3, res.TotalFiles())
	assert.Equal(t, 10, res.TotalLines())
	assert.Equal(t, int64(1050), res.TotalSize())
	assert.Equal(t, 2, res.SkippedCount())
	assert.Contains(t, res.Skipped.Error(), "open x.go: boom")
	assert.Equal(t, MethodNonEmpty, res.Method)
}

func TestScanResult_SortedExtensionsTies(t *testing.T) {
	res := resultOf("/r", MethodAll,
		FileRecord{Path: "b.rs", Ext: ".rs", Lines: Lines(4)},
		FileRecord{Path: "a.go", Ext: ".go", Lines: Lines(4)},
		FileRecord{Path: "c.c", Ext: ".c", Lines: Lines(9)},
	)
	rows := res.SortedExtensions()
	var order []string
	for _, r := range rows {
		order = append(order, r.Ext)
	}
	assert.Equal(t, []string{".c", ".go", ".rs"}, order)
}

func TestScanResult_NoSkipped(t *testing.T) {
	res := NewAggregator("/r", MethodAll).Result()
	assert.Nil(t, res.Skipped)
	assert.Equal(t, 0, res.SkippedCount())
	assert.Empty(t, res.SortedFiles())
}

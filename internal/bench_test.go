package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func BenchmarkCountLines(b *testing.B) {
	dir := b.TempDir()
	fp := filepath.Join(dir, "big.go")
	var sb strings.Builder
	for i := 0; i < 20000; i++ {
		sb.WriteString("// comment\n\tx := compute(i)\n\n")
	}
	_ = os.WriteFile(fp, []byte(sb.String()), 0644)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if c := CountLines(fp, MethodCodeOnly); c.Value() != 20000 {
			b.Fatalf("unexpected count %v", c)
		}
	}
}

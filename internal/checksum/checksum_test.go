package checksum

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileMatchesSum(t *testing.T) {
	p := filepath.Join(t.TempDir(), "memo.m4a")
	data := []byte("not really audio")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}

	sum, n, err := File(p)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if n != int64(len(data)) {
		t.Errorf("size = %d, want %d", n, len(data))
	}
	if sum != Sum(data) {
		t.Errorf("sum = %s, want %s", sum, Sum(data))
	}
}

func TestFileMissing(t *testing.T) {
	if _, _, err := File(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing file")
	}
}

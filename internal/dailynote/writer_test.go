package dailynote

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/voicememo/internal/apperr"
	"github.com/starford/voicememo/internal/storage"
)

func newWriter(t *testing.T, dir string, mkdir bool) (*Writer, string) {
	t.Helper()
	vault := t.TempDir()
	if mkdir {
		if err := os.MkdirAll(filepath.Join(vault, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(vault)
	if err != nil {
		t.Fatal(err)
	}
	return NewWriter(store, dir), vault
}

func TestSection(t *testing.T) {
	at := time.Date(2024, 6, 1, 14, 32, 0, 0, time.Local)
	got := Section(at, "- Buy milk\n- Call Bob")
	want := "\n\n## 🎙️ Voice Memo (14:32)\n\n- Buy milk\n- Call Bob"
	if got != want {
		t.Errorf("Section = %q, want %q", got, want)
	}
}

func TestRelPath(t *testing.T) {
	at := time.Date(2024, 6, 1, 23, 59, 0, 0, time.Local)
	if got := RelPath("Journal/Daily", at); got != filepath.Join("Journal", "Daily", "2024-06-01.md") {
		t.Errorf("RelPath = %q", got)
	}
}

func TestAppend_TwoMemosInOrder(t *testing.T) {
	w, vault := newWriter(t, "Daily", true)
	first := time.Date(2024, 6, 1, 9, 5, 0, 0, time.Local)
	second := time.Date(2024, 6, 1, 14, 32, 0, 0, time.Local)

	if _, err := w.Append(first, "first memo"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	rel, err := w.Append(second, "second memo")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(vault, rel))
	if err != nil {
		t.Fatal(err)
	}
	want := "\n\n## 🎙️ Voice Memo (09:05)\n\nfirst memo" +
		"\n\n## 🎙️ Voice Memo (14:32)\n\nsecond memo"
	if string(data) != want {
		t.Errorf("note = %q, want %q", data, want)
	}
}

func TestAppend_KeepsExistingContent(t *testing.T) {
	w, vault := newWriter(t, "Daily", true)
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local)
	p := filepath.Join(vault, "Daily", "2024-06-01.md")
	if err := os.WriteFile(p, []byte("# Saturday"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Append(at, "memo"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	data, _ := os.ReadFile(p)
	if string(data) != "# Saturday\n\n## 🎙️ Voice Memo (08:00)\n\nmemo" {
		t.Errorf("note = %q", data)
	}
}

func TestAppend_MissingDirectoryNotCreated(t *testing.T) {
	w, vault := newWriter(t, "Daily", false)
	_, err := w.Append(time.Now(), "memo")
	if !errors.Is(err, apperr.ErrWrite) {
		t.Fatalf("err = %v, want ErrWrite", err)
	}
	if _, statErr := os.Stat(filepath.Join(vault, "Daily")); !os.IsNotExist(statErr) {
		t.Error("daily note directory must not be created")
	}
}

func TestAppend_Unconfigured(t *testing.T) {
	w, _ := newWriter(t, "", false)
	if _, err := w.Append(time.Now(), "memo"); !errors.Is(err, apperr.ErrWrite) {
		t.Fatalf("err = %v, want ErrWrite", err)
	}
}

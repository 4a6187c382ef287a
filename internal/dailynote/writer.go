// Package dailynote appends voice memo sections to the vault's daily notes.
package dailynote

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/starford/voicememo/internal/apperr"
	"github.com/starford/voicememo/internal/storage"
)

// Icon prefixes every voice memo heading.
const Icon = "🎙️"

// RelPath returns the vault-relative path of the daily note for day.
func RelPath(dir string, day time.Time) string {
	return filepath.Join(dir, day.Format(time.DateOnly)+".md")
}

// Section renders one appended memo: two leading newlines, the heading with
// the local time, a blank line, then text verbatim.
func Section(at time.Time, text string) string {
	return fmt.Sprintf("\n\n## %s Voice Memo (%s)\n\n%s", Icon, at.Format("15:04"), text)
}

// Writer appends to <vault>/<dir>/<YYYY-MM-DD>.md.
type Writer struct {
	store storage.Provider
	dir   string
}

// NewWriter creates a Writer for the daily notes under dir (relative to the
// vault root). An empty dir is accepted; Append then always fails.
func NewWriter(store storage.Provider, dir string) *Writer {
	return &Writer{store: store, dir: dir}
}

// Append adds a memo section for at to that day's note and returns the
// note's vault-relative path. The note directory is never created.
func (w *Writer) Append(at time.Time, text string) (string, error) {
	if w.store == nil || w.dir == "" {
		return "", fmt.Errorf("%w: daily note path not configured", apperr.ErrWrite)
	}
	rel := RelPath(w.dir, at)
	if err := w.store.Append(rel, []byte(Section(at, text))); err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrWrite, err)
	}
	return rel, nil
}

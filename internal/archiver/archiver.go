// Package archiver relocates processed audio into the vault.
package archiver

import (
	"fmt"
	"path/filepath"

	"github.com/starford/voicememo/internal/apperr"
	"github.com/starford/voicememo/internal/storage"
)

// Dir is the archive location relative to the vault root.
var Dir = filepath.Join("_assets", "voice_archive")

// Archiver moves audio files into <vault>/_assets/voice_archive.
type Archiver struct {
	store storage.Provider
}

// New creates an Archiver over the vault store.
func New(store storage.Provider) *Archiver {
	return &Archiver{store: store}
}

// Archive moves path into the archive directory, keeping its base name, and
// returns the vault-relative destination. The directory is created on
// demand; an archived file with the same name is replaced.
func (a *Archiver) Archive(path string) (string, error) {
	if a.store == nil {
		return "", fmt.Errorf("%w: vault not configured", apperr.ErrArchive)
	}
	rel := filepath.Join(Dir, filepath.Base(path))
	if err := a.store.Import(path, rel); err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrArchive, err)
	}
	return rel, nil
}

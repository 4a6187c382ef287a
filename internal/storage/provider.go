// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/voicememo/internal/models"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Append opens path in append mode, creating the file but not its
	// parent directory, and writes data.
	Append(path string, data []byte) error
	// Import moves the file at the absolute path src to path, creating
	// parent directories. An existing file at path is replaced.
	Import(src, path string) error
}

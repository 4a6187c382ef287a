// Package models defines the domain types for voicememo.
package models

import "time"

// Memo statuses recorded in the journal.
const (
	StatusProcessing    = "processing"
	StatusProcessed     = "processed"
	StatusNoteFailed    = "note_failed"
	StatusFailed        = "failed"
	StatusArchiveFailed = "archive_failed"
)

// Pipeline stages, in execution order.
const (
	StageContext  = "context"
	StageUpload   = "upload"
	StageGenerate = "generate"
	StageNote     = "note"
	StageArchive  = "archive"
	StageDone     = "done"
)

// MemoRecord is one processing run of an audio file.
type MemoRecord struct {
	ID          string     `json:"id"`
	Path        string     `json:"path"`
	Filename    string     `json:"filename"`
	Size        int64      `json:"size"`
	Checksum    string     `json:"checksum,omitempty"`
	Status      string     `json:"status"`
	Stage       string     `json:"stage"`
	Error       string     `json:"error,omitempty"`
	NotePath    string     `json:"note_path,omitempty"`
	ArchivePath string     `json:"archive_path,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// DeadLetter reports whether the audio file was left in the watch directory.
func (r *MemoRecord) DeadLetter() bool {
	return r.Status == StatusFailed || r.Status == StatusArchiveFailed
}

// NoteMetadata is a lightweight representation of a vault Markdown file.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

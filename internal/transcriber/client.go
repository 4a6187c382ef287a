// Package transcriber wraps the remote AI service that turns an uploaded
// audio file into Markdown notes.
package transcriber

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// FileRef is an opaque handle to an uploaded file. Name identifies it for
// deletion and may be empty.
type FileRef struct {
	Name     string
	URI      string
	MIMEType string
}

// Client is the remote transcription contract.
type Client interface {
	// Upload sends the audio file and returns its remote reference.
	Upload(ctx context.Context, path string) (FileRef, error)
	// Generate asks the model to process ref according to prompt.
	Generate(ctx context.Context, prompt string, ref FileRef) (string, error)
	// Release deletes the remote file. Callers treat failure as non-fatal.
	Release(ctx context.Context, ref FileRef) error
}

var audioMIMETypes = map[string]string{
	".m4a": "audio/mp4",
	".mp3": "audio/mpeg",
	".wav": "audio/wav",
}

// MIMEType returns the upload content type for an audio file.
func MIMEType(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mt, ok := audioMIMETypes[ext]
	if !ok {
		return "", fmt.Errorf("unsupported audio extension %q", ext)
	}
	return mt, nil
}

const promptTemplate = `You are my Chief of Staff.
Here is what I have been working on recently (Context):
%s

Process this voice memo.
- If it refers to "The Project", it likely means one of the projects in the context.
- Extract action items.
- Format as clear Markdown.
- Be concise.
`

// Prompt composes the instruction text sent alongside the audio.
func Prompt(contextText string) string {
	return fmt.Sprintf(promptTemplate, contextText)
}

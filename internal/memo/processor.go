// Package memo runs the per-file voice memo pipeline.
package memo

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/voicememo/internal/models"
	"github.com/starford/voicememo/internal/notecontext"
	"github.com/starford/voicememo/internal/transcriber"
)

// NoteWriter appends generated text to a daily note.
type NoteWriter interface {
	Append(at time.Time, text string) (string, error)
}

// Archiver moves a processed audio file out of the watch directory.
type Archiver interface {
	Archive(path string) (string, error)
}

// Outcome describes how far a Process call got.
type Outcome struct {
	Stage       string
	Ref         transcriber.FileRef
	Text        string
	NotePath    string
	ArchivePath string
	NoteErr     error
	ReleaseErr  error
}

// Processor sequences context, upload, generation, release, note and
// archive for one audio file.
type Processor struct {
	reader   notecontext.Reader
	client   transcriber.Client
	notes    NoteWriter
	archiver Archiver
	now      func() time.Time
	logger   *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithClock overrides the time used to pick the daily note and heading.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

// WithLogger sets the processor logger.
func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// NewProcessor wires the pipeline components.
func NewProcessor(reader notecontext.Reader, client transcriber.Client, notes NoteWriter, archiver Archiver, opts ...ProcessorOption) *Processor {
	p := &Processor{
		reader:   reader,
		client:   client,
		notes:    notes,
		archiver: archiver,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the pipeline for path. The returned Outcome is never nil.
//
// Upload or generation failure aborts before anything touches the vault,
// leaving the audio in place. The remote file is released after generation
// regardless of its result. A note failure is reported in Outcome.NoteErr
// and archiving still runs; an archive failure is returned.
func (p *Processor) Process(ctx context.Context, path string) (*Outcome, error) {
	log := p.logger.With(slog.String("path", path))
	out := &Outcome{Stage: models.StageContext}

	contextText := p.reader.Context(ctx)

	out.Stage = models.StageUpload
	log.Info("memo: uploading")
	ref, err := p.client.Upload(ctx, path)
	if err != nil {
		return out, err
	}
	out.Ref = ref

	out.Stage = models.StageGenerate
	log.Info("memo: generating", slog.String("file", ref.Name))
	text, genErr := p.client.Generate(ctx, transcriber.Prompt(contextText), ref)

	if ref.Name != "" {
		if relErr := p.client.Release(context.WithoutCancel(ctx), ref); relErr != nil {
			out.ReleaseErr = relErr
			log.Warn("memo: release remote file failed",
				slog.String("file", ref.Name),
				slog.String("error", relErr.Error()))
		} else {
			log.Debug("memo: released remote file", slog.String("file", ref.Name))
		}
	}
	if genErr != nil {
		return out, genErr
	}
	out.Text = text

	out.Stage = models.StageNote
	at := p.now()
	notePath, noteErr := p.notes.Append(at, text)
	if noteErr != nil {
		out.NoteErr = noteErr
		log.Error("memo: write note failed", slog.String("error", noteErr.Error()))
	} else {
		out.NotePath = notePath
		log.Info("memo: note appended", slog.String("note", notePath))
	}

	out.Stage = models.StageArchive
	archivePath, err := p.archiver.Archive(path)
	if err != nil {
		return out, err
	}
	out.ArchivePath = archivePath
	out.Stage = models.StageDone
	log.Info("memo: archived", slog.String("archive", archivePath))
	return out, nil
}

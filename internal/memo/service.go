package memo

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/starford/voicememo/internal/apperr"
	"github.com/starford/voicememo/internal/checksum"
	"github.com/starford/voicememo/internal/models"
)

// Journal persists memo runs.
type Journal interface {
	Start(rec *models.MemoRecord) error
	Finish(rec *models.MemoRecord) error
}

// EventCallback is called on memo lifecycle changes.
// kind is one of "detected", "processed", "failed".
type EventCallback func(kind string, rec models.MemoRecord)

// Service wraps a Processor with journaling and lifecycle events.
type Service struct {
	proc    *Processor
	journal Journal
	cb      EventCallback
	now     func() time.Time
	logger  *slog.Logger
}

// NewService creates a Service. journal and cb may be nil.
func NewService(proc *Processor, journal Journal, cb EventCallback, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{proc: proc, journal: journal, cb: cb, now: time.Now, logger: logger}
}

// Handle processes one detected memo and records the result.
func (s *Service) Handle(ctx context.Context, path string) error {
	rec := &models.MemoRecord{
		ID:        uuid.NewString(),
		Path:      path,
		Filename:  filepath.Base(path),
		Status:    models.StatusProcessing,
		Stage:     models.StageContext,
		StartedAt: s.now().UTC(),
	}
	if sum, size, err := checksum.File(path); err == nil {
		rec.Checksum, rec.Size = sum, size
	} else {
		s.logger.Warn("memo: checksum failed", slog.String("path", path), slog.String("error", err.Error()))
	}

	s.logger.Info("memo: detected", slog.String("path", path), slog.String("id", rec.ID))
	s.record(s.start, rec)
	s.emit("detected", rec)

	out, err := s.proc.Process(ctx, path)
	finished := s.now().UTC()
	rec.FinishedAt = &finished
	rec.Stage = out.Stage
	rec.NotePath = out.NotePath
	rec.ArchivePath = out.ArchivePath

	switch {
	case err == nil && out.NoteErr == nil:
		rec.Status = models.StatusProcessed
	case err == nil:
		rec.Status = models.StatusNoteFailed
		rec.Error = out.NoteErr.Error()
	case errors.Is(err, apperr.ErrArchive):
		rec.Status = models.StatusArchiveFailed
		rec.Error = err.Error()
	default:
		rec.Status = models.StatusFailed
		rec.Error = err.Error()
	}
	s.record(s.finish, rec)

	if err != nil {
		s.emit("failed", rec)
		return err
	}
	s.emit("processed", rec)
	s.logger.Info("memo: done", slog.String("path", path), slog.String("status", rec.Status))
	return nil
}

func (s *Service) start(rec *models.MemoRecord) error  { return s.journal.Start(rec) }
func (s *Service) finish(rec *models.MemoRecord) error { return s.journal.Finish(rec) }

func (s *Service) record(fn func(*models.MemoRecord) error, rec *models.MemoRecord) {
	if s.journal == nil {
		return
	}
	if err := fn(rec); err != nil {
		s.logger.Warn("memo: journal write failed", slog.String("id", rec.ID), slog.String("error", err.Error()))
	}
}

func (s *Service) emit(kind string, rec *models.MemoRecord) {
	if s.cb != nil {
		s.cb(kind, *rec)
	}
}

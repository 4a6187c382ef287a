// Package notecontext builds the "what have I been working on" context that
// accompanies every memo sent for transcription.
package notecontext

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/voicememo/internal/dailynote"
	"github.com/starford/voicememo/internal/parser"
	"github.com/starford/voicememo/internal/storage"
)

// PlaceholderText is returned when no context could be loaded.
const PlaceholderText = "No recent context loaded."

// Reader produces a best-effort context blob. Implementations never fail.
type Reader interface {
	Context(ctx context.Context) string
}

// Placeholder always returns PlaceholderText.
type Placeholder struct{}

// Context implements Reader.
func (Placeholder) Context(context.Context) string { return PlaceholderText }

// DailyNotes reads the most recent daily notes from the vault.
type DailyNotes struct {
	store    storage.Provider
	dir      string
	days     int
	maxBytes int
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a DailyNotes reader.
type Option func(*DailyNotes)

// WithClock overrides the time source used to pick "today".
func WithClock(now func() time.Time) Option {
	return func(r *DailyNotes) { r.now = now }
}

// WithMaxBytes bounds the size of the returned context. Zero means unbounded.
func WithMaxBytes(n int) Option {
	return func(r *DailyNotes) { r.maxBytes = n }
}

// WithLogger sets the logger used for unreadable notes.
func WithLogger(l *slog.Logger) Option {
	return func(r *DailyNotes) { r.logger = l }
}

// NewDailyNotes creates a reader over the last days daily notes in dir.
func NewDailyNotes(store storage.Provider, dir string, days int, opts ...Option) *DailyNotes {
	r := &DailyNotes{
		store:  store,
		dir:    dir,
		days:   days,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// New returns the reader matching the configuration: DailyNotes when days
// is positive and the daily note path is set, Placeholder otherwise.
func New(store storage.Provider, dir string, days int, opts ...Option) Reader {
	if days <= 0 || dir == "" || store == nil {
		return Placeholder{}
	}
	return NewDailyNotes(store, dir, days, opts...)
}

// Context returns today's and previous days' note bodies, newest first,
// each under a "### YYYY-MM-DD" heading. Missing notes are skipped.
func (r *DailyNotes) Context(ctx context.Context) string {
	var sb strings.Builder
	today := r.now()

	for i := 0; i < r.days; i++ {
		if ctx.Err() != nil {
			break
		}
		day := today.AddDate(0, 0, -i)
		rel := dailynote.RelPath(r.dir, day)
		data, err := r.store.Read(rel)
		if err != nil {
			r.logger.Debug("context: note unavailable", slog.String("path", rel), slog.String("error", err.Error()))
			continue
		}
		body := strings.TrimSpace(parser.Parse(data).Body)
		if body == "" {
			continue
		}
		section := fmt.Sprintf("### %s\n%s\n\n", day.Format(time.DateOnly), body)
		if r.maxBytes > 0 && sb.Len()+len(section) > r.maxBytes {
			remaining := r.maxBytes - sb.Len()
			if remaining > 0 {
				sb.WriteString(truncate(section, remaining))
			}
			break
		}
		sb.WriteString(section)
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return PlaceholderText
	}
	return out
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

package memo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/starford/voicememo/internal/models"
	"github.com/starford/voicememo/internal/transcriber"
)

// fakeClient records calls in order so tests can assert sequencing.
type fakeClient struct {
	mu         sync.Mutex
	calls      []string
	ref        transcriber.FileRef
	text       string
	uploadErr  error
	genErr     error
	releaseErr error
	prompt     string
	released   []transcriber.FileRef
}

func (c *fakeClient) Upload(_ context.Context, path string) (transcriber.FileRef, error) {
	c.log("upload")
	if c.uploadErr != nil {
		return transcriber.FileRef{}, c.uploadErr
	}
	return c.ref, nil
}

func (c *fakeClient) Generate(_ context.Context, prompt string, _ transcriber.FileRef) (string, error) {
	c.log("generate")
	c.prompt = prompt
	return c.text, c.genErr
}

func (c *fakeClient) Release(_ context.Context, ref transcriber.FileRef) error {
	c.log("release")
	c.released = append(c.released, ref)
	return c.releaseErr
}

func (c *fakeClient) log(call string) {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
}

type fakeNotes struct {
	calls *[]string
	err   error
	texts []string
	at    []time.Time
}

func (n *fakeNotes) Append(at time.Time, text string) (string, error) {
	*n.calls = append(*n.calls, "note")
	if n.err != nil {
		return "", n.err
	}
	n.texts = append(n.texts, text)
	n.at = append(n.at, at)
	return "Daily/" + at.Format(time.DateOnly) + ".md", nil
}

type fakeArchiver struct {
	calls *[]string
	err   error
	paths []string
}

func (a *fakeArchiver) Archive(path string) (string, error) {
	*a.calls = append(*a.calls, "archive")
	if a.err != nil {
		return "", a.err
	}
	a.paths = append(a.paths, path)
	return "_assets/voice_archive/x", nil
}

type staticReader string

func (r staticReader) Context(context.Context) string { return string(r) }

type fakeJournal struct {
	started  []models.MemoRecord
	finished []models.MemoRecord
	err      error
}

func (j *fakeJournal) Start(rec *models.MemoRecord) error {
	j.started = append(j.started, *rec)
	return j.err
}

func (j *fakeJournal) Finish(rec *models.MemoRecord) error {
	j.finished = append(j.finished, *rec)
	return j.err
}

var errBoom = errors.New("boom")

package memo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/voicememo/internal/apperr"
	"github.com/starford/voicememo/internal/checksum"
	"github.com/starford/voicememo/internal/models"
)

type event struct {
	kind string
	rec  models.MemoRecord
}

func newService(t *testing.T, h *harness) (*Service, *fakeJournal, *[]event, string) {
	t.Helper()
	src := filepath.Join(t.TempDir(), "Memo1.m4a")
	require.NoError(t, os.WriteFile(src, []byte("audio bytes"), 0o644))
	j := &fakeJournal{}
	var events []event
	svc := NewService(h.proc, j, func(kind string, rec models.MemoRecord) {
		events = append(events, event{kind, rec})
	}, nil)
	return svc, j, &events, src
}

func TestService_Processed(t *testing.T) {
	h := newHarness()
	svc, j, events, src := newService(t, h)

	require.NoError(t, svc.Handle(context.Background(), src))

	require.Len(t, j.started, 1)
	require.Len(t, j.finished, 1)
	rec := j.finished[0]
	assert.Equal(t, j.started[0].ID, rec.ID)
	assert.Equal(t, models.StatusProcessed, rec.Status)
	assert.Equal(t, models.StageDone, rec.Stage)
	assert.Equal(t, "Memo1.m4a", rec.Filename)
	assert.Equal(t, int64(len("audio bytes")), rec.Size)
	assert.Equal(t, checksum.Sum([]byte("audio bytes")), rec.Checksum)
	assert.NotNil(t, rec.FinishedAt)

	require.Len(t, *events, 2)
	assert.Equal(t, "detected", (*events)[0].kind)
	assert.Equal(t, "processed", (*events)[1].kind)
}

func TestService_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(*harness)
		status string
		kind   string
		fails  bool
	}{
		{"note failed", func(h *harness) { h.notes.err = apperr.ErrWrite }, models.StatusNoteFailed, "processed", false},
		{"generation failed", func(h *harness) { h.client.genErr = apperr.ErrGeneration }, models.StatusFailed, "failed", true},
		{"upload failed", func(h *harness) { h.client.uploadErr = apperr.ErrUpload }, models.StatusFailed, "failed", true},
		{"archive failed", func(h *harness) { h.arch.err = fmt.Errorf("%w: x", apperr.ErrArchive) }, models.StatusArchiveFailed, "failed", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			tc.setup(h)
			svc, j, events, src := newService(t, h)

			err := svc.Handle(context.Background(), src)
			if tc.fails {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			require.Len(t, j.finished, 1)
			assert.Equal(t, tc.status, j.finished[0].Status)
			assert.NotEmpty(t, j.finished[0].Error)
			assert.Equal(t, tc.kind, (*events)[len(*events)-1].kind)
		})
	}
}

func TestService_JournalErrorsDoNotAbort(t *testing.T) {
	h := newHarness()
	svc, j, _, src := newService(t, h)
	j.err = errBoom

	require.NoError(t, svc.Handle(context.Background(), src))
	assert.Equal(t, []string{"upload", "generate", "release", "note", "archive"}, h.client.calls)
}

func TestService_NilJournalAndCallback(t *testing.T) {
	h := newHarness()
	svc := NewService(h.proc, nil, nil, nil)
	assert.NoError(t, svc.Handle(context.Background(), "/watch/missing.m4a"))
}

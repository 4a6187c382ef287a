package memo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/voicememo/internal/apperr"
	"github.com/starford/voicememo/internal/archiver"
	"github.com/starford/voicememo/internal/dailynote"
	"github.com/starford/voicememo/internal/models"
	"github.com/starford/voicememo/internal/notecontext"
	"github.com/starford/voicememo/internal/storage"
	"github.com/starford/voicememo/internal/transcriber"
)

var clock = time.Date(2024, 6, 1, 14, 32, 0, 0, time.Local)

type harness struct {
	client *fakeClient
	notes  *fakeNotes
	arch   *fakeArchiver
	proc   *Processor
}

func newHarness() *harness {
	c := &fakeClient{
		ref:  transcriber.FileRef{Name: "ref-1", URI: "uri", MIMEType: "audio/mp4"},
		text: "- Buy milk\n- Call Bob",
	}
	n := &fakeNotes{calls: &c.calls}
	a := &fakeArchiver{calls: &c.calls}
	p := NewProcessor(staticReader("No recent context loaded."), c, n, a,
		WithClock(func() time.Time { return clock }))
	return &harness{client: c, notes: n, arch: a, proc: p}
}

func TestProcess_HappyPathOrdering(t *testing.T) {
	h := newHarness()

	out, err := h.proc.Process(context.Background(), "/watch/Memo1.m4a")
	require.NoError(t, err)

	assert.Equal(t, []string{"upload", "generate", "release", "note", "archive"}, h.client.calls)
	assert.Equal(t, []transcriber.FileRef{h.client.ref}, h.client.released)
	assert.Equal(t, []string{"- Buy milk\n- Call Bob"}, h.notes.texts)
	assert.Equal(t, []string{"/watch/Memo1.m4a"}, h.arch.paths)
	assert.Contains(t, h.client.prompt, "No recent context loaded.")
	assert.Equal(t, models.StageDone, out.Stage)
	assert.Equal(t, "Daily/2024-06-01.md", out.NotePath)
}

func TestProcess_UploadFailure(t *testing.T) {
	h := newHarness()
	h.client.uploadErr = fmt.Errorf("%w: %w", apperr.ErrUpload, errBoom)

	out, err := h.proc.Process(context.Background(), "/watch/Memo1.m4a")
	assert.ErrorIs(t, err, apperr.ErrUpload)
	assert.Equal(t, []string{"upload"}, h.client.calls)
	assert.Equal(t, models.StageUpload, out.Stage)
}

func TestProcess_GenerationFailureReleasesAndStops(t *testing.T) {
	h := newHarness()
	h.client.genErr = fmt.Errorf("%w: %w", apperr.ErrGeneration, errBoom)

	out, err := h.proc.Process(context.Background(), "/watch/Memo1.m4a")
	assert.ErrorIs(t, err, apperr.ErrGeneration)
	assert.Equal(t, []string{"upload", "generate", "release"}, h.client.calls)
	assert.Len(t, h.client.released, 1)
	assert.Empty(t, h.notes.texts)
	assert.Empty(t, h.arch.paths)
	assert.Equal(t, models.StageGenerate, out.Stage)
}

func TestProcess_UnnamedRefNotReleased(t *testing.T) {
	h := newHarness()
	h.client.ref = transcriber.FileRef{URI: "uri"}

	_, err := h.proc.Process(context.Background(), "/watch/Memo1.m4a")
	require.NoError(t, err)
	assert.Equal(t, []string{"upload", "generate", "note", "archive"}, h.client.calls)
}

func TestProcess_ReleaseFailureIsNonFatal(t *testing.T) {
	h := newHarness()
	h.client.releaseErr = errBoom

	out, err := h.proc.Process(context.Background(), "/watch/Memo1.m4a")
	require.NoError(t, err)
	assert.ErrorIs(t, out.ReleaseErr, errBoom)
	assert.Equal(t, []string{"upload", "generate", "release", "note", "archive"}, h.client.calls)
}

func TestProcess_NoteFailureStillArchives(t *testing.T) {
	h := newHarness()
	h.notes.err = fmt.Errorf("%w: %w", apperr.ErrWrite, errBoom)

	out, err := h.proc.Process(context.Background(), "/watch/Memo1.m4a")
	require.NoError(t, err)
	assert.ErrorIs(t, out.NoteErr, apperr.ErrWrite)
	assert.Equal(t, []string{"/watch/Memo1.m4a"}, h.arch.paths)
	assert.Equal(t, models.StageDone, out.Stage)
}

func TestProcess_ArchiveFailure(t *testing.T) {
	h := newHarness()
	h.arch.err = fmt.Errorf("%w: %w", apperr.ErrArchive, errBoom)

	out, err := h.proc.Process(context.Background(), "/watch/Memo1.m4a")
	assert.ErrorIs(t, err, apperr.ErrArchive)
	assert.Equal(t, models.StageArchive, out.Stage)
	assert.NotEmpty(t, out.NotePath)
}

func TestProcess_ReleaseSurvivesCancelledContext(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	h.client.genErr = context.Canceled
	cancel()

	_, err := h.proc.Process(ctx, "/watch/Memo1.m4a")
	assert.Error(t, err)
	assert.Len(t, h.client.released, 1)
}

// realPipeline wires the real note writer and archiver over a temp vault.
func realPipeline(t *testing.T, c *fakeClient, dailyDir string) (*Processor, string, string) {
	t.Helper()
	vault := t.TempDir()
	watch := t.TempDir()
	if dailyDir != "" {
		require.NoError(t, os.MkdirAll(filepath.Join(vault, dailyDir), 0o755))
	}
	store, err := storage.NewFS(vault)
	require.NoError(t, err)
	p := NewProcessor(notecontext.Placeholder{}, c,
		dailynote.NewWriter(store, dailyDir), archiver.New(store),
		WithClock(func() time.Time { return clock }))
	return p, vault, watch
}

func TestProcess_Scenario(t *testing.T) {
	c := &fakeClient{ref: transcriber.FileRef{Name: "ref-1"}, text: "- Buy milk\n- Call Bob"}
	p, vault, watch := realPipeline(t, c, "Daily")
	src := filepath.Join(watch, "Memo1.m4a")
	require.NoError(t, os.WriteFile(src, []byte("audio"), 0o644))

	_, err := p.Process(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "ref-1", c.released[0].Name)
	note, err := os.ReadFile(filepath.Join(vault, "Daily", "2024-06-01.md"))
	require.NoError(t, err)
	assert.Equal(t, "\n\n## 🎙️ Voice Memo (14:32)\n\n- Buy milk\n- Call Bob", string(note))
	assert.NoFileExists(t, src)
	assert.FileExists(t, filepath.Join(vault, "_assets", "voice_archive", "Memo1.m4a"))
}

func TestProcess_GenerationFailureLeavesFile(t *testing.T) {
	c := &fakeClient{ref: transcriber.FileRef{Name: "ref-1"}, genErr: apperr.ErrGeneration}
	p, vault, watch := realPipeline(t, c, "Daily")
	src := filepath.Join(watch, "Memo1.m4a")
	require.NoError(t, os.WriteFile(src, []byte("audio"), 0o644))

	_, err := p.Process(context.Background(), src)
	require.Error(t, err)

	assert.FileExists(t, src)
	assert.NoFileExists(t, filepath.Join(vault, "Daily", "2024-06-01.md"))
}

func TestProcess_MissingDailyDirStillArchives(t *testing.T) {
	c := &fakeClient{ref: transcriber.FileRef{Name: "ref-1"}, text: "text"}
	p, vault, watch := realPipeline(t, c, "")
	src := filepath.Join(watch, "Memo2.wav")
	require.NoError(t, os.WriteFile(src, []byte("audio"), 0o644))

	out, err := p.Process(context.Background(), src)
	require.NoError(t, err)
	assert.ErrorIs(t, out.NoteErr, apperr.ErrWrite)
	assert.NoFileExists(t, src)
	assert.FileExists(t, filepath.Join(vault, "_assets", "voice_archive", "Memo2.wav"))
}

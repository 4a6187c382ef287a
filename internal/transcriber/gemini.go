package transcriber

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/starford/voicememo/internal/apperr"
)

// UploadDisplayName labels every uploaded memo in the Gemini file store.
const UploadDisplayName = "Voice Memo"

type fileService interface {
	UploadFromPath(ctx context.Context, path string, config *genai.UploadFileConfig) (*genai.File, error)
	Delete(ctx context.Context, name string, config *genai.DeleteFileConfig) (*genai.DeleteFileResponse, error)
}

type modelService interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements Client with the Gemini Developer API.
type Gemini struct {
	files   fileService
	models  modelService
	model   string
	timeout time.Duration
}

var _ Client = (*Gemini)(nil)

// GeminiOption configures the Gemini client.
type GeminiOption func(*Gemini)

// WithTimeout bounds every remote call. Zero disables the bound.
func WithTimeout(d time.Duration) GeminiOption {
	return func(g *Gemini) { g.timeout = d }
}

// NewGemini creates a Gemini client for model authenticated with apiKey.
func NewGemini(ctx context.Context, apiKey, model string, opts ...GeminiOption) (*Gemini, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("transcriber: create client: %w", err)
	}
	return newGemini(c.Files, c.Models, model, opts...), nil
}

func newGemini(files fileService, models modelService, model string, opts ...GeminiOption) *Gemini {
	g := &Gemini{files: files, models: models, model: model}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gemini) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

// Upload implements Client.
func (g *Gemini) Upload(ctx context.Context, path string) (FileRef, error) {
	mt, err := MIMEType(path)
	if err != nil {
		return FileRef{}, fmt.Errorf("%w: %w", apperr.ErrUpload, err)
	}
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	f, err := g.files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		DisplayName: UploadDisplayName,
		MIMEType:    mt,
	})
	if err != nil {
		return FileRef{}, fmt.Errorf("%w: %w", apperr.ErrUpload, err)
	}
	ref := FileRef{Name: f.Name, URI: f.URI, MIMEType: f.MIMEType}
	if ref.MIMEType == "" {
		ref.MIMEType = mt
	}
	return ref, nil
}

// Generate implements Client.
func (g *Gemini) Generate(ctx context.Context, prompt string, ref FileRef) (string, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromURI(ref.URI, ref.MIMEType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrGeneration, err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: %w", apperr.ErrGeneration, errEmptyResponse)
	}
	return text, nil
}

var errEmptyResponse = errors.New("model returned no text")

// Release implements Client. A reference without a name has nothing to
// delete.
func (g *Gemini) Release(ctx context.Context, ref FileRef) error {
	if ref.Name == "" {
		return nil
	}
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	if _, err := g.files.Delete(ctx, ref.Name, nil); err != nil {
		return fmt.Errorf("transcriber: delete %s: %w", ref.Name, err)
	}
	return nil
}

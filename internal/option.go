package internal

import (
	"io"
	"log/slog"

	"github.com/starford/voicememo/internal/transcriber"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	client    transcriber.Client
	logOutput io.Writer
	ready     func()
	logger    *slog.Logger
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithTranscriber replaces the Gemini client built from the configuration.
func WithTranscriber(c transcriber.Client) Option {
	return func(a *application) {
		a.client = c
	}
}

// WithLogOutput redirects log output (default stderr).
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithReady registers fn to be called once the watch directory is subscribed.
func WithReady(fn func()) Option {
	return func(a *application) {
		a.ready = fn
	}
}

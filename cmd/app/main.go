package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/voicememo/internal"
	"github.com/starford/voicememo/internal/apperr"
	pkgconfig "github.com/starford/voicememo/pkg/config"
)

const defaultConfigPath = "config/config.yaml"

// loadConfig layers defaults, the optional YAML file and CLI/env overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.DecodeOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrConfig, err)
	}
	if !found && cmd.IsSet("config") {
		return nil, fmt.Errorf("%w: config file %s not found", apperr.ErrConfig, configPath)
	}

	if cmd.IsSet("api-key") {
		cfg.Gemini.APIKey = cmd.String("api-key")
	}
	if cmd.IsSet("watch-dir") {
		cfg.Watch.Dir = cmd.String("watch-dir")
	}
	if cmd.IsSet("vault") {
		cfg.Vault.Path = cmd.String("vault")
	}
	if cmd.IsSet("daily-note-path") {
		cfg.Vault.DailyNotePath = cmd.String("daily-note-path")
	}
	if cmd.IsSet("model") {
		cfg.Gemini.Model = cmd.String("model")
	}
	if cmd.IsSet("timeout") {
		cfg.Gemini.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("http") {
		cfg.App.HTTP.Enabled = cmd.Bool("http")
	}
	return cfg, nil
}

func watch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func process(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("process: at least one audio file is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Process(ctx, cmd.Args().Slice(), internal.WithConfig(cfg))
}

func memos(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ListMemos(ctx, os.Stdout, cmd.String("status"), int(cmd.Int("limit")), internal.WithConfig(cfg))
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:   "voicememo",
		Usage:  "Watch a folder for voice memos, transcribe them with Gemini and append them to Obsidian daily notes",
		Action: watch,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigPath,
				Value:       defaultConfigPath,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Gemini API key",
				Sources: cli.EnvVars("GEMINI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "watch-dir",
				Usage:   "Directory to watch for new audio files",
				Sources: cli.EnvVars("WATCH_DIR"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Obsidian vault root",
				Sources: cli.EnvVars("OBSIDIAN_VAULT"),
			},
			&cli.StringFlag{
				Name:    "daily-note-path",
				Usage:   "Daily notes folder, relative to the vault root",
				Sources: cli.EnvVars("OBSIDIAN_DAILY_NOTE_PATH"),
			},
			&cli.StringFlag{
				Name:    "model",
				Usage:   "Gemini model name",
				Sources: cli.EnvVars("GEMINI_MODEL"),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Per-call timeout for Gemini requests (0 = none)",
				Sources: cli.EnvVars("GEMINI_TIMEOUT"),
			},
			&cli.BoolFlag{
				Name:  "http",
				Usage: "Serve the operator HTTP endpoint on 127.0.0.1",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "process",
				Usage:     "Run the pipeline once for each given audio file",
				ArgsUsage: "FILE...",
				Action:    process,
			},
			{
				Name:  "memos",
				Usage: "List the memo journal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (processed, note_failed, failed, archive_failed)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of rows",
						Value: 50,
					},
				},
				Action: memos,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/vk/solverforge/internal/config"
	"github.com/vk/solverforge/internal/ctxlog"
	"github.com/vk/solverforge/internal/toolchain"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	fs        afero.Fs
	toolchain toolchain.Toolchain
	model     *config.Model
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and a loaded,
// validated project model.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, fs afero.Fs, tc toolchain.Toolchain) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.", "project", model.Project)

	if appConfig.ModeOverride != "" {
		mode, err := config.ParseMode(appConfig.ModeOverride)
		if err != nil {
			panic(fmt.Errorf("failed to apply mode override: %w", err))
		}
		logger.Debug("Linkage mode overridden from the command line.", "mode", mode.String())
		model.Mode = mode
	}

	if err := model.Validate(); err != nil {
		panic(fmt.Errorf("failed to validate configuration: %w", err))
	}
	logger.Debug("Configuration validation passed.")

	return &App{
		outW:      outW,
		logger:    logger,
		fs:        fs,
		toolchain: tc,
		model:     model,
	}
}

// Model returns the loaded project model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

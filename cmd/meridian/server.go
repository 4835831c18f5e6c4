package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/meridian/internal/room"
)

// ServeCmd runs the authoritative room server: one room, one terrain
// pipeline, any number of connected spectators and movers.
type ServeCmd struct {
	Addr        string `kong:"default=':8080',help='HTTP listen address'"`
	Config      string `kong:"help='Path to an HCL server config file (optional)'"`
	PaletteFile string `kong:"help='Path to a TOML cosmetic palette file (optional)'"`
	Debug       bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	logger := setupLogger(c.Debug)

	cfg := room.DefaultServerConfig()
	if c.Config != "" {
		loaded, err := room.LoadServerConfig(c.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if c.Addr != "" {
		cfg.ListenAddr = c.Addr
	}
	if c.PaletteFile != "" {
		cfg.PaletteFile = c.PaletteFile
	}

	palette := room.DefaultPalette()
	if cfg.PaletteFile != "" {
		loaded, err := room.LoadPalette(cfg.PaletteFile)
		if err != nil {
			return err
		}
		palette = loaded
	}

	connLogger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Level:           charmlog.InfoLevel,
	})
	if c.Debug {
		connLogger.SetLevel(charmlog.DebugLevel)
	}

	r := room.New(quartz.NewReal(), logger, palette)
	r.SetSnapshotInterval(cfg.SnapshotIntervalMs)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		room.Upgrade(w, req, r, connLogger)
	})
	mux.HandleFunc("/health", room.HandleHealth)
	mux.HandleFunc("/stats", room.HandleStats(r))
	mux.HandleFunc("/admin/kick", room.HandleKick(r))

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	logger.Info().
		Str("address", cfg.ListenAddr).
		Str("log_level", cfg.LogLevel).
		Int("snapshot_interval_ms", cfg.SnapshotIntervalMs).
		Msg("Starting meridian room server")

	ctx := setupSignalHandler(logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("error closing room connections")
		}
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

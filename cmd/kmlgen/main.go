// Command kmlgen is a terminal editor for waypoint routes that exports KML.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"kmlgen/internal/app"
	"kmlgen/internal/config"
	"kmlgen/internal/echo"
	"kmlgen/internal/logger"
	"kmlgen/internal/storage"
	"kmlgen/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("data dir: %w", err)
	}

	// the terminal belongs to the UI, so logs go to a file
	lf, err := os.OpenFile(filepath.Join(cfg.DataDir, "kmlgen.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("log file: %w", err)
	}
	defer lf.Close()
	log := logger.Setup(lf)

	db, err := storage.Open(filepath.Join(cfg.DataDir, "state.sqlite"))
	if err != nil {
		return err
	}
	defer db.Close()

	opts := app.Options{DB: db, OutDir: cfg.OutDir}
	var ec *echo.Client
	if !cfg.NoEcho {
		ec = echo.New(cfg.EchoURL, nil)
		opts.Echo = ec
	}
	a := app.New(opts)
	if err := a.Hydrate(context.Background()); err != nil {
		log.Warn("hydrate_failed", "err", err)
	}
	log.Info("start", "data_dir", cfg.DataDir, "out_dir", cfg.OutDir, "waypoints", len(a.Placed()))

	m := tui.New(a, cfg.OpenPath)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	ec.Wait()
	log.Info("exit")
	return err
}

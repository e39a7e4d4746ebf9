package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"uptimeboard/internal/config"
	"uptimeboard/internal/fetcher"
	"uptimeboard/internal/logx"
	"uptimeboard/internal/monitor"
	"uptimeboard/internal/render"
	"uptimeboard/internal/server"
	"uptimeboard/internal/storage"
	"uptimeboard/internal/storage/sqlite"
)

const usage = `usage: uptimeboard <command> [flags]

commands:
  check   run every target once and publish the data files
  render  fetch latest.json once and write the dashboard page
  serve   serve the dashboard over HTTP
`

func main() {
	log := logx.New()
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "check":
		err = runCheck(ctx, log, os.Args[2:])
	case "render":
		err = runRender(ctx, log, os.Args[2:], os.Stdout)
	case "serve":
		err = runServe(ctx, log, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error(os.Args[1]+" failed", "err", err)
		os.Exit(1)
	}
}

func runCheck(ctx context.Context, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file (YAML)")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(cfg.Targets) == 0 {
		return errors.New("configuration must define at least one target")
	}
	log.Info("loaded targets", "count", len(cfg.Targets), "config", *configPath)

	docs, err := storage.NewDocuments(cfg.DataDirectory)
	if err != nil {
		return err
	}
	history, err := openHistory(ctx, cfg, docs)
	if err != nil {
		return err
	}
	defer history.Close()

	mon := monitor.New(cfg.Targets, docs, history, log, monitor.Options{
		Timeout:       cfg.Timeout(),
		UserAgent:     cfg.UserAgent,
		FailThreshold: cfg.FailThreshold,
		HistoryLimit:  cfg.MaxHistoryEvents,
	})
	_, err = mon.RunOnce(ctx)
	return err
}

func runRender(ctx context.Context, log *slog.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file (YAML)")
	source := fs.String("source", "", "latest.json path or URL (defaults to the configured source)")
	out := fs.String("out", "-", "output file, - for stdout")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}
	src := *source
	if src == "" {
		src = cfg.SnapshotSource()
	}

	snap, err := fetcher.New(src).Fetch(ctx)
	if err != nil {
		return err
	}
	page, err := renderer.Page(snap)
	if err != nil {
		return err
	}

	if *out == "-" {
		_, err = stdout.Write(page)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("ensure output directory: %w", err)
	}
	if err := os.WriteFile(*out, page, 0o644); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	log.Info("dashboard rendered", "source", src, "out", *out, "cards", len(snap.Results))
	return nil
}

func runServe(ctx context.Context, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file (YAML)")
	addr := fs.String("addr", ":8080", "address for the web server")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}
	docs, err := storage.NewDocuments(cfg.DataDirectory)
	if err != nil {
		return err
	}
	history, err := openHistory(ctx, cfg, docs)
	if err != nil {
		return err
	}
	defer history.Close()

	srv := server.New(*addr, fetcher.New(cfg.SnapshotSource()), renderer, docs, history, log)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown", "err", err)
		}
	}()

	log.Info("dashboard listening", "addr", *addr, "source", cfg.SnapshotSource())
	if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func newRenderer(cfg config.Config) (*render.Renderer, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return render.New(render.Options{
		Title:       cfg.Dashboard.Title,
		ContainerID: cfg.Dashboard.ContainerID,
		Location:    loc,
		TimeLayout:  cfg.Dashboard.TimeLayout,
	}), nil
}

func openHistory(ctx context.Context, cfg config.Config, docs *storage.Documents) (storage.HistoryStore, error) {
	if cfg.HistoryBackend == config.HistoryBackendSQLite {
		store, err := sqlite.New(ctx, filepath.Join(cfg.DataDirectory, "history.db"))
		if err != nil {
			return nil, fmt.Errorf("initialise history: %w", err)
		}
		return store, nil
	}
	return storage.NewJSONHistory(docs), nil
}

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cutscript/cutscript-agent/internal/api"
	"github.com/cutscript/cutscript-agent/internal/config"
	"github.com/cutscript/cutscript-agent/internal/db"
	"github.com/cutscript/cutscript-agent/internal/executor"
	"github.com/cutscript/cutscript-agent/internal/logging"
	"github.com/cutscript/cutscript-agent/internal/probe"
	"github.com/cutscript/cutscript-agent/internal/project"
	"github.com/cutscript/cutscript-agent/internal/session"
	"github.com/cutscript/cutscript-agent/internal/timeline"
	"github.com/cutscript/cutscript-agent/internal/watcher"
)

func main() {
	watchPath := flag.String("watch", "", "script file to watch and compile into the named document")
	watchDoc := flag.String("doc", "scratch", "document name used by -watch")
	flag.Parse()

	if err := run(*watchPath, *watchDoc); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run(watchPath, watchDoc string) error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting cutscript agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := project.NewRepository(database.Conn())

	deviceID, err := ensureConfigValue(repo, "device_id", 16)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureConfigValue(repo, "auth_token", 32)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                   CUTSCRIPT AGENT v" + config.Version + "                   ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	var prober probe.Prober
	if ff, err := probe.NewFFProber(cfg.FFProbePath(), cfg.ProbeTimeout(), logger); err != nil {
		logger.Warn("ffprobe unavailable, LOAD durations fall back to the default", "error", err)
		prober = probe.NewStubProber(executor.FallbackDuration, logger)
	} else {
		prober = ff
	}
	durations := probe.NewCache(prober, logger)

	factory := func() *session.Session {
		store := timeline.NewStore(nil)
		exec := executor.New(store, durations, nil, logging.WithComponent(logger, "executor"))
		sess := session.New(store, exec, nil, logging.WithComponent(logger, "session"))
		sess.SetDebounce(cfg.Debounce())
		return sess
	}

	projectSvc := project.NewService(repo, factory, logging.WithComponent(logger, "project"))

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		ProjectService: projectSvc,
		Repository:     repo,
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return apiServer.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return apiServer.Shutdown(shutdownCtx)
	})

	if watchPath != "" {
		g.Go(func() error {
			return watchScript(gctx, watchPath, watchDoc, projectSvc, cfg, logger)
		})
	}

	err = g.Wait()
	if err != nil && err != context.Canceled {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

// watchScript mirrors an on-disk script file into a document so the
// user can edit with any editor while the agent recompiles.
func watchScript(ctx context.Context, path, docName string, svc *project.Service, cfg config.Config, logger *slog.Logger) error {
	doc, err := svc.GetDocumentByNameOrCreate(ctx, docName)
	if err != nil {
		return fmt.Errorf("failed to prepare watch document: %w", err)
	}

	w := watcher.NewPollWatcher(cfg.WatchInterval(), logging.WithComponent(logger, "watcher"))
	w.OnChange(func(p, text string) {
		if _, err := svc.UpdateBody(ctx, doc.ID, text); err != nil {
			logger.Warn("failed to apply watched script change", "path", logging.SanitizePath(p), "error", err)
		}
	})

	logger.Info("watching script file", "path", logging.SanitizePath(path), "document_id", doc.ID)
	err = w.Watch(ctx, path)
	if err == context.Canceled {
		return nil
	}
	return err
}

func ensureConfigValue(repo project.Repository, key string, size int) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, key)
	if err == nil && existing != "" {
		return existing, nil
	}

	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	value := hex.EncodeToString(b)

	if err := repo.SetConfig(ctx, key, value); err != nil {
		return "", err
	}

	return value, nil
}

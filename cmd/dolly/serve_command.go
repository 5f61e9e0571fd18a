package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/vrcdolly/dolly-agent/internal/api"
	"github.com/vrcdolly/dolly-agent/internal/config"
	"github.com/vrcdolly/dolly-agent/internal/db"
	"github.com/vrcdolly/dolly-agent/internal/dolly"
	"github.com/vrcdolly/dolly-agent/internal/library"
	"github.com/vrcdolly/dolly-agent/internal/logging"
	"github.com/vrcdolly/dolly-agent/internal/osc"
	"github.com/vrcdolly/dolly-agent/internal/preview"
	"github.com/vrcdolly/dolly-agent/internal/ui"
	"github.com/vrcdolly/dolly-agent/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

var errAlreadyRunning = errors.New("another dolly agent is already running")

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the agent: HTTP API, OSC bridge, preview stream and tray",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(sigCtx, cfg, cmd.OutOrStdout())
		},
	}
}

func runServe(ctx context.Context, cfg *config.EnvConfig, out io.Writer) error {
	startTime := time.Now()

	if err := os.MkdirAll(cfg.DataDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel(), cfg.LogFormat())
	logger.Info("starting dolly agent", "version", config.Version, "data_dir", cfg.DataDir())

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errAlreadyRunning
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release agent lock", "error", err)
		}
	}()

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := library.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(ctx, repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}
	printBanner(out, cfg, authToken)

	manager := dolly.NewManager(logging.WithComponent(logger, "manager"))
	lib := library.NewService(manager, repo, cfg.SnapshotKeep(), logging.WithComponent(logger, "library"))

	oscLogger := logging.WithComponent(logger, "osc")
	client, err := osc.NewClient(cfg.OSCLocalPort(), cfg.OSCRemoteHost(), cfg.OSCRemotePort())
	if err != nil {
		return err
	}
	sender := osc.NewSender(client, oscLogger)

	hub := preview.NewHub(manager.Paths, logging.WithComponent(logger, "preview"))
	unsubscribe := manager.Subscribe(func(paths []dolly.Path) {
		if hub.HasViewers() {
			hub.Publish(paths)
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if port := cfg.OSCListenPort(); port > 0 {
		router := osc.NewRouter(oscLogger)
		if err := router.Bind(osc.AddrImport, importFromOSC(gctx, lib, oscLogger)); err != nil {
			return err
		}
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		g.Go(func() error {
			if err := router.ListenAndServe(gctx, addr); err != nil {
				oscLogger.Error("osc listener stopped", "addr", addr, "error", err)
			}
			return nil
		})
	}

	if dir := cfg.WatchDir(); dir != "" {
		w := watcher.New(dir, cfg.WatchInterval(), importFromFile(lib), logging.WithComponent(logger, "watcher"))
		g.Go(func() error {
			if err := w.Run(gctx); err != nil {
				logger.Error("export watcher stopped", "dir", dir, "error", err)
			}
			return nil
		})
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:      cfg.Port(),
		Manager:   manager,
		Library:   lib,
		Store:     repo,
		OSC:       sender,
		Preview:   hub,
		Logger:    logging.WithComponent(logger, "api"),
		StartTime: startTime,
		Version:   config.Version,
	})

	g.Go(func() error {
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown HTTP server", "error", err)
		}
		return nil
	})

	var tray *ui.Tray
	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray = ui.NewTray(ui.TrayConfig{
			Manager: manager,
			Library: lib,
			Logger:  logging.WithComponent(logger, "tray"),
			OnPlay:  sender.Play,
			OnPush: func() error {
				return sender.PushPaths(manager.Paths())
			},
			OnPull: sender.ExportPaths,
			OnQuit: cancel,
		})
		go tray.Run()
	}

	err = g.Wait()
	if tray != nil {
		tray.Quit()
	}
	if err != nil {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

// importFromOSC replaces the collection with a document the application
// sent as the first argument of /dolly/Import.
func importFromOSC(ctx context.Context, lib *library.Service, logger *slog.Logger) osc.HandlerFunc {
	return func(msg *goosc.Message) {
		doc, ok := osc.StringArg(msg, 0)
		if !ok {
			logger.Warn("ignoring import without a document argument", "address", msg.Address)
			return
		}
		if _, err := lib.Import(ctx, []byte(doc), dolly.FormatJSON, library.SourceOSC); err != nil {
			logger.Warn("failed to import paths from osc", "error", err)
		}
	}
}

func importFromFile(lib *library.Service) watcher.Handler {
	return func(ctx context.Context, path string, event watcher.EventType) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = lib.Import(ctx, data, dolly.FormatFromPath(path), library.SourceWatch)
		return err
	}
}

type tokenStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

func ensureAuthToken(ctx context.Context, store tokenStore) (string, error) {
	existing, err := store.GetConfig(ctx, api.AuthTokenKey)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := store.SetConfig(ctx, api.AuthTokenKey, token); err != nil {
		return "", err
	}

	return token, nil
}

func printBanner(out io.Writer, cfg config.Config, token string) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "╔═══════════════════════════════════════════════════════════════════════════════╗")
	fmt.Fprintf(out, "║  DOLLY AGENT %-64s ║\n", config.Version)
	fmt.Fprintln(out, "╠═══════════════════════════════════════════════════════════════════════════════╣")
	fmt.Fprintf(out, "║  API URL:    %-64s ║\n", fmt.Sprintf("http://127.0.0.1:%d", cfg.Port()))
	fmt.Fprintf(out, "║  Auth Token: %-64s ║\n", token)
	fmt.Fprintf(out, "║  OSC Out:    %-64s ║\n", fmt.Sprintf("%s:%d", cfg.OSCRemoteHost(), cfg.OSCRemotePort()))
	fmt.Fprintln(out, "╚═══════════════════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(out)
}

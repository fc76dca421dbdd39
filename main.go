package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/soar/pdincr/internal/behavior"
	"github.com/soar/pdincr/internal/config"
	"github.com/soar/pdincr/internal/console"
	"github.com/soar/pdincr/internal/hub"
	"github.com/soar/pdincr/internal/logging"
	"github.com/soar/pdincr/internal/monitor"
	"github.com/soar/pdincr/internal/sensor"
	"github.com/soar/pdincr/internal/server"
	"github.com/soar/pdincr/internal/statsview"
	"github.com/soar/pdincr/internal/tray"
)

// Cross-platform signal handling: use os.Interrupt on all platforms
// On Windows: os.Interrupt is sent when Ctrl+C is pressed
// On Unix: os.Interrupt is equivalent to syscall.SIGINT
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load("pdincr", os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "pdincr:", err)
		os.Exit(2)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintln(os.Stderr, "pdincr:", err)
		os.Exit(2)
	}

	if cfg.Monitor != "" {
		os.Exit(runMonitor(cfg, logger))
	}
	os.Exit(run(cfg, logger))
}

func runMonitor(cfg *config.Config, logger *slog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	if err := monitor.Run(ctx, cfg.Monitor, cfg.Active, os.Stdout, logger); err != nil {
		logger.Error("Monitor stopped", "error", err)
		return 1
	}
	return 0
}

// buildRouter creates one pipeline per configured behavior. Scroll pipelines
// own their accumulator unless scroll.shared is set.
func buildRouter(cfg *config.Config, emit behavior.Emitter, logger *slog.Logger) (*behavior.Router, error) {
	newState := func() (*behavior.ScrollState, error) {
		return behavior.NewScrollStateWithThresholds(cfg.Scroll.VerticalThreshold, cfg.Scroll.HorizontalThreshold)
	}

	var shared behavior.Quantizer
	if cfg.Scroll.Shared {
		s, err := newState()
		if err != nil {
			return nil, err
		}
		shared = behavior.NewLockedScrollState(s)
	}

	pipelines := make([]*behavior.Pipeline, 0, len(cfg.Behaviors))
	for _, b := range cfg.Behaviors {
		var opts []behavior.Option
		if b.Mode == behavior.ModeScroll {
			q := shared
			if q == nil {
				s, err := newState()
				if err != nil {
					return nil, err
				}
				q = s
			}
			opts = append(opts, behavior.WithQuantizer(q))
		}
		p, err := behavior.NewPipeline(b.Name, b.Config, emit, logger, opts...)
		if err != nil {
			return nil, err
		}
		pipelines = append(pipelines, p)
	}
	return behavior.NewRouter(pipelines, cfg.Active)
}

// activeBehavior mirrors the router's choice when no active name is set.
func activeBehavior(cfg *config.Config) string {
	if cfg.Active != "" || len(cfg.Behaviors) == 0 {
		return cfg.Active
	}
	return cfg.Behaviors[0].Name
}

func newSource(cfg *config.Config, logger *slog.Logger) sensor.Source {
	switch cfg.Source.Kind {
	case config.SourceEvdev:
		return sensor.NewEvdevSource(cfg.Source.Device, logger)
	case config.SourceReplay:
		return sensor.NewReplaySource(cfg.Source.File, cfg.Source.Realtime, logger)
	default:
		return sensor.NewJoystickSource(cfg.Source.Speed, logger)
	}
}

func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func run(cfg *config.Config, logger *slog.Logger) int {
	// Create cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)

	// SDL replaces the console control handler during init, so it is
	// registered again once the joystick source is up.
	consoleShutdown := make(chan struct{})
	reregister := console.SetupConsoleHandler(consoleShutdown, logger)

	h := hub.NewHub(logger)
	go h.Run(ctx)

	broadcaster := hub.NewBroadcaster(h, activeBehavior(cfg), logger)
	go broadcaster.Run(ctx)

	router, err := buildRouter(cfg, broadcaster, logger)
	if err != nil {
		logger.Error("Invalid behavior configuration", "error", err)
		return 2
	}
	router.OnSelect(broadcaster.BindingSelected)
	router.OnSelect(func(name string) {
		logger.Info("Active binding changed", "binding", name)
	})

	srv := server.New(h, broadcaster, router, getFrontendFS(), cfg.Server.Addr, cfg.Server.Minify, logger)
	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	url := browserURL(cfg.Server.Addr)
	logger.Info("pdincr started", "url", url, "source", cfg.Source.Kind, "active", router.Active())

	if cfg.Statsview.Enabled {
		statsview.Launch(cfg.Statsview.Addr, logger)
	}

	// Channel for tray-triggered shutdown
	shutdownRequested := make(chan struct{})

	// The tray replaces the console when launched from Explorer on Windows
	if runtime.GOOS == "windows" && cfg.Tray {
		fromConsole := console.IsRunningFromConsole()
		go func() {
			var once sync.Once
			t := tray.New(func() {
				once.Do(func() { close(shutdownRequested) })
			}, url, router, logger)
			t.Run(tray.Icon())
		}()
		if fromConsole {
			logger.Info("Press Ctrl+C to exit")
		}
	} else {
		logger.Info("Press Ctrl+C to exit")
	}

	source := newSource(cfg, logger)
	if js, ok := source.(*sensor.JoystickSource); ok {
		js.OnInit = reregister
	}
	sourceDone := make(chan error, 1)
	go func() {
		sourceDone <- source.Run(ctx, router)
	}()

	exitCode := 0
	sourceRunning := true
wait:
	for {
		select {
		case <-sigCh:
			logger.Info("Shutting down...")
			break wait
		case <-consoleShutdown:
			logger.Info("Shutting down...")
			break wait
		case <-shutdownRequested:
			logger.Info("Shutdown requested from tray")
			break wait
		case err := <-serverErrCh:
			logger.Error("HTTP server error", "error", err)
			exitCode = 1
			break wait
		case err := <-sourceDone:
			sourceRunning = false
			if err != nil {
				logger.Error("Sample source failed", "source", source.Name(), "error", err)
				exitCode = 1
				break wait
			}
			// Keep serving so viewers can still read the totals
			logger.Info("Sample source finished", "source", source.Name())
		}
	}
	cancel()

	// Wait for the source to finish
	if sourceRunning {
		select {
		case <-sourceDone:
		case <-time.After(shutdownTimeout):
			logger.Warn("Sample source did not stop in time", "source", source.Name())
		}
	}

	// Shutdown the HTTP server gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", "error", err)
	}

	logger.Info("pdincr stopped")
	return exitCode
}

// Package main provides the entry point for the marker tracker service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"marker-tracker/internal/api"
	"marker-tracker/internal/app"
	"marker-tracker/internal/config"
	"marker-tracker/internal/logging"
	"marker-tracker/internal/marker"
	"marker-tracker/internal/pipeline"
	"marker-tracker/internal/render"
	"marker-tracker/internal/stream"
	"marker-tracker/internal/version"
	"marker-tracker/ui/prefs"
	"marker-tracker/ui/viewer"
)

const (
	appID           = "io.marker-tracker"
	shutdownTimeout = 5 * time.Second
)

var rootCmd = &cobra.Command{
	Use:          "marker-tracker",
	Short:        "Memorize ArUco markers, then report the order they are first seen",
	Version:      version.String(),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.String("config", "", "directory holding "+config.FileName)
	f.String("device", "0", "camera index or video file to read frames from")
	f.String("addr", ":5000", "HTTP listen address")
	f.Int("width", 640, "working frame width in pixels")
	f.Int("quality", 80, "JPEG quality of the stream (1-100)")
	f.StringSlice("dict", nil, "marker dictionaries to detect (default: 4X4_50, 5X5_100, 6X6_250, 7X7_250)")
	f.Bool("window", false, "open the desktop viewer")
	f.Bool("hot-reload", false, "restart when the binary is rebuilt")
	f.String("log-level", "info", "TRACE, DEBUG, INFO, WARN or ERROR")

	for key, flag := range map[string]string{
		"camera.device":  "device",
		"http.addr":      "addr",
		"frame.width":    "width",
		"jpeg.quality":   "quality",
		"dictionaries":   "dict",
		"window.enabled": "window",
		"hotReload":      "hot-reload",
		"logLevel":       "log-level",
	} {
		if err := viper.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	configDir, _ := cmd.Flags().GetString("config")
	if err := config.Load(configDir); err != nil {
		return err
	}
	settings, err := config.Current()
	if err != nil {
		return err
	}

	log := logging.Setup(settings.LogLevel, os.Stderr, false)
	log.Info().Str("version", version.String()).Msg("Starting marker-tracker")

	detector, err := marker.NewArucoDetector(settings.Dictionaries)
	if err != nil {
		return err
	}
	defer detector.Close()
	for _, d := range detector.Dictionaries() {
		log.Debug().Str("dictionary", d.Name).Int("ids", d.Size).Msg("Detector: dictionary loaded")
	}

	src, err := pipeline.OpenSource(settings.Camera.Device)
	if err != nil {
		return err
	}
	defer src.Close()

	state := app.NewState()
	hub := stream.NewHub()

	server, err := api.NewServer(state, hub, logging.Component(log, "http"))
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              settings.HTTP.Addr,
		Handler:           api.NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	pipe := pipeline.New(state, detector,
		render.NewPresenter(settings.Frame.Width),
		settings.JPEG.Quality,
		logging.Component(log, "pipeline"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var restart atomic.Bool
	reloader := setupHotReload(settings.HotReload, log, func() {
		restart.Store(true)
		cancel()
	})
	if reloader != nil {
		defer reloader.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// A source that ends leaves the server up so the results stay visible.
		return pipe.Run(gctx, src, hub)
	})
	g.Go(func() error {
		log.Info().Str("addr", settings.HTTP.Addr).Msg("HTTP: listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		hub.Close()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		log.Info().Msg("HTTP: shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	if settings.Window.Enabled {
		// fyne needs the main goroutine; closing the window stops the service.
		v := viewer.New(fyneapp.NewWithID(appID), state, hub, prefs.Load(), logging.Component(log, "viewer"))
		v.Run(gctx)
		cancel()
	}

	err = g.Wait()
	if err != nil {
		log.Error().Err(err).Msg("Stopped with error")
	}
	if restart.Load() {
		log.Info().Msg("Hot reload: restarting")
		if rerr := reloader.Restart(); rerr != nil {
			return fmt.Errorf("hot reload: restart failed: %w", rerr)
		}
	}
	log.Info().Msg("Stopped")
	return err
}

// setupHotReload watches the executable when enabled and calls onNewBinary
// once a rebuilt binary replaces it.
func setupHotReload(enabled bool, log zerolog.Logger, onNewBinary func()) *app.HotReloader {
	if !enabled {
		return nil
	}
	reloader, err := app.NewHotReloader()
	if err != nil {
		log.Warn().Err(err).Msg("Hot reload: unable to determine executable path")
		return nil
	}

	log.Info().
		Str("path", reloader.ExecPath()).
		Str("modified", reloader.StartupTime().Format("15:04:05")).
		Msg("Hot reload: watching")

	reloader.OnNewBinary(func() {
		log.Info().Msg("Hot reload: newer binary detected")
		onNewBinary()
	})
	if err := reloader.Start(); err != nil {
		log.Warn().Err(err).Msg("Hot reload: watcher failed to start")
		return nil
	}
	return reloader
}

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ravend/internal/config"
	"ravend/internal/hardware"
	"ravend/internal/httpapi"
	"ravend/internal/manager"
	"ravend/internal/selector"
)

const captureTimeout = 5 * time.Second

func main() {
	// Flags with environment variable defaults
	defaultAddr := ":8080"
	if v := os.Getenv("RAVEND_ADDR"); v != "" {
		defaultAddr = v
	}
	defaultModels := "~/.ravend/models"
	if v := os.Getenv("RAVEND_MODELS_DIR"); v != "" {
		defaultModels = v
	}
	addr := flag.String("addr", defaultAddr, "HTTP listen address, e.g. :8080")
	modelsDir := flag.String("models-dir", defaultModels, "Directory to scan for model artifacts")
	configPath := flag.String("config", os.Getenv("RAVEND_CONFIG"), "Optional config file (yaml/json/toml)")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "ravend").Logger()

	var cfg config.Config
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
		cfg = c
	}
	if cfg.Addr != "" {
		*addr = cfg.Addr
	}
	if cfg.ModelsDir != "" {
		*modelsDir = cfg.ModelsDir
	}

	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	hw := hardware.Capture(ctx, log)
	cancel()
	log.Info().Int("cpu_cores", hw.CPUCores).
		Int64("available_memory_bytes", hw.AvailableMemoryBytes).
		Int("accelerators", len(hw.Accelerators)).
		Msg("hardware profiled")

	mgr := manager.NewWithConfig(manager.Config{
		Hardware:    hw,
		Preferences: cfg.Preferences,
		LedgerCap:   cfg.LedgerCap,
		LedgerPath:  cfg.LedgerPath,
		Selector: selector.Config{
			Weights: selector.Weights{
				StaticFit:  cfg.StaticFitWeight,
				History:    cfg.HistoryWeight,
				Preference: cfg.PreferenceWeight,
			},
			HistoryWindow: cfg.HistoryWindow,
		},
		Logger: log,
	})
	if err := mgr.Discover(context.Background(), *modelsDir); err != nil {
		log.Fatal().Err(err).Str("dir", *modelsDir).Msg("model discovery failed")
	}

	httpapi.SetLogger(log)
	srv := &http.Server{Addr: *addr, Handler: httpapi.NewMux(mgr)}

	go func() {
		log.Info().Str("addr", *addr).Str("models_dir", *modelsDir).Msg("ravend listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	mgr.CleanupResources()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
}

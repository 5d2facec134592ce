package app

import (
	"os"
	"time"

	"voice-transcript-hub/internal/config"
	"voice-transcript-hub/internal/observability/logging"

	"github.com/rs/zerolog"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Config) *Application {
	a := &Application{
		Cfg: cfg,
	}
	a.setupLogger()

	appLogger := a.Logger.With().
		Str("component", "application").
		Str("method", "New").
		Logger()

	appLogger.Info().Msg("Voice transcript hub application created")
	return a
}

// setupLogger configures the global zerolog logger for the service.
func (a *Application) setupLogger() {
	logCfg := logging.DefaultConfig()
	logCfg.Level = a.Cfg.Log.Level
	logCfg.Format = a.Cfg.Log.Format
	if os.Getenv("ENV") == "dev" {
		logCfg.Format = "console"
	}
	logging.Init(logCfg)

	a.Logger = logging.Logger().With().
		Str("service", "voice-transcript-hub").
		Logger()

	a.Logger.Info().
		Str("logLevel", logCfg.Level).
		Str("logFormat", logCfg.Format).
		Str("environment", os.Getenv("ENV")).
		Msg("Logger setup completed")
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Voice transcript hub starting")

	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	shutdownLogger.Info().Msg("Voice transcript hub shutting down")
}

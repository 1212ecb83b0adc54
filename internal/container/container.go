package container

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"abstat/adapters/excel"
	"abstat/app"
	"abstat/internal/analysis"
	"abstat/internal/api"
	"abstat/internal/config"
	"abstat/internal/errors"
	"abstat/internal/logging"
	"abstat/internal/metrics"
	"abstat/ui"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	Logger   *zap.Logger
	Recorder *metrics.Recorder

	// Services
	Experiments *app.ExperimentService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("configuration is required")
	}

	recorder := metrics.NewRecorder()
	return &Container{
		Config:      cfg,
		Logger:      logging.New(cfg.Logging),
		Recorder:    recorder,
		Experiments: app.NewExperimentService(analysis.NewStandardNormal(), cfg.Defaults, recorder),
	}, nil
}

// APIServer builds the JSON API
func (c *Container) APIServer() *api.Server {
	gin.SetMode(c.Config.Server.GinMode)
	return api.NewServer(c.Experiments, c.Recorder, c.Logger.Named("api"))
}

// UIApp builds the form app
func (c *Container) UIApp() (*ui.App, error) {
	a, err := ui.NewApp(c.Experiments, c.Logger.Named("ui"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create UI app")
	}
	return a, nil
}

// ExperimentSheet opens a batch input file with the configured defaults
func (c *Container) ExperimentSheet(path string) *excel.ExperimentSheet {
	return excel.NewExperimentSheet(path, c.Config.Defaults, c.Logger.Named("batch"))
}

// Close flushes buffered log entries
func (c *Container) Close() {
	_ = c.Logger.Sync()
}

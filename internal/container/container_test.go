package container

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abstat/app"
	"abstat/internal/config"
	"abstat/internal/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		Defaults: app.BuiltinDefaults(),
		Server:   config.ServerConfig{Port: "0", GinMode: "test"},
		UI:       config.UIConfig{Port: "0"},
		Batch:    config.BatchConfig{Concurrency: 2},
		Logging:  config.LoggingConfig{Level: "error", Format: "json"},
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.IsCode(err, errors.CodeConfigInvalid))
}

func TestContainer_WiresServers(t *testing.T) {
	c, err := New(testConfig())
	require.NoError(t, err)
	defer c.Close()

	rec := httptest.NewRecorder()
	c.APIServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	uiApp, err := c.UIApp()
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	uiApp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sample-size", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 0.95, c.Experiments.Defaults().ConfidenceLevel)
}

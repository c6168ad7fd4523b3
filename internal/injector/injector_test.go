package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/spatial/internal/core/config"
)

func TestInitializeApp(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Inspector.Enabled = true

	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, app.Simulation)
	require.NotNil(t, app.Inspector)
	assert.Same(t, app.Bus, app.Simulation.Bus())
	assert.Equal(t, cfg, app.Config)
}

func TestInitializeApp_InspectorDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "error"

	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, app.Inspector)
}

func TestInitializeApp_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Collision.Workers = 0
	_, _, err := InitializeApp(cfg)
	require.Error(t, err)
}

package injector

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/behave/internal/config"
	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/bt/loader"
	"github.com/zeusync/behave/internal/core/observability/log"
)

func TestInitializeApp(t *testing.T) {
	cfg := config.Default()
	cfg.TickInterval = 0
	cfg.LogLevel = "error"

	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	assert.Equal(t, log.LevelError, app.Logger.GetLevel())
	assert.True(t, app.Registry.Has("succeed"))

	def, err := loader.LoadYAML(strings.NewReader(`
name: ping
root: ok
nodes:
  ok:
    type: action
    action: succeed
`))
	require.NoError(t, err)

	r, err := app.Runner(def)
	require.NoError(t, err)
	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, bt.StatusSuccess, res.Status)
	assert.Equal(t, uint64(2), app.Bus.Metrics().Published)
}

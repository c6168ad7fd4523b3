package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/spatial/internal/core/config"
	"github.com/zeusync/spatial/internal/core/events/bus"
	"github.com/zeusync/spatial/internal/core/observability/log"
	"github.com/zeusync/spatial/internal/core/scene"
	"github.com/zeusync/spatial/internal/core/simulation"
)

const testScene = `
objects:
  - name: seed
    position: [0, 0]
    hitbox: {size: [10, 10], centered: true}
    layers: Dependent
    draggable:
      must_contain: Zone
  - name: garden
    position: [100, 0]
    hitbox: {size: [60, 60], centered: true}
    layers: Zone
`

const testScript = `
frames:
  - cursor: [0, 0]
    pressed: true
  - cursor: [50, 0]
    pressed: true
    repeat: 3
  - cursor: [100, 0]
    pressed: true
  - cursor: [100, 0]
  # pointer leaves the window
  - {}
  - cursor: [100, 0]
    pressed: true
  - cursor: [300, 300]
    pressed: true
  - cursor: [300, 300]
`

func TestReplay(t *testing.T) {
	sc, err := scene.Parse(strings.NewReader(testScene))
	require.NoError(t, err)
	script, err := scene.ParseScript(strings.NewReader(testScript))
	require.NoError(t, err)
	sim, err := simulation.New(config.Default(), log.Nop(), bus.New())
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := replay(context.Background(), sim, log.Nop(), sc, script, &out)
	require.NoError(t, err)

	assert.Equal(t, 10, res.Frames)
	require.Len(t, res.Drops, 1)
	assert.Equal(t, "seed", res.Drops[0].Dropped)
	assert.Equal(t, "garden", res.Drops[0].Target)

	var snap simulation.Snapshot
	require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
	assert.Equal(t, uint64(10), snap.Frame)

	// The second drag ended outside the garden and was cancelled.
	id, ok := sim.FindByName("seed")
	require.True(t, ok)
	pos, _ := sim.Position(id)
	assert.Equal(t, 100.0, pos.X)
	assert.Equal(t, 0.0, pos.Y)
}

func TestReplay_Cancelled(t *testing.T) {
	sc, err := scene.Parse(strings.NewReader(testScene))
	require.NoError(t, err)
	script, err := scene.ParseScript(strings.NewReader(testScript))
	require.NoError(t, err)
	sim, err := simulation.New(config.Default(), log.Nop(), bus.New())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := replay(ctx, sim, log.Nop(), sc, script, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Frames)
}

package main

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillaja/sph"
)

func TestSetupPreset(t *testing.T) {
	sim, err := setup("", "", "box", 25, 2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 25, sim.Len())
	assert.Equal(t, sph.BoxBoundary, sim.Config().Boundary)
	assert.Equal(t, 2, sim.Config().Workers)

	_, err = setup("", "", "cube", 0, 0, nil)
	assert.Error(t, err)
}

func TestSetupConfigAndState(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "sim.gcfg")
	require.NoError(t, os.WriteFile(conf, []byte("[Simulation]\nParticleCount = 12\nWorkers = 1\n"), 0644))

	sim, err := setup("", conf, "shell", 0, 0, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	assert.Equal(t, 12, sim.Len())
	assert.Equal(t, 1, sim.Config().Workers)
	sim.Step(0)

	state := filepath.Join(dir, "state.data")
	require.NoError(t, sim.SaveFile(state))
	resumed, err := setup(state, "", "box", 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, resumed.Steps())
	assert.Equal(t, sph.ShellBoundary, resumed.Config().Boundary)
}

func TestStepSize(t *testing.T) {
	cfg := sph.ShellPreset()
	assert.Equal(t, 0.05, stepSize(0.05, cfg))
	assert.Equal(t, cfg.TimeStep, stepSize(0, cfg))
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/grad/internal/snapshot"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOutput(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestDevicesCommand(t *testing.T) {
	out, err := execute(t, "devices")
	require.NoError(t, err)
	assert.Contains(t, out, "BACKEND")
	assert.Contains(t, out, "cpu")
	assert.Contains(t, out, "webgpu")
	assert.Contains(t, out, "opencl")
}

func TestDemoCommand_CPU(t *testing.T) {
	out, err := execute(t, "demo", "--backend", "cpu", "--steps", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "x = [-1 2 -3 4]")
	assert.Contains(t, out, "dx = [0 1 0 1]")
	assert.Contains(t, out, "z = [1 3 1 5]")
	assert.Contains(t, out, "loss after 30 steps")
}

func TestDemoCommand_Save(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.cbor")
	_, err := execute(t, "demo", "--backend", "cpu", "--steps", "5", "--save", path)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	snap, err := snapshot.Decode(f)
	require.NoError(t, err)

	assert.Equal(t, "CPU", snap.Backend)
	require.Len(t, snap.Entries, 2)
	w, ok := snap.Lookup("w")
	require.True(t, ok)
	assert.Equal(t, []int{2, 1}, []int(w.Shape))
	assert.Len(t, w.Grad, 2)
}

func TestRootCommand_InvalidBackend(t *testing.T) {
	_, err := execute(t, "demo", "--backend", "tpu")
	assert.Error(t, err)
}

func TestRootCommand_InvalidLogLevel(t *testing.T) {
	_, err := execute(t, "version", "--log-level", "loud")
	assert.Error(t, err)
}

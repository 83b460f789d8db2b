package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/sambigeara/enginectl/pkg/config"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enginectl.toml")

	out, err := run(t, "config", "init", "--config", path)
	require.NoError(t, err)
	require.Contains(t, out, path)

	_, err = run(t, "config", "init", "--config", path)
	require.ErrorContains(t, err, "already exists")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)

	out, err = run(t, "config", "show", "--config", path, "--engine", "osc.tcp://10.1.1.1:22752/Carla")
	require.NoError(t, err)
	require.Contains(t, out, "osc.tcp://10.1.1.1:22752/Carla")
	require.Contains(t, out, config.DefaultLossyURL)
}

func TestCallUnknownMethod(t *testing.T) {
	_, err := run(t, "call", "format_disk", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	require.ErrorContains(t, err, "unknown method")
}

package oracle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ordo/internal/bytesize"
	"github.com/marmos91/ordo/pkg/config"
	instanceerrors "github.com/marmos91/ordo/pkg/instance/errors"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x: 1\n"), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	primary := filepath.Join(dir, "ordo.yaml")
	writeFile(t, primary)

	cfg := config.GetDefaultConfig()
	cfg.Application.Name = "app"
	cfg.Oracle.Instances = 3
	cfg.Oracle.MaxMemory = 1536 * bytesize.MiB
	cfg.Oracle.ConfDir = dir
	cfg.Oracle.ConfigFile = primary
	return cfg
}

func TestBuild(t *testing.T) {
	cfg := testConfig(t)
	dir := cfg.Oracle.ConfDir
	writeFile(t, filepath.Join(dir, "log4j.properties"))
	writeFile(t, filepath.Join(dir, "b.xml"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	writeFile(t, filepath.Join(dir, "sub", "nested.yaml"))
	require.NoError(t, os.Symlink(filepath.Join(dir, "sub"), filepath.Join(dir, "linkdir")))

	spec, err := NewPlanner().Build(cfg)
	require.NoError(t, err)

	assert.Equal(t, "app", spec.Application)
	assert.Equal(t, RunnableName, spec.Runnable)
	assert.Equal(t, OrderAny, spec.Order)
	assert.Equal(t, Resources{VirtualCores: 1, MemoryMB: 1536, Instances: 3}, spec.Resources)
	assert.Equal(t, []LocalFile{
		{Destination: "./conf/ordo.yaml", Source: cfg.Oracle.ConfigFile},
		{Destination: "./conf/b.xml", Source: filepath.Join(dir, "b.xml")},
		{Destination: "./conf/log4j.properties", Source: filepath.Join(dir, "log4j.properties")},
	}, spec.Files)
}

func TestBuildMemoryFloor(t *testing.T) {
	cfg := testConfig(t)
	cfg.Oracle.MaxMemory = 2*bytesize.MiB + 512*bytesize.KiB

	spec, err := NewPlanner().Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(2), spec.Resources.MemoryMB)
}

func TestBuildPrimaryOutsideConfDir(t *testing.T) {
	cfg := testConfig(t)
	other := t.TempDir()
	writeFile(t, filepath.Join(other, "extra.conf"))
	cfg.Oracle.ConfDir = other

	spec, err := NewPlanner().Build(cfg)
	require.NoError(t, err)
	require.Len(t, spec.Files, 2)
	assert.Equal(t, "./conf/ordo.yaml", spec.Files[0].Destination)
	assert.Equal(t, "./conf/extra.conf", spec.Files[1].Destination)
}

func TestBuildWithoutConfDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Oracle.ConfDir = ""

	spec, err := NewPlanner().Build(cfg)
	require.NoError(t, err)
	require.Len(t, spec.Files, 1)
}

func TestBuildRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, cfg *config.Config)
	}{
		{"no instances", func(_ *testing.T, cfg *config.Config) { cfg.Oracle.Instances = 0 }},
		{"memory below one megabyte", func(_ *testing.T, cfg *config.Config) { cfg.Oracle.MaxMemory = 512 * bytesize.KiB }},
		{"no config file", func(_ *testing.T, cfg *config.Config) { cfg.Oracle.ConfigFile = "" }},
		{"missing config file", func(_ *testing.T, cfg *config.Config) {
			cfg.Oracle.ConfigFile = filepath.Join(cfg.Oracle.ConfDir, "missing.yaml")
		}},
		{"config file is a directory", func(_ *testing.T, cfg *config.Config) { cfg.Oracle.ConfigFile = cfg.Oracle.ConfDir }},
		{"missing conf dir", func(_ *testing.T, cfg *config.Config) {
			cfg.Oracle.ConfDir = filepath.Join(cfg.Oracle.ConfDir, "nope")
		}},
		{"duplicate destination", func(t *testing.T, cfg *config.Config) {
			other := t.TempDir()
			writeFile(t, filepath.Join(other, "ordo.yaml"))
			cfg.Oracle.ConfDir = other
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(t, cfg)

			_, err := NewPlanner().Build(cfg)
			require.Error(t, err)
			assert.True(t, instanceerrors.IsInvalidConfiguration(err), "got %v", err)
		})
	}
}

type fakeController struct {
	stopped bool
}

func (c *fakeController) Wait(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (c *fakeController) Stop(context.Context) error {
	c.stopped = true
	return nil
}

type fakeLauncher struct {
	launched []*LaunchSpec
}

func (l *fakeLauncher) Launch(_ context.Context, spec *LaunchSpec) (Controller, error) {
	l.launched = append(l.launched, spec)
	return &fakeController{}, nil
}

func TestLauncherReceivesSpec(t *testing.T) {
	cfg := testConfig(t)
	spec, err := NewPlanner().Build(cfg)
	require.NoError(t, err)

	var launcher Launcher = &fakeLauncher{}
	ctrl, err := launcher.Launch(context.Background(), spec)
	require.NoError(t, err)
	require.NoError(t, ctrl.Stop(context.Background()))

	fl := launcher.(*fakeLauncher)
	require.Len(t, fl.launched, 1)
	assert.Equal(t, 3, fl.launched[0].Resources.Instances)
	assert.True(t, ctrl.(*fakeController).stopped)
}

func TestWatchRebuildsOnChange(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	specs := make(chan *LaunchSpec, 16)
	done := make(chan error, 1)
	go func() {
		done <- NewPlanner().Watch(ctx, cfg, 20*time.Millisecond, func(spec *LaunchSpec, err error) {
			if err == nil {
				specs <- spec
			}
		})
	}()

	select {
	case spec := <-specs:
		require.Len(t, spec.Files, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial spec")
	}

	writeFile(t, filepath.Join(cfg.Oracle.ConfDir, "extra.xml"))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case spec := <-specs:
			if len(spec.Files) == 2 {
				assert.Equal(t, "./conf/extra.xml", spec.Files[1].Destination)
				cancel()
				require.NoError(t, <-done)
				return
			}
		case <-deadline:
			t.Fatal("spec was not rebuilt after the change")
		}
	}
}

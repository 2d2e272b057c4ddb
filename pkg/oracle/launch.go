// Package oracle plans the deployment of the timestamp oracle and provides
// the leader election its replicas run at startup.
package oracle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/pkg/config"
	instanceerrors "github.com/marmos91/ordo/pkg/instance/errors"
)

const (
	// RunnableName names the oracle process within the launched application.
	RunnableName = "oracle"

	// OrderAny lets the launcher start replicas in any order.
	OrderAny = "any"

	// VirtualCores is the CPU envelope of one replica.
	VirtualCores = 1

	confPrefix = "./conf"
)

// Resources is the per-replica resource envelope.
type Resources struct {
	VirtualCores int   `json:"virtual_cores" yaml:"virtual_cores"`
	MemoryMB     int64 `json:"memory_mb" yaml:"memory_mb"`
	Instances    int   `json:"instances" yaml:"instances"`
}

// LocalFile is a file shipped next to every replica.
type LocalFile struct {
	Destination string `json:"destination" yaml:"destination"`
	Source      string `json:"source" yaml:"source"`
}

// LaunchSpec describes the oracle application for a cluster launcher. It is
// derived from configuration on every call and never stored.
type LaunchSpec struct {
	Application string      `json:"application" yaml:"application"`
	Runnable    string      `json:"runnable" yaml:"runnable"`
	Resources   Resources   `json:"resources" yaml:"resources"`
	Files       []LocalFile `json:"files" yaml:"files"`
	Order       string      `json:"order" yaml:"order"`
}

// Controller is a handle on a launched application.
type Controller interface {
	// Wait blocks until the application terminates.
	Wait(ctx context.Context) error
	// Stop terminates the application.
	Stop(ctx context.Context) error
}

// Launcher starts a LaunchSpec on a cluster. Ordo renders specs for
// external launchers and ships no implementation of its own.
type Launcher interface {
	Launch(ctx context.Context, spec *LaunchSpec) (Controller, error)
}

// Planner builds LaunchSpecs from configuration.
type Planner struct{}

// NewPlanner returns a Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Build derives the launch spec of cfg. The primary configuration file is
// shipped first as ./conf/<name>, followed by every other regular file of
// the configuration directory sorted by destination.
func (p *Planner) Build(cfg *config.Config) (*LaunchSpec, error) {
	oc := cfg.Oracle
	if oc.Instances < 1 {
		return nil, instanceerrors.NewInvalidConfigurationError("oracle.instances", "at least one oracle instance is required")
	}
	memoryMB := oc.MaxMemory.Megabytes()
	if memoryMB < 1 {
		return nil, instanceerrors.NewInvalidConfigurationError("oracle.max_memory", fmt.Sprintf("%s is below one megabyte", oc.MaxMemory))
	}

	files, err := p.files(oc)
	if err != nil {
		return nil, err
	}

	spec := &LaunchSpec{
		Application: cfg.Application.Name,
		Runnable:    RunnableName,
		Resources: Resources{
			VirtualCores: VirtualCores,
			MemoryMB:     memoryMB,
			Instances:    oc.Instances,
		},
		Files: files,
		Order: OrderAny,
	}

	logger.Info("oracle launch planned",
		logger.KeyApplication, spec.Application,
		logger.KeyReplicas, oc.Instances,
		logger.KeyMemoryMB, memoryMB,
		logger.KeyFileCount, len(files))
	return spec, nil
}

func (p *Planner) files(oc config.OracleConfig) ([]LocalFile, error) {
	if oc.ConfigFile == "" {
		return nil, instanceerrors.NewInvalidConfigurationError("oracle.config_file", "no primary configuration file to ship")
	}
	primary, err := os.Stat(oc.ConfigFile)
	if err != nil {
		return nil, instanceerrors.NewInvalidConfigurationError("oracle.config_file", err.Error())
	}
	if !primary.Mode().IsRegular() {
		return nil, instanceerrors.NewInvalidConfigurationError("oracle.config_file", oc.ConfigFile+" is not a regular file")
	}

	files := []LocalFile{{Destination: destination(filepath.Base(oc.ConfigFile)), Source: oc.ConfigFile}}
	if oc.ConfDir == "" {
		return files, nil
	}

	entries, err := os.ReadDir(oc.ConfDir)
	if err != nil {
		return nil, instanceerrors.NewInvalidConfigurationError("oracle.conf_dir", err.Error())
	}

	var extra []LocalFile
	for _, e := range entries {
		src := filepath.Join(oc.ConfDir, e.Name())
		// Stat follows symlinks so links to directories are skipped too.
		info, err := os.Stat(src)
		if err != nil || !info.Mode().IsRegular() {
			logger.Debug("skipping configuration entry", logger.KeyPath, src)
			continue
		}
		if os.SameFile(info, primary) {
			continue
		}
		extra = append(extra, LocalFile{Destination: destination(e.Name()), Source: src})
	}
	slices.SortFunc(extra, func(a, b LocalFile) int { return strings.Compare(a.Destination, b.Destination) })

	files = append(files, extra...)
	seen := make(map[string]string, len(files))
	for _, f := range files {
		if other, ok := seen[f.Destination]; ok {
			return nil, instanceerrors.NewInvalidConfigurationError("oracle.conf_dir",
				fmt.Sprintf("%s and %s both ship as %s", other, f.Source, f.Destination))
		}
		seen[f.Destination] = f.Source
	}
	return files, nil
}

// destination keeps the leading "./" that path.Join would strip.
func destination(name string) string {
	return confPrefix + "/" + name
}

package oracle

import (
	"testing"

	"github.com/marmos91/ordo/pkg/oracle"
)

func TestSpecTable(t *testing.T) {
	spec := &oracle.LaunchSpec{
		Application: "app",
		Runnable:    oracle.RunnableName,
		Resources:   oracle.Resources{VirtualCores: 1, MemoryMB: 512, Instances: 2},
		Files: []oracle.LocalFile{
			{Destination: "./conf/ordo.yaml", Source: "/etc/ordo/ordo.yaml"},
		},
		Order: oracle.OrderAny,
	}

	rows := specTable(spec).Rows()
	want := map[string]string{
		"Application":      "app",
		"Instances":        "2",
		"Memory (MiB)":     "512",
		"./conf/ordo.yaml": "/etc/ordo/ordo.yaml",
	}
	got := make(map[string]string, len(rows))
	for _, r := range rows {
		got[r[0]] = r[1]
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

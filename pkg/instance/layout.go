package instance

import (
	"time"

	"github.com/marmos91/ordo/pkg/instance/chroot"
)

// Names of the nodes kept below an instance root.
const (
	MarkerNode = "initialized"
	ConfigNode = "config"
	LeaderNode = "leader"
)

// The notification column family is written on every transaction and is
// kept in its own locality group.
const (
	NotifyLocalityGroup = "notify"
	NotifyColumnFamily  = "ntfy"
)

// MarkerPath returns the path of the initialized marker.
func MarkerPath(root string) string {
	return chroot.Join(root, MarkerNode)
}

// ConfigPath returns the path of the shared configuration node.
func ConfigPath(root string) string {
	return chroot.Join(root, ConfigNode)
}

// LeaderPath returns the path of the oracle leader registration.
func LeaderPath(root string) string {
	return chroot.Join(root, LeaderNode)
}

// NotifyLocalityGroups is the locality group layout applied to every new
// backing table.
func NotifyLocalityGroups() map[string][]string {
	return map[string][]string{NotifyLocalityGroup: {NotifyColumnFamily}}
}

// Marker is the body of the initialized marker.
type Marker struct {
	Application string    `json:"application"`
	Table       string    `json:"table"`
	CreatedAt   time.Time `json:"created_at"`
	Version     string    `json:"version,omitempty"`
}

// LeaderInfo is the body of the leader registration.
type LeaderInfo struct {
	ID        string    `json:"id"`
	Host      string    `json:"host,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

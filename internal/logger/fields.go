package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Instance
	// ========================================================================
	KeyApplication = "application" // Application name
	KeyRoot        = "root"        // Coordination root path (chroot)
	KeyHosts       = "hosts"       // Coordination service host list
	KeyTable       = "table"       // Backing table name
	KeyState       = "state"       // Lifecycle state: uninitialized, initialized
	KeyOperation   = "operation"   // Admin operation: initialize, remove, status

	// ========================================================================
	// Backends
	// ========================================================================
	KeyBackend = "backend" // Backend type: etcd, zookeeper, badger, sqlite, ...
	KeyNode    = "node"    // Coordination node path
	KeySession = "session" // Coordination session identifier
	KeyGroup   = "group"   // Locality group name

	// ========================================================================
	// Oracle
	// ========================================================================
	KeyLeader    = "leader"    // Leader registration identity
	KeyReplicas  = "replicas"  // Oracle replica count
	KeyMemoryMB  = "memory_mb" // Per-replica memory in MB
	KeyFileCount = "files"     // Number of shipped files

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Error code name
	KeyPath       = "path"        // Local file path
	KeyAddress    = "address"     // Listen address
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Root returns a slog.Attr for the coordination root path
func Root(p string) slog.Attr {
	return slog.String(KeyRoot, p)
}

// Hosts returns a slog.Attr for the coordination host list
func Hosts(hosts []string) slog.Attr {
	return slog.Any(KeyHosts, hosts)
}

// Table returns a slog.Attr for the backing table name
func Table(name string) slog.Attr {
	return slog.String(KeyTable, name)
}

// State returns a slog.Attr for the lifecycle state
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// Operation returns a slog.Attr for the admin operation
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Backend returns a slog.Attr for a backend type
func Backend(name string) slog.Attr {
	return slog.String(KeyBackend, name)
}

// Node returns a slog.Attr for a coordination node path
func Node(p string) slog.Attr {
	return slog.String(KeyNode, p)
}

// Session returns a slog.Attr for a coordination session id
func Session(id string) slog.Attr {
	return slog.String(KeySession, id)
}

// Leader returns a slog.Attr for the leader identity
func Leader(id string) slog.Attr {
	return slog.String(KeyLeader, id)
}

// DurationMs returns a slog.Attr for a duration in milliseconds
func DurationMs(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMs, float64(d.Microseconds())/1000.0)
}

// Err returns a slog.Attr for an error. A nil error yields an empty attr
// that handlers skip.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Package coord defines the hierarchical coordination client used to keep
// cluster-wide instance state. Backends live in sub-packages (etcd,
// zookeeper, memory) and share the conformance suite in coordtest.
//
// Paths are absolute, slash-separated and never end in a slash (except "/"
// itself). Every create is atomic create-if-absent. Ephemeral nodes are bound
// to the creating client's session and disappear when that session ends.
package coord

import (
	"context"
	"errors"
	"path"
	"strings"
)

var (
	// ErrNodeExists is returned by Create when the path is already taken.
	ErrNodeExists = errors.New("coord: node already exists")

	// ErrNoNode is returned when a path (or the parent of a created path)
	// does not exist.
	ErrNoNode = errors.New("coord: node does not exist")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("coord: client closed")
)

// SessionID identifies the session owning an ephemeral node.
type SessionID string

// Node is a snapshot of a coordination node.
type Node struct {
	Path      string
	Data      []byte
	Ephemeral bool
	Owner     SessionID // empty for persistent nodes
	Version   int64
}

// CreateOptions holds the resolved options of a Create call.
type CreateOptions struct {
	Parents   bool
	Ephemeral bool
}

// CreateOption configures Create.
type CreateOption func(*CreateOptions)

// WithParents creates missing ancestors as empty persistent nodes.
func WithParents() CreateOption {
	return func(o *CreateOptions) { o.Parents = true }
}

// Ephemeral binds the node to the client's session.
func Ephemeral() CreateOption {
	return func(o *CreateOptions) { o.Ephemeral = true }
}

// ApplyCreateOptions resolves opts.
func ApplyCreateOptions(opts ...CreateOption) CreateOptions {
	var o CreateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Client is a session with a coordination service.
type Client interface {
	// Create atomically creates path with data. It fails with ErrNodeExists
	// if the path exists and with ErrNoNode if the parent is missing and
	// WithParents was not given.
	Create(ctx context.Context, path string, data []byte, opts ...CreateOption) error

	// Get returns the node at path or ErrNoNode.
	Get(ctx context.Context, path string) (*Node, error)

	// Exists reports whether path exists.
	Exists(ctx context.Context, path string) (bool, error)

	// Children returns the sorted names of the direct children of path.
	Children(ctx context.Context, path string) ([]string, error)

	// Set replaces the data of an existing node.
	Set(ctx context.Context, path string, data []byte) error

	// Delete removes a single node. It fails with ErrNoNode if absent.
	Delete(ctx context.Context, path string) error

	// DeleteAll removes path and its whole subtree. Absent paths are a no-op.
	DeleteAll(ctx context.Context, path string) error

	// Alive reports whether n still exists and, for ephemeral nodes, whether
	// its owning session is live.
	Alive(ctx context.Context, n *Node) (bool, error)

	// Session returns this client's session identifier.
	Session() SessionID

	// Close ends the session, removing its ephemeral nodes.
	Close() error
}

// ValidatePath checks that p is an absolute, clean path.
func ValidatePath(p string) error {
	if p == "" || p[0] != '/' {
		return errors.New("coord: path must be absolute: " + p)
	}
	if p != "/" && (strings.HasSuffix(p, "/") || path.Clean(p) != p) {
		return errors.New("coord: path is not clean: " + p)
	}
	return nil
}

// Parent returns the parent of p ("/" for top-level nodes).
func Parent(p string) string {
	return path.Dir(p)
}

// Ancestors returns the ancestors of p from the top down, excluding "/"
// and p itself.
func Ancestors(p string) []string {
	var out []string
	for dir := Parent(p); dir != "/" && dir != "."; dir = Parent(dir) {
		out = append([]string{dir}, out...)
	}
	return out
}

// IsDescendant reports whether p is root or lies below it.
func IsDescendant(p, root string) bool {
	if root == "/" {
		return true
	}
	return p == root || strings.HasPrefix(p, root+"/")
}

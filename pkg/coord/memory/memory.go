// Package memory provides an in-process coordination service. Sessions can
// be disconnected (ephemeral nodes stay but are no longer live) or expired
// (ephemeral nodes are removed), which lets tests reproduce stale leader
// registrations without a real cluster.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/marmos91/ordo/pkg/coord"
)

// ErrSessionExpired is returned by clients whose session was expired.
var ErrSessionExpired = errors.New("memory: session expired")

// SessionState is the state of a client session.
type SessionState int

const (
	SessionActive SessionState = iota
	SessionDisconnected
	SessionExpired
)

func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionDisconnected:
		return "disconnected"
	case SessionExpired:
		return "expired"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

type node struct {
	data      []byte
	ephemeral bool
	owner     coord.SessionID
	version   int64
}

// Server is an in-memory coordination tree shared by its clients.
type Server struct {
	mu       sync.RWMutex
	nodes    map[string]*node
	sessions map[coord.SessionID]SessionState
	nextID   uint64
	version  int64
}

// NewServer creates an empty tree holding only "/".
func NewServer() *Server {
	return &Server{
		nodes:    map[string]*node{"/": {}},
		sessions: make(map[coord.SessionID]SessionState),
	}
}

var (
	sharedMu sync.Mutex
	shared   = make(map[string]*Server)
)

// Shared returns the process-wide server registered under name, creating
// it on first use. Clients built from the same connection hosts therefore
// see the same tree.
func Shared(name string) *Server {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	s, ok := shared[name]
	if !ok {
		s = NewServer()
		shared[name] = s
	}
	return s
}

// Connect opens a new session.
func (s *Server) Connect() *Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := coord.SessionID(fmt.Sprintf("mem-%d", s.nextID))
	s.sessions[id] = SessionActive
	return &Client{server: s, id: id}
}

// SessionState returns the state of session id.
func (s *Server) SessionState(id coord.SessionID) SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	if !ok {
		return SessionExpired
	}
	return st
}

// Disconnect marks a session as disconnected. Its ephemeral nodes remain in
// the tree but are reported as not alive.
func (s *Server) Disconnect(id coord.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[id]; ok && st == SessionActive {
		s.sessions[id] = SessionDisconnected
	}
}

// Reconnect restores a disconnected session.
func (s *Server) Reconnect(id coord.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[id]; ok && st == SessionDisconnected {
		s.sessions[id] = SessionActive
	}
}

// Expire ends a session and removes its ephemeral nodes.
func (s *Server) Expire(id coord.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(id)
}

func (s *Server) expireLocked(id coord.SessionID) {
	s.sessions[id] = SessionExpired
	for p, n := range s.nodes {
		if n.ephemeral && n.owner == id {
			delete(s.nodes, p)
		}
	}
}

// Client is a session on a Server.
type Client struct {
	server *Server
	id     coord.SessionID
}

var _ coord.Client = (*Client)(nil)

func (c *Client) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.server.sessions[c.id] == SessionExpired {
		return ErrSessionExpired
	}
	return nil
}

// Create implements coord.Client.
func (c *Client) Create(ctx context.Context, p string, data []byte, opts ...coord.CreateOption) error {
	if err := coord.ValidatePath(p); err != nil {
		return err
	}
	o := coord.ApplyCreateOptions(opts...)

	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := c.check(ctx); err != nil {
		return err
	}
	if _, ok := s.nodes[p]; ok {
		return coord.ErrNodeExists
	}

	parent := coord.Parent(p)
	if pn, ok := s.nodes[parent]; ok {
		if pn.ephemeral {
			return fmt.Errorf("memory: parent %s is ephemeral", parent)
		}
	} else if !o.Parents {
		return coord.ErrNoNode
	}

	if o.Parents {
		for _, a := range coord.Ancestors(p) {
			if _, ok := s.nodes[a]; !ok {
				s.version++
				s.nodes[a] = &node{version: s.version}
			}
		}
	}

	s.version++
	n := &node{data: clone(data), version: s.version}
	if o.Ephemeral {
		n.ephemeral = true
		n.owner = c.id
	}
	s.nodes[p] = n
	return nil
}

// Get implements coord.Client.
func (c *Client) Get(ctx context.Context, p string) (*coord.Node, error) {
	s := c.server
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := c.check(ctx); err != nil {
		return nil, err
	}
	n, ok := s.nodes[p]
	if !ok {
		return nil, coord.ErrNoNode
	}
	return &coord.Node{
		Path:      p,
		Data:      clone(n.data),
		Ephemeral: n.ephemeral,
		Owner:     n.owner,
		Version:   n.version,
	}, nil
}

// Exists implements coord.Client.
func (c *Client) Exists(ctx context.Context, p string) (bool, error) {
	s := c.server
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := c.check(ctx); err != nil {
		return false, err
	}
	_, ok := s.nodes[p]
	return ok, nil
}

// Children implements coord.Client.
func (c *Client) Children(ctx context.Context, p string) ([]string, error) {
	s := c.server
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := c.check(ctx); err != nil {
		return nil, err
	}
	if _, ok := s.nodes[p]; !ok {
		return nil, coord.ErrNoNode
	}

	prefix := p + "/"
	if p == "/" {
		prefix = "/"
	}
	var names []string
	for k := range s.nodes {
		if k == p || !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := k[len(prefix):]
		if !strings.Contains(rest, "/") {
			names = append(names, rest)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Set implements coord.Client.
func (c *Client) Set(ctx context.Context, p string, data []byte) error {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := c.check(ctx); err != nil {
		return err
	}
	n, ok := s.nodes[p]
	if !ok {
		return coord.ErrNoNode
	}
	s.version++
	n.data = clone(data)
	n.version = s.version
	return nil
}

// Delete implements coord.Client.
func (c *Client) Delete(ctx context.Context, p string) error {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := c.check(ctx); err != nil {
		return err
	}
	if p == "/" {
		return errors.New("memory: cannot delete /")
	}
	if _, ok := s.nodes[p]; !ok {
		return coord.ErrNoNode
	}
	for k := range s.nodes {
		if k != p && coord.IsDescendant(k, p) {
			return fmt.Errorf("memory: %s has children", p)
		}
	}
	delete(s.nodes, p)
	return nil
}

// DeleteAll implements coord.Client.
func (c *Client) DeleteAll(ctx context.Context, p string) error {
	if err := coord.ValidatePath(p); err != nil {
		return err
	}

	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := c.check(ctx); err != nil {
		return err
	}
	for k := range s.nodes {
		if k != "/" && coord.IsDescendant(k, p) {
			delete(s.nodes, k)
		}
	}
	return nil
}

// Alive implements coord.Client.
func (c *Client) Alive(ctx context.Context, n *coord.Node) (bool, error) {
	s := c.server
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := c.check(ctx); err != nil {
		return false, err
	}
	cur, ok := s.nodes[n.Path]
	if !ok {
		return false, nil
	}
	if !cur.ephemeral {
		return true, nil
	}
	if cur.owner != n.Owner {
		return false, nil
	}
	return s.sessions[cur.owner] == SessionActive, nil
}

// Session implements coord.Client.
func (c *Client) Session() coord.SessionID {
	return c.id
}

// Close implements coord.Client. Closing expires the session.
func (c *Client) Close() error {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[c.id] != SessionExpired {
		s.expireLocked(c.id)
	}
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

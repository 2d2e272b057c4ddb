// Package zookeeper implements coord.Client on top of Apache ZooKeeper.
package zookeeper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-zookeeper/zk"

	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/pkg/coord"
)

// DefaultPort is the ZooKeeper client port used for hosts without one.
const DefaultPort = 2181

// Config holds ZooKeeper client configuration.
type Config struct {
	Servers        []string
	SessionTimeout time.Duration
	DialTimeout    time.Duration
}

// Client is a coord.Client backed by a ZooKeeper session.
type Client struct {
	conn      *zk.Conn
	acl       []zk.ACL
	closeOnce sync.Once
}

var _ coord.Client = (*Client)(nil)

type zkLogger struct{}

func (zkLogger) Printf(format string, args ...any) {
	logger.Debugf("zookeeper: "+format, args...)
}

// New connects and waits until a session is established.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("zookeeper: no servers")
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = 10 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	conn, events, err := zk.Connect(cfg.Servers, cfg.SessionTimeout, zk.WithLogger(zkLogger{}))
	if err != nil {
		return nil, fmt.Errorf("zookeeper: connect: %w", err)
	}

	timer := time.NewTimer(cfg.DialTimeout)
	defer timer.Stop()

	for {
		select {
		case ev := <-events:
			if ev.State == zk.StateHasSession {
				go drain(events)
				c := &Client{conn: conn, acl: zk.WorldACL(zk.PermAll)}
				logger.Debug("zookeeper session opened", logger.Session(string(c.Session())), "servers", cfg.Servers)
				return c, nil
			}
			if ev.State == zk.StateAuthFailed {
				conn.Close()
				return nil, errors.New("zookeeper: authentication failed")
			}
		case <-timer.C:
			conn.Close()
			return nil, fmt.Errorf("zookeeper: no session after %s", cfg.DialTimeout)
		case <-ctx.Done():
			conn.Close()
			return nil, ctx.Err()
		}
	}
}

func drain(events <-chan zk.Event) {
	for ev := range events {
		if ev.State == zk.StateExpired {
			logger.Warn("zookeeper session expired")
		}
	}
}

// Create implements coord.Client.
func (c *Client) Create(ctx context.Context, p string, data []byte, opts ...coord.CreateOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := coord.ValidatePath(p); err != nil {
		return err
	}
	o := coord.ApplyCreateOptions(opts...)

	if o.Parents {
		for _, a := range coord.Ancestors(p) {
			if _, err := c.conn.Create(a, nil, 0, c.acl); err != nil && !errors.Is(err, zk.ErrNodeExists) {
				return fmt.Errorf("zookeeper: create %s: %w", a, err)
			}
		}
	}

	var flags int32
	if o.Ephemeral {
		flags = zk.FlagEphemeral
	}
	_, err := c.conn.Create(p, data, flags, c.acl)
	return translate("create", p, err)
}

// Get implements coord.Client.
func (c *Client) Get(ctx context.Context, p string) (*coord.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, stat, err := c.conn.Get(p)
	if err != nil {
		return nil, translate("get", p, err)
	}
	n := &coord.Node{
		Path:    p,
		Data:    data,
		Version: stat.Mzxid,
	}
	if len(data) == 0 {
		n.Data = nil
	}
	if stat.EphemeralOwner != 0 {
		n.Ephemeral = true
		n.Owner = sessionID(stat.EphemeralOwner)
	}
	return n, nil
}

// Exists implements coord.Client.
func (c *Client) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, _, err := c.conn.Exists(p)
	if err != nil {
		return false, translate("exists", p, err)
	}
	return ok, nil
}

// Children implements coord.Client.
func (c *Client) Children(ctx context.Context, p string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, _, err := c.conn.Children(p)
	if err != nil {
		return nil, translate("children", p, err)
	}
	if p == "/" {
		names = without(names, "zookeeper")
	}
	sort.Strings(names)
	return names, nil
}

// Set implements coord.Client.
func (c *Client) Set(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.conn.Set(p, data, -1)
	return translate("set", p, err)
}

// Delete implements coord.Client.
func (c *Client) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return translate("delete", p, c.conn.Delete(p, -1))
}

// DeleteAll implements coord.Client. ZooKeeper has no recursive delete, so
// the subtree is removed depth-first; nodes that vanish concurrently are
// ignored.
func (c *Client) DeleteAll(ctx context.Context, p string) error {
	if err := coord.ValidatePath(p); err != nil {
		return err
	}
	return c.deleteTree(ctx, p)
}

func (c *Client) deleteTree(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	names, _, err := c.conn.Children(p)
	if errors.Is(err, zk.ErrNoNode) {
		return nil
	}
	if err != nil {
		return translate("delete", p, err)
	}

	for _, name := range names {
		if p == "/" && name == "zookeeper" {
			continue
		}
		child := strings.TrimSuffix(p, "/") + "/" + name
		if err := c.deleteTree(ctx, child); err != nil {
			return err
		}
	}

	if p == "/" {
		return nil
	}
	if err := c.conn.Delete(p, -1); err != nil && !errors.Is(err, zk.ErrNoNode) {
		return translate("delete", p, err)
	}
	return nil
}

// Alive implements coord.Client. ZooKeeper removes ephemeral nodes when
// their session expires, so a node still owned by the same session is live.
func (c *Client) Alive(ctx context.Context, n *coord.Node) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, stat, err := c.conn.Exists(n.Path)
	if err != nil {
		return false, translate("exists", n.Path, err)
	}
	if !ok {
		return false, nil
	}
	if stat.EphemeralOwner == 0 {
		return true, nil
	}
	return sessionID(stat.EphemeralOwner) == n.Owner, nil
}

// Session implements coord.Client.
func (c *Client) Session() coord.SessionID {
	return sessionID(c.conn.SessionID())
}

// Close implements coord.Client.
func (c *Client) Close() error {
	c.closeOnce.Do(c.conn.Close)
	return nil
}

func translate(op, p string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, zk.ErrNodeExists):
		return coord.ErrNodeExists
	case errors.Is(err, zk.ErrNoNode):
		return coord.ErrNoNode
	case errors.Is(err, zk.ErrClosing), errors.Is(err, zk.ErrConnectionClosed):
		return fmt.Errorf("zookeeper: %s %s: %w: %v", op, p, coord.ErrClosed, err)
	default:
		return fmt.Errorf("zookeeper: %s %s: %w", op, p, err)
	}
}

func sessionID(id int64) coord.SessionID {
	return coord.SessionID(fmt.Sprintf("%x", id))
}

func without(names []string, drop string) []string {
	out := names[:0]
	for _, n := range names {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}

// Package etcd implements coord.Client on top of etcd v3.
//
// etcd has a flat keyspace, so the tree is represented by one key per node
// (the node path itself, including empty keys for intermediate nodes).
// Each client grants a lease that serves as its session; ephemeral nodes
// are attached to that lease and vanish when it is revoked or expires.
package etcd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/pkg/coord"
)

// DefaultPort is the etcd client port used for hosts without one.
const DefaultPort = 2379

// Config holds etcd client configuration.
type Config struct {
	Endpoints   []string
	DialTimeout time.Duration
	// SessionTTL is the lease TTL backing ephemeral nodes. It is rounded
	// up to whole seconds.
	SessionTTL time.Duration
	Username   string
	Password   string
}

// Client is a coord.Client backed by an etcd lease.
type Client struct {
	cli    *clientv3.Client
	lease  clientv3.LeaseID
	cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

var _ coord.Client = (*Client)(nil)

// New connects to etcd and opens a session lease.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, errors.New("etcd: no endpoints")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	ttl := int64((cfg.SessionTTL + time.Second - 1) / time.Second)
	if ttl < 1 {
		ttl = 10
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
		Context:     context.WithoutCancel(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("etcd: connect: %w", err)
	}

	grantCtx, cancelGrant := context.WithTimeout(ctx, cfg.DialTimeout)
	grant, err := cli.Grant(grantCtx, ttl)
	cancelGrant()
	if err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("etcd: grant session lease: %w", err)
	}

	kaCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ka, err := cli.KeepAlive(kaCtx, grant.ID)
	if err != nil {
		cancel()
		_ = cli.Close()
		return nil, fmt.Errorf("etcd: keep session lease alive: %w", err)
	}

	c := &Client{cli: cli, lease: grant.ID, cancel: cancel}
	go c.drainKeepAlive(kaCtx, ka)

	logger.Debug("etcd session opened", logger.Session(string(c.Session())), "endpoints", cfg.Endpoints)
	return c, nil
}

func (c *Client) drainKeepAlive(ctx context.Context, ka <-chan *clientv3.LeaseKeepAliveResponse) {
	for range ka {
	}
	if ctx.Err() == nil {
		logger.Warn("etcd session lease lost", logger.Session(string(c.Session())))
	}
}

// Create implements coord.Client.
func (c *Client) Create(ctx context.Context, p string, data []byte, opts ...coord.CreateOption) error {
	if err := coord.ValidatePath(p); err != nil {
		return err
	}
	if p == "/" {
		return coord.ErrNodeExists
	}
	o := coord.ApplyCreateOptions(opts...)

	cmps := []clientv3.Cmp{absent(p)}
	var ops []clientv3.Op

	parent := coord.Parent(p)
	if o.Parents {
		for _, a := range coord.Ancestors(p) {
			ops = append(ops, clientv3.OpTxn(
				[]clientv3.Cmp{absent(a)},
				[]clientv3.Op{clientv3.OpPut(a, "")},
				nil,
			))
		}
	} else if parent != "/" {
		cmps = append(cmps, clientv3.Compare(clientv3.CreateRevision(parent), ">", 0))
	}

	put := clientv3.OpPut(p, string(data))
	if o.Ephemeral {
		put = clientv3.OpPut(p, string(data), clientv3.WithLease(c.lease))
	}
	ops = append(ops, put)

	resp, err := c.cli.Txn(ctx).If(cmps...).Then(ops...).Commit()
	if err != nil {
		return fmt.Errorf("etcd: create %s: %w", p, err)
	}
	if resp.Succeeded {
		return nil
	}

	ok, err := c.Exists(ctx, p)
	if err != nil {
		return err
	}
	if ok {
		return coord.ErrNodeExists
	}
	return coord.ErrNoNode
}

// Get implements coord.Client.
func (c *Client) Get(ctx context.Context, p string) (*coord.Node, error) {
	if p == "/" {
		return &coord.Node{Path: "/"}, nil
	}
	resp, err := c.cli.Get(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("etcd: get %s: %w", p, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, coord.ErrNoNode
	}

	kv := resp.Kvs[0]
	n := &coord.Node{
		Path:    p,
		Version: kv.ModRevision,
	}
	if len(kv.Value) > 0 {
		n.Data = kv.Value
	}
	if kv.Lease != 0 {
		n.Ephemeral = true
		n.Owner = sessionID(clientv3.LeaseID(kv.Lease))
	}
	return n, nil
}

// Exists implements coord.Client.
func (c *Client) Exists(ctx context.Context, p string) (bool, error) {
	if p == "/" {
		return true, nil
	}
	resp, err := c.cli.Get(ctx, p, clientv3.WithCountOnly())
	if err != nil {
		return false, fmt.Errorf("etcd: exists %s: %w", p, err)
	}
	return resp.Count > 0, nil
}

// Children implements coord.Client.
func (c *Client) Children(ctx context.Context, p string) ([]string, error) {
	ok, err := c.Exists(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, coord.ErrNoNode
	}

	prefix := childPrefix(p)
	resp, err := c.cli.Get(ctx, prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, fmt.Errorf("etcd: children %s: %w", p, err)
	}

	var names []string
	for _, kv := range resp.Kvs {
		rest := strings.TrimPrefix(string(kv.Key), prefix)
		if rest != "" && !strings.Contains(rest, "/") {
			names = append(names, rest)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Set implements coord.Client. The node keeps its lease, if any.
func (c *Client) Set(ctx context.Context, p string, data []byte) error {
	resp, err := c.cli.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(p), ">", 0)).
		Then(clientv3.OpPut(p, string(data), clientv3.WithIgnoreLease())).
		Commit()
	if err != nil {
		return fmt.Errorf("etcd: set %s: %w", p, err)
	}
	if !resp.Succeeded {
		return coord.ErrNoNode
	}
	return nil
}

// Delete implements coord.Client.
func (c *Client) Delete(ctx context.Context, p string) error {
	if p == "/" {
		return errors.New("etcd: cannot delete /")
	}
	children, err := c.cli.Get(ctx, childPrefix(p), clientv3.WithPrefix(), clientv3.WithCountOnly())
	if err != nil {
		return fmt.Errorf("etcd: delete %s: %w", p, err)
	}
	if children.Count > 0 {
		return fmt.Errorf("etcd: %s has children", p)
	}

	resp, err := c.cli.Delete(ctx, p)
	if err != nil {
		return fmt.Errorf("etcd: delete %s: %w", p, err)
	}
	if resp.Deleted == 0 {
		return coord.ErrNoNode
	}
	return nil
}

// DeleteAll implements coord.Client. The node and its subtree are removed
// in a single transaction.
func (c *Client) DeleteAll(ctx context.Context, p string) error {
	if err := coord.ValidatePath(p); err != nil {
		return err
	}

	ops := []clientv3.Op{clientv3.OpDelete(childPrefix(p), clientv3.WithPrefix())}
	if p != "/" {
		ops = append(ops, clientv3.OpDelete(p))
	}
	if _, err := c.cli.Txn(ctx).Then(ops...).Commit(); err != nil {
		return fmt.Errorf("etcd: delete subtree %s: %w", p, err)
	}
	return nil
}

// Alive implements coord.Client. An ephemeral node is alive while it is
// still bound to the same lease and that lease has time left.
func (c *Client) Alive(ctx context.Context, n *coord.Node) (bool, error) {
	cur, err := c.Get(ctx, n.Path)
	if errors.Is(err, coord.ErrNoNode) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !cur.Ephemeral {
		return true, nil
	}
	if cur.Owner != n.Owner {
		return false, nil
	}

	id, err := parseSessionID(cur.Owner)
	if err != nil {
		return false, err
	}
	ttl, err := c.cli.TimeToLive(ctx, id)
	if err != nil {
		return false, fmt.Errorf("etcd: lease ttl: %w", err)
	}
	return ttl.TTL > 0, nil
}

// Session implements coord.Client.
func (c *Client) Session() coord.SessionID {
	return sessionID(c.lease)
}

// Close revokes the session lease and closes the connection.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := c.cli.Revoke(ctx, c.lease); err != nil {
			logger.Warn("etcd lease revoke failed", logger.Session(string(c.Session())), logger.Err(err))
		}
		c.closeErr = c.cli.Close()
	})
	return c.closeErr
}

func absent(key string) clientv3.Cmp {
	return clientv3.Compare(clientv3.CreateRevision(key), "=", 0)
}

func childPrefix(p string) string {
	if p == "/" {
		return "/"
	}
	return p + "/"
}

func sessionID(id clientv3.LeaseID) coord.SessionID {
	return coord.SessionID(fmt.Sprintf("%x", int64(id)))
}

func parseSessionID(s coord.SessionID) (clientv3.LeaseID, error) {
	var id int64
	if _, err := fmt.Sscanf(string(s), "%x", &id); err != nil {
		return 0, fmt.Errorf("etcd: invalid session id %q: %w", s, err)
	}
	return clientv3.LeaseID(id), nil
}

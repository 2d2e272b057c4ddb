package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/pkg/coord"
	"github.com/marmos91/ordo/pkg/instance"
)

// ErrNotInitialized is returned by Campaign when the instance root does not
// exist.
var ErrNotInitialized = errors.New("oracle: instance is not initialized")

// Elector registers one oracle replica as the leader of an instance. The
// registration is an ephemeral node, so it disappears with the replica's
// coordination session.
type Elector struct {
	client coord.Client
	state  *instance.StateStore
	root   string
	info   instance.LeaderInfo
}

// NewElector returns an Elector for the instance rooted at root, with a
// fresh replica identity.
func NewElector(client coord.Client, root string) *Elector {
	host, _ := os.Hostname()
	return &Elector{
		client: client,
		state:  instance.NewStateStore(client, root),
		root:   root,
		info: instance.LeaderInfo{
			ID:   uuid.NewString(),
			Host: host,
		},
	}
}

// ID returns the replica identity.
func (e *Elector) ID() string {
	return e.info.ID
}

// Campaign tries to become the leader once. It fails with
// coord.ErrNodeExists if another replica leads and with ErrNotInitialized
// if the instance has no coordination state.
func (e *Elector) Campaign(ctx context.Context) error {
	info := e.info
	info.StartedAt = time.Now().UTC()
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode leader registration: %w", err)
	}

	err = e.client.Create(ctx, instance.LeaderPath(e.root), data, coord.Ephemeral())
	switch {
	case errors.Is(err, coord.ErrNoNode):
		return fmt.Errorf("%w: %s", ErrNotInitialized, e.root)
	case err != nil:
		return err
	}

	logger.InfoCtx(ctx, "oracle leadership acquired", logger.Leader(e.info.ID), logger.Root(e.root))
	return nil
}

// IsLeader reports whether this replica holds a live registration.
func (e *Elector) IsLeader(ctx context.Context) (bool, error) {
	n, err := e.client.Get(ctx, instance.LeaderPath(e.root))
	if errors.Is(err, coord.ErrNoNode) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if n.Owner != e.client.Session() {
		return false, nil
	}
	return e.client.Alive(ctx, n)
}

// Resign deletes the registration if this replica holds it.
func (e *Elector) Resign(ctx context.Context) error {
	leader, err := e.IsLeader(ctx)
	if err != nil || !leader {
		return err
	}
	if err := e.client.Delete(ctx, instance.LeaderPath(e.root)); err != nil && !errors.Is(err, coord.ErrNoNode) {
		return err
	}
	logger.InfoCtx(ctx, "oracle leadership released", logger.Leader(e.info.ID), logger.Root(e.root))
	return nil
}

// Leader returns the current live leader, or nil.
func (e *Elector) Leader(ctx context.Context) (*instance.LeaderInfo, error) {
	return e.state.CurrentLeader(ctx)
}

// Run campaigns every interval until it leads, then holds leadership until
// ctx is done or the registration is lost, in which case it campaigns again.
// onLead is called each time leadership is acquired. Leadership is resigned
// on return.
func (e *Elector) Run(ctx context.Context, interval time.Duration, onLead func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	leading := false
	for {
		if leading {
			ok, err := e.IsLeader(ctx)
			switch {
			case err != nil && ctx.Err() == nil:
				logger.WarnCtx(ctx, "leadership check failed", logger.Leader(e.info.ID), logger.Err(err))
			case err == nil && !ok:
				logger.WarnCtx(ctx, "oracle leadership lost", logger.Leader(e.info.ID))
				leading = false
			}
		}

		if !leading {
			err := e.Campaign(ctx)
			switch {
			case err == nil:
				leading = true
				if onLead != nil {
					onLead()
				}
			case errors.Is(err, coord.ErrNodeExists):
				logger.DebugCtx(ctx, "standing by", logger.Leader(e.info.ID))
			case ctx.Err() != nil:
			default:
				return err
			}
		}

		select {
		case <-ctx.Done():
			resignCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := e.Resign(resignCtx); err != nil {
				logger.Warn("failed to resign oracle leadership", logger.Leader(e.info.ID), logger.Err(err))
			}
			return nil
		case <-ticker.C:
		}
	}
}

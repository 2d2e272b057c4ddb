package instance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/pkg/coord"
	instanceerrors "github.com/marmos91/ordo/pkg/instance/errors"
)

// StateStore manages the coordination subtree of one instance. All paths are
// kept below Root; nothing outside it is ever read or written.
type StateStore struct {
	client coord.Client
	root   string
}

// NewStateStore returns a StateStore for the instance rooted at root.
func NewStateStore(client coord.Client, root string) *StateStore {
	return &StateStore{client: client, root: root}
}

// Root returns the instance root path.
func (s *StateStore) Root() string {
	return s.root
}

// Exists reports whether the initialized marker is present.
func (s *StateStore) Exists(ctx context.Context) (bool, error) {
	ok, err := s.client.Exists(ctx, MarkerPath(s.root))
	if err != nil {
		return false, instanceerrors.NewUnavailableError("check initialized marker", err)
	}
	return ok, nil
}

// Marker returns the decoded initialized marker, or nil if the instance is
// not initialized.
func (s *StateStore) Marker(ctx context.Context) (*Marker, error) {
	n, err := s.client.Get(ctx, MarkerPath(s.root))
	if errors.Is(err, coord.ErrNoNode) {
		return nil, nil
	}
	if err != nil {
		return nil, instanceerrors.NewUnavailableError("read initialized marker", err)
	}

	var m Marker
	if len(n.Data) > 0 {
		if err := json.Unmarshal(n.Data, &m); err != nil {
			return nil, fmt.Errorf("decode initialized marker: %w", err)
		}
	}
	return &m, nil
}

// Create writes the instance subtree: the root (with any missing
// ancestors), the shared configuration and finally the initialized marker.
// The marker is written last so a partially created subtree never reads as
// initialized. A concurrent creator that wins the marker makes this call
// fail with AlreadyInitialized.
func (s *StateStore) Create(ctx context.Context, shared []byte, marker Marker) error {
	err := s.client.Create(ctx, s.root, nil, coord.WithParents())
	if err != nil && !errors.Is(err, coord.ErrNodeExists) {
		return instanceerrors.NewUnavailableError("create instance root", err)
	}

	if err := s.writeConfig(ctx, shared); err != nil {
		return err
	}

	data, err := json.Marshal(marker)
	if err != nil {
		return fmt.Errorf("encode initialized marker: %w", err)
	}

	err = s.client.Create(ctx, MarkerPath(s.root), data)
	switch {
	case errors.Is(err, coord.ErrNodeExists):
		return instanceerrors.NewAlreadyInitializedError(s.root)
	case err != nil:
		return instanceerrors.NewUnavailableError("create initialized marker", err)
	}

	logger.DebugCtx(ctx, "coordination state created", logger.Root(s.root), logger.Node(MarkerPath(s.root)))
	return nil
}

func (s *StateStore) writeConfig(ctx context.Context, shared []byte) error {
	p := ConfigPath(s.root)
	err := s.client.Create(ctx, p, shared)
	if errors.Is(err, coord.ErrNodeExists) {
		err = s.client.Set(ctx, p, shared)
	}
	if err != nil {
		return instanceerrors.NewUnavailableError("write shared config", err)
	}
	return nil
}

// Destroy removes the whole instance subtree, including the root. It is a
// no-op when the subtree does not exist.
func (s *StateStore) Destroy(ctx context.Context) error {
	if err := s.client.DeleteAll(ctx, s.root); err != nil {
		return instanceerrors.NewUnavailableError("delete coordination state", err)
	}
	logger.DebugCtx(ctx, "coordination state deleted", logger.Root(s.root))
	return nil
}

// CurrentLeader returns the leader registration if one exists and its
// session is still live. A registration left behind by a disconnected or
// expired session yields nil.
func (s *StateStore) CurrentLeader(ctx context.Context) (*LeaderInfo, error) {
	n, err := s.client.Get(ctx, LeaderPath(s.root))
	if errors.Is(err, coord.ErrNoNode) {
		return nil, nil
	}
	if err != nil {
		return nil, instanceerrors.NewUnavailableError("read leader registration", err)
	}

	alive, err := s.client.Alive(ctx, n)
	if err != nil {
		return nil, instanceerrors.NewUnavailableError("check leader session", err)
	}
	if !alive {
		logger.DebugCtx(ctx, "ignoring stale leader registration", logger.Root(s.root), logger.Session(string(n.Owner)))
		return nil, nil
	}

	// A live session is a live leader whatever its registration body says.
	info := LeaderInfo{ID: string(n.Owner)}
	if len(n.Data) > 0 {
		if err := json.Unmarshal(n.Data, &info); err != nil {
			logger.WarnCtx(ctx, "undecodable leader registration", logger.Root(s.root), logger.Err(err))
			info = LeaderInfo{ID: string(n.Owner)}
		}
	}
	return &info, nil
}

// LeaderIsLive reports whether a leader-elected service currently holds the
// instance.
func (s *StateStore) LeaderIsLive(ctx context.Context) (bool, error) {
	info, err := s.CurrentLeader(ctx)
	if err != nil {
		return false, err
	}
	return info != nil, nil
}

// SharedConfig returns the shared configuration stored at init, or nil if
// the instance is not initialized.
func (s *StateStore) SharedConfig(ctx context.Context) ([]byte, error) {
	n, err := s.client.Get(ctx, ConfigPath(s.root))
	if errors.Is(err, coord.ErrNoNode) {
		return nil, nil
	}
	if err != nil {
		return nil, instanceerrors.NewUnavailableError("read shared config", err)
	}
	return n.Data, nil
}

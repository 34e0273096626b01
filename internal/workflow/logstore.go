package workflow

import (
	"context"

	"booktrack/internal/logging"
	"booktrack/internal/productivity"
	"booktrack/internal/projects"
)

// roleLogStore routes writer commits for one role to the remote store and
// mirrors them into the local cache so views reflect the edit before the
// next sync pass.
type roleLogStore struct {
	manager *Manager
	role    projects.Role
}

func (r *roleLogStore) UpsertLog(ctx context.Context, entry productivity.Entry) error {
	if r.manager.remote != nil {
		if err := r.manager.remote.UpsertLog(ctx, r.role, entry); err != nil {
			return err
		}
	}
	if err := r.manager.store.UpsertLog(ctx, r.role, entry); err != nil {
		// The remote write already landed; a stale cache heals on the next
		// sync pass.
		r.manager.logger.Warn("local log cache update failed", logging.Error(err))
	}
	return nil
}

func (r *roleLogStore) DeleteLog(ctx context.Context, key productivity.Key) error {
	if r.manager.remote != nil {
		if err := r.manager.remote.DeleteLog(ctx, r.role, key); err != nil {
			return err
		}
	}
	if err := r.manager.store.DeleteLog(ctx, r.role, key); err != nil {
		r.manager.logger.Warn("local log cache delete failed", logging.Error(err))
	}
	return nil
}

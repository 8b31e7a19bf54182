package out

import (
	"context"

	"everest/internal/modules/session/domain"
)

// SnapshotStore keeps the single current session. Load returns
// apperrors.ErrNoSavedSession when nothing usable is stored.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot domain.Snapshot) error
	Load(ctx context.Context) (domain.Snapshot, error)
	Clear(ctx context.Context) error
}

// HistoryLog is the append-only archive of reset sessions.
type HistoryLog interface {
	Append(ctx context.Context, record domain.ArchivedSession) error
	List(ctx context.Context) ([]domain.ArchivedSession, error)
	Get(ctx context.Context, id string) (domain.ArchivedSession, error)
}

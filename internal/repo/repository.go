package repo

import (
	"context"

	"pingmon/internal/domain"
)

// TargetStore is the target list boundary: an ordered collection of targets
// keyed by alias. The scheduler re-resolves targets through Get on every
// cycle so edits take effect on the next cycle boundary.
type TargetStore interface {
	List(ctx context.Context) ([]domain.Target, error)
	// Get returns nil (and no error) when the alias is unknown.
	Get(ctx context.Context, alias string) (*domain.Target, error)
	Upsert(ctx context.Context, t domain.Target) error
	Delete(ctx context.Context, alias string) error
	SetEnabled(ctx context.Context, alias string, enabled bool) error
}

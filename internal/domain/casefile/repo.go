package casefile

import (
	"context"

	"github.com/google/uuid"
)

type CaseRepository interface {
	Create(ctx context.Context, c *Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*Case, error)
	// GetForUpdate locks the row for the rest of the surrounding transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Case, error)
	// Update writes c and bumps its version. A non-zero c.VersionID must
	// match the stored version or ErrVersionConflict is returned.
	Update(ctx context.Context, c *Case) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Case, int, error)
}

// ProgressStore keeps the wizard position per case.
type ProgressStore interface {
	Get(ctx context.Context, caseID uuid.UUID) (*Progress, error)
	Set(ctx context.Context, caseID uuid.UUID, p Progress) error
	Delete(ctx context.Context, caseID uuid.UUID) error
}

package changerequest

import (
	"context"

	"github.com/google/uuid"

	"github.com/brightacademy/backoffice/modules/catalog/domain/record"
)

type ListFilter struct {
	Status   string
	BranchID uuid.UUID
	Limit    int
}

type Repository interface {
	// Create inserts the request as PENDING. The insert is the duplicate
	// reservation: the partial unique index on pending targets makes it fail
	// atomically under concurrent submissions of the same triple.
	Create(ctx context.Context, cr *ChangeRequest) (*ChangeRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ChangeRequest, error)
	FindPendingByTriple(ctx context.Context, branchID uuid.UUID, kind record.Kind, changeType ChangeType, targetID uuid.UUID) (*ChangeRequest, error)
	List(ctx context.Context, filter ListFilter) ([]*ChangeRequest, error)

	// Finalize moves a PENDING request to a terminal status. The second return
	// is false when the row exists but is no longer PENDING.
	Finalize(ctx context.Context, id uuid.UUID, status string, decidedBy uuid.UUID, notes *string) (*ChangeRequest, bool, error)
	// BindTarget fills target_entity_id after a creation materializes.
	BindTarget(ctx context.Context, id uuid.UUID, entityID uuid.UUID) error

	ListPendingByTarget(ctx context.Context, targetID uuid.UUID) ([]*ChangeRequest, error)
	// PendingTags returns target id -> compound tag for every pending request
	// on existing entities of the given kind, scoped to a branch when branchID
	// is set. This feeds the read-side overlay.
	PendingTags(ctx context.Context, branchID uuid.UUID, kind record.Kind) (map[uuid.UUID]string, error)
}

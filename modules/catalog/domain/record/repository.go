package record

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, rec *Record) (*Record, error)
	GetByID(ctx context.Context, kind Kind, id uuid.UUID) (*Record, error)
	// MergeData merges the top-level fields of patch into the stored document;
	// fields absent from patch are untouched.
	MergeData(ctx context.Context, kind Kind, id uuid.UUID, patch json.RawMessage) (*Record, error)
	SoftDelete(ctx context.Context, kind Kind, id uuid.UUID) error
	List(ctx context.Context, kind Kind, branchID uuid.UUID, limit int) ([]*Record, error)
}

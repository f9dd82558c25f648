package record

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind names a moderated content entity. Entities outside this set (sliders,
// statistics, categories) bypass moderation and are not stored here.
type Kind string

const (
	KindTeacher       Kind = "teacher"
	KindBranchProfile Kind = "branch_profile"
	KindPackage       Kind = "package"
	KindNews          Kind = "news"
)

func ParseKind(v string) (Kind, bool) {
	switch Kind(v) {
	case KindTeacher, KindBranchProfile, KindPackage, KindNews:
		return Kind(v), true
	}
	return "", false
}

// Record is a content entity stored as a json document. Fields are opaque to
// this core; only top-level merge semantics apply on update.
type Record struct {
	TenantID  uuid.UUID       `json:"tenant_id"`
	ID        uuid.UUID       `json:"id"`
	BranchID  uuid.UUID       `json:"branch_id"`
	Kind      Kind            `json:"kind"`
	Data      json.RawMessage `json:"data"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

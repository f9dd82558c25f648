package changerequest

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brightacademy/backoffice/modules/catalog/domain/record"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// ChangeType names the proposed mutation. Clients see it combined with the
// entity kind as a compound tag, e.g. TEACHER_UPDATE.
type ChangeType string

const (
	TypeCreate ChangeType = "ENTITY_CREATE"
	TypeUpdate ChangeType = "ENTITY_UPDATE"
	TypeDelete ChangeType = "ENTITY_DELETE"
)

func ParseChangeType(v string) (ChangeType, bool) {
	switch ChangeType(v) {
	case TypeCreate, TypeUpdate, TypeDelete:
		return ChangeType(v), true
	}
	return "", false
}

func (t ChangeType) Verb() string {
	return strings.TrimPrefix(string(t), "ENTITY_")
}

// ChangeRequest is a persisted proposal by a branch admin to mutate a content
// entity. It is never deleted; terminal rows remain as the audit trail.
type ChangeRequest struct {
	TenantID       uuid.UUID       `json:"tenant_id"`
	ID             uuid.UUID       `json:"id"`
	BranchID       uuid.UUID       `json:"branch_id"`
	RequesterID    uuid.UUID       `json:"requester_id"`
	Kind           record.Kind     `json:"kind"`
	ChangeType     ChangeType      `json:"change_type"`
	TargetEntityID *uuid.UUID      `json:"target_entity_id,omitempty"`
	Payload        json.RawMessage `json:"payload"`
	Status         string          `json:"status"`
	DecidedAt      *time.Time      `json:"decided_at,omitempty"`
	DecidedBy      *uuid.UUID      `json:"decided_by,omitempty"`
	DecisionNotes  *string         `json:"decision_notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Tag is the compound client-facing label, derived, never stored.
func (cr *ChangeRequest) Tag() string {
	return Tag(cr.Kind, cr.ChangeType)
}

func Tag(kind record.Kind, changeType ChangeType) string {
	return strings.ToUpper(string(kind)) + "_" + changeType.Verb()
}

func (cr *ChangeRequest) IsPending() bool {
	return cr.Status == StatusPending
}

package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brightacademy/backoffice/modules/catalog/domain/record"
	"github.com/brightacademy/backoffice/modules/moderation/domain/changerequest"
	"github.com/brightacademy/backoffice/pkg/composables"
)

// PendingUniqueIndex is the partial unique index enforcing at most one
// pending request per (branch, kind, change type, target). Error mapping
// keys on this name.
const PendingUniqueIndex = "change_requests_pending_target_key"

type ChangeRequestRepository struct{}

func NewChangeRequestRepository() changerequest.Repository {
	return &ChangeRequestRepository{}
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgUUIDPtr(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgUUID(*id)
}

func asUUID(v pgtype.UUID) uuid.UUID {
	if !v.Valid {
		return uuid.Nil
	}
	return uuid.UUID(v.Bytes)
}

func asUUIDPtr(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}

func asTimePtr(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

const changeRequestColumns = `tenant_id, id, branch_id, requester_id, kind, change_type,
	target_entity_id, payload, status, decided_at, decided_by, decision_notes, created_at`

func scanChangeRequest(row pgx.Row) (*changerequest.ChangeRequest, error) {
	var (
		cr         changerequest.ChangeRequest
		tenantID   pgtype.UUID
		id         pgtype.UUID
		branchID   pgtype.UUID
		requester  pgtype.UUID
		kind       string
		changeType string
		targetID   pgtype.UUID
		payload    []byte
		decidedAt  pgtype.Timestamptz
		decidedBy  pgtype.UUID
		notes      *string
	)
	err := row.Scan(&tenantID, &id, &branchID, &requester, &kind, &changeType,
		&targetID, &payload, &cr.Status, &decidedAt, &decidedBy, &notes, &cr.CreatedAt)
	if err != nil {
		return nil, err
	}
	cr.TenantID = asUUID(tenantID)
	cr.ID = asUUID(id)
	cr.BranchID = asUUID(branchID)
	cr.RequesterID = asUUID(requester)
	cr.Kind = record.Kind(kind)
	cr.ChangeType = changerequest.ChangeType(changeType)
	cr.TargetEntityID = asUUIDPtr(targetID)
	cr.Payload = json.RawMessage(payload)
	cr.DecidedAt = asTimePtr(decidedAt)
	cr.DecidedBy = asUUIDPtr(decidedBy)
	cr.DecisionNotes = notes
	return &cr, nil
}

func (r *ChangeRequestRepository) Create(ctx context.Context, cr *changerequest.ChangeRequest) (*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
INSERT INTO change_requests (tenant_id, branch_id, requester_id, kind, change_type, target_entity_id, payload)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+changeRequestColumns,
		pgUUID(tenantID), pgUUID(cr.BranchID), pgUUID(cr.RequesterID),
		string(cr.Kind), string(cr.ChangeType), pgUUIDPtr(cr.TargetEntityID), []byte(cr.Payload))
	return scanChangeRequest(row)
}

func (r *ChangeRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
SELECT `+changeRequestColumns+`
FROM change_requests
WHERE tenant_id = $1 AND id = $2`,
		pgUUID(tenantID), pgUUID(id))
	return scanChangeRequest(row)
}

func (r *ChangeRequestRepository) FindPendingByTriple(ctx context.Context, branchID uuid.UUID, kind record.Kind, changeType changerequest.ChangeType, targetID uuid.UUID) (*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
SELECT `+changeRequestColumns+`
FROM change_requests
WHERE tenant_id = $1 AND branch_id = $2 AND kind = $3 AND change_type = $4
	AND target_entity_id = $5 AND status = 'PENDING'`,
		pgUUID(tenantID), pgUUID(branchID), string(kind), string(changeType), pgUUID(targetID))
	return scanChangeRequest(row)
}

func (r *ChangeRequestRepository) List(ctx context.Context, filter changerequest.ListFilter) ([]*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var branchFilter pgtype.UUID
	if filter.BranchID != uuid.Nil {
		branchFilter = pgUUID(filter.BranchID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := tx.Query(ctx, `
SELECT `+changeRequestColumns+`
FROM change_requests
WHERE tenant_id = $1
	AND ($2 = '' OR status = $2)
	AND ($3::uuid IS NULL OR branch_id = $3)
ORDER BY created_at DESC, id DESC
LIMIT $4`,
		pgUUID(tenantID), filter.Status, branchFilter, int32(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*changerequest.ChangeRequest, 0, limit)
	for rows.Next() {
		cr, err := scanChangeRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ChangeRequestRepository) Finalize(ctx context.Context, id uuid.UUID, status string, decidedBy uuid.UUID, notes *string) (*changerequest.ChangeRequest, bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, false, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, false, err
	}

	row := tx.QueryRow(ctx, `
UPDATE change_requests
SET status = $3, decided_at = now(), decided_by = $4, decision_notes = $5
WHERE tenant_id = $1 AND id = $2 AND status = 'PENDING'
RETURNING `+changeRequestColumns,
		pgUUID(tenantID), pgUUID(id), status, pgUUID(decidedBy), notes)

	cr, err := scanChangeRequest(row)
	if err == nil {
		return cr, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Zero rows: either unknown id or already decided. Re-read to tell apart.
	existing, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, false, getErr
	}
	return existing, false, nil
}

func (r *ChangeRequestRepository) BindTarget(ctx context.Context, id uuid.UUID, entityID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
UPDATE change_requests
SET target_entity_id = $3
WHERE tenant_id = $1 AND id = $2`,
		pgUUID(tenantID), pgUUID(id), pgUUID(entityID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ChangeRequestRepository) ListPendingByTarget(ctx context.Context, targetID uuid.UUID) ([]*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT `+changeRequestColumns+`
FROM change_requests
WHERE tenant_id = $1 AND target_entity_id = $2 AND status = 'PENDING'
ORDER BY created_at ASC`,
		pgUUID(tenantID), pgUUID(targetID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*changerequest.ChangeRequest
	for rows.Next() {
		cr, err := scanChangeRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ChangeRequestRepository) PendingTags(ctx context.Context, branchID uuid.UUID, kind record.Kind) (map[uuid.UUID]string, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var branchFilter pgtype.UUID
	if branchID != uuid.Nil {
		branchFilter = pgUUID(branchID)
	}

	rows, err := tx.Query(ctx, `
SELECT target_entity_id, change_type
FROM change_requests
WHERE tenant_id = $1
	AND kind = $2
	AND status = 'PENDING'
	AND target_entity_id IS NOT NULL
	AND ($3::uuid IS NULL OR branch_id = $3)
ORDER BY created_at ASC`,
		pgUUID(tenantID), string(kind), branchFilter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]string)
	for rows.Next() {
		var (
			targetID   pgtype.UUID
			changeType string
		)
		if err := rows.Scan(&targetID, &changeType); err != nil {
			return nil, err
		}
		id := asUUID(targetID)
		// Keep the earliest pending request when several types overlap.
		if _, seen := out[id]; !seen {
			out[id] = changerequest.Tag(kind, changerequest.ChangeType(changeType))
		}
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

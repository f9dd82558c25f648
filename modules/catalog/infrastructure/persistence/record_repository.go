package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brightacademy/backoffice/modules/catalog/domain/record"
	"github.com/brightacademy/backoffice/pkg/composables"
)

type RecordRepository struct{}

func NewRecordRepository() record.Repository {
	return &RecordRepository{}
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func asUUID(v pgtype.UUID) uuid.UUID {
	if !v.Valid {
		return uuid.Nil
	}
	return uuid.UUID(v.Bytes)
}

func asTimePtr(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

const recordColumns = `tenant_id, id, branch_id, kind, data, deleted_at, created_at, updated_at`

func scanRecord(row pgx.Row) (*record.Record, error) {
	var (
		rec       record.Record
		tenantID  pgtype.UUID
		id        pgtype.UUID
		branchID  pgtype.UUID
		kind      string
		data      []byte
		deletedAt pgtype.Timestamptz
	)
	if err := row.Scan(&tenantID, &id, &branchID, &kind, &data, &deletedAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.TenantID = asUUID(tenantID)
	rec.ID = asUUID(id)
	rec.BranchID = asUUID(branchID)
	rec.Kind = record.Kind(kind)
	rec.Data = json.RawMessage(data)
	rec.DeletedAt = asTimePtr(deletedAt)
	return &rec, nil
}

func (r *RecordRepository) Insert(ctx context.Context, rec *record.Record) (*record.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
INSERT INTO catalog_records (tenant_id, branch_id, kind, data)
VALUES ($1, $2, $3, $4)
RETURNING `+recordColumns,
		pgUUID(tenantID), pgUUID(rec.BranchID), string(rec.Kind), []byte(rec.Data))
	return scanRecord(row)
}

func (r *RecordRepository) GetByID(ctx context.Context, kind record.Kind, id uuid.UUID) (*record.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
SELECT `+recordColumns+`
FROM catalog_records
WHERE tenant_id = $1 AND kind = $2 AND id = $3 AND deleted_at IS NULL`,
		pgUUID(tenantID), string(kind), pgUUID(id))
	return scanRecord(row)
}

func (r *RecordRepository) MergeData(ctx context.Context, kind record.Kind, id uuid.UUID, patch json.RawMessage) (*record.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
UPDATE catalog_records
SET data = data || $4::jsonb, updated_at = now()
WHERE tenant_id = $1 AND kind = $2 AND id = $3 AND deleted_at IS NULL
RETURNING `+recordColumns,
		pgUUID(tenantID), string(kind), pgUUID(id), []byte(patch))
	return scanRecord(row)
}

func (r *RecordRepository) SoftDelete(ctx context.Context, kind record.Kind, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
UPDATE catalog_records
SET deleted_at = now(), updated_at = now()
WHERE tenant_id = $1 AND kind = $2 AND id = $3 AND deleted_at IS NULL`,
		pgUUID(tenantID), string(kind), pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *RecordRepository) List(ctx context.Context, kind record.Kind, branchID uuid.UUID, limit int) ([]*record.Record, error) {
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
SELECT `+recordColumns+`
FROM catalog_records
WHERE tenant_id = $1
	AND kind = $2
	AND deleted_at IS NULL
	AND ($3::uuid IS NULL OR branch_id = $3)
ORDER BY created_at DESC, id DESC
LIMIT $4`,
		pgUUID(tenantID), string(kind), branchFilter, int32(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*record.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

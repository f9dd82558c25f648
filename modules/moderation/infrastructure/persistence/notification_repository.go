package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brightacademy/backoffice/modules/moderation/domain/notification"
	"github.com/brightacademy/backoffice/pkg/composables"
)

type NotificationRepository struct{}

func NewNotificationRepository() notification.Repository {
	return &NotificationRepository{}
}

const notificationColumns = `tenant_id, id, recipient_id, title, message, change_request_id, is_read, created_at`

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var (
		n         notification.Notification
		tenantID  pgtype.UUID
		id        pgtype.UUID
		recipient pgtype.UUID
		crID      pgtype.UUID
	)
	err := row.Scan(&tenantID, &id, &recipient, &n.Title, &n.Message, &crID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.TenantID = asUUID(tenantID)
	n.ID = asUUID(id)
	n.RecipientID = asUUID(recipient)
	n.ChangeRequestID = asUUIDPtr(crID)
	return &n, nil
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) (*notification.Notification, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
INSERT INTO notifications (tenant_id, recipient_id, title, message, change_request_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+notificationColumns,
		pgUUID(tenantID), pgUUID(n.RecipientID), n.Title, n.Message, pgUUIDPtr(n.ChangeRequestID))
	return scanNotification(row)
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, isRead *bool, limit int) ([]*notification.Notification, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := tx.Query(ctx, `
SELECT `+notificationColumns+`
FROM notifications
WHERE tenant_id = $1 AND recipient_id = $2
	AND ($3::boolean IS NULL OR is_read = $3)
ORDER BY created_at DESC, id DESC
LIMIT $4`,
		pgUUID(tenantID), pgUUID(recipientID), isRead, int32(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*notification.Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID uuid.UUID, id uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, `
UPDATE notifications
SET is_read = true
WHERE tenant_id = $1 AND recipient_id = $2 AND id = $3 AND is_read = false`,
		pgUUID(tenantID), pgUUID(recipientID), pgUUID(id))
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	err = tx.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM notifications
	WHERE tenant_id = $1 AND recipient_id = $2 AND id = $3
)`,
		pgUUID(tenantID), pgUUID(recipientID), pgUUID(id)).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, pgx.ErrNoRows
	}
	return false, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	err = tx.QueryRow(ctx, `
SELECT count(*)
FROM notifications
WHERE tenant_id = $1 AND recipient_id = $2 AND is_read = false`,
		pgUUID(tenantID), pgUUID(recipientID)).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

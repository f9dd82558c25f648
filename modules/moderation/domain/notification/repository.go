package notification

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) (*Notification, error)
	// ListByRecipient returns newest first; isRead narrows by read state when
	// non-nil.
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, isRead *bool, limit int) ([]*Notification, error)
	// MarkRead flips is_read to true. Returns false when the notification was
	// already read; a missing row surfaces as pgx.ErrNoRows.
	MarkRead(ctx context.Context, recipientID uuid.UUID, id uuid.UUID) (bool, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
}

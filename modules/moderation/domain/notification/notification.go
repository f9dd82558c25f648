package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification is created only as a side effect of a change request leaving
// PENDING. IsRead moves false to true once and never reverses.
type Notification struct {
	TenantID        uuid.UUID  `json:"tenant_id"`
	ID              uuid.UUID  `json:"id"`
	RecipientID     uuid.UUID  `json:"recipient_id"`
	Title           string     `json:"title"`
	Message         string     `json:"message"`
	ChangeRequestID *uuid.UUID `json:"change_request_id,omitempty"`
	IsRead          bool       `json:"is_read"`
	CreatedAt       time.Time  `json:"created_at"`
}

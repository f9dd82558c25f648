package events

import (
	"github.com/google/uuid"

	"github.com/brightacademy/backoffice/modules/moderation/domain/changerequest"
)

// ChangeRequestDecided is published after the deciding transaction commits.
// Auto-rejections triggered by an approved deletion publish one event each.
type ChangeRequestDecided struct {
	TenantID uuid.UUID
	Request  *changerequest.ChangeRequest
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/brightacademy/backoffice/modules/moderation/domain/events"
	"github.com/brightacademy/backoffice/modules/moderation/domain/notification"
	"github.com/brightacademy/backoffice/pkg/composables"
)

// NotificationService writes and reads requester-facing decision notices.
// Delivery is best effort: a failed insert is logged and never unwinds the
// decision that triggered it.
type NotificationService struct {
	repo notification.Repository
}

func NewNotificationService(repo notification.Repository) *NotificationService {
	return &NotificationService{repo: repo}
}

// OnChangeRequestDecided is subscribed on the event bus and runs after the
// deciding transaction has committed.
func (s *NotificationService) OnChangeRequestDecided(ctx context.Context, ev events.ChangeRequestDecided) {
	cr := ev.Request
	title := fmt.Sprintf("%s %s", cr.Tag(), strings.ToLower(cr.Status))
	message := fmt.Sprintf("Your %s request was %s.", strings.ToLower(cr.Tag()), strings.ToLower(cr.Status))
	if cr.DecisionNotes != nil && *cr.DecisionNotes != "" {
		message += " " + *cr.DecisionNotes
	}

	err := composables.InTx(ctx, func(txCtx context.Context) error {
		_, err := s.repo.Create(txCtx, &notification.Notification{
			TenantID:        cr.TenantID,
			RecipientID:     cr.RequesterID,
			Title:           title,
			Message:         message,
			ChangeRequestID: &cr.ID,
		})
		return err
	})
	if err != nil {
		composables.UseLogger(ctx).
			WithError(err).
			WithField("change_request_id", cr.ID).
			Error("failed to deliver decision notification")
	}
}

func (s *NotificationService) ListMy(ctx context.Context, actor composables.Actor, isRead *bool, limit int) ([]*notification.Notification, error) {
	items, err := s.repo.ListByRecipient(ctx, actor.ID, isRead, limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	return items, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor composables.Actor, id uuid.UUID) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		// Already-read is a no-op; only a missing row is an error.
		if _, err := s.repo.MarkRead(txCtx, actor.ID, id); err != nil {
			return mapPgError(err)
		}
		return nil
	})
}

func (s *NotificationService) CountUnread(ctx context.Context, actor composables.Actor) (int, error) {
	n, err := s.repo.CountUnread(ctx, actor.ID)
	if err != nil {
		return 0, mapPgError(err)
	}
	return n, nil
}

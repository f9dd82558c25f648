package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightacademy/backoffice/modules/catalog/domain/record"
	"github.com/brightacademy/backoffice/modules/moderation/domain/changerequest"
	moderationservices "github.com/brightacademy/backoffice/modules/moderation/services"
	"github.com/brightacademy/backoffice/pkg/composables"
	"github.com/brightacademy/backoffice/pkg/itf"
)

func decide(t *testing.T, env *itf.TestEnvironment, requestID uuid.UUID, approve bool) {
	t.Helper()
	decisions := itf.GetService[moderationservices.DecisionService](env)
	ctx, reviewer := env.AsActor(composables.RoleCenterAdmin)
	_, err := decisions.Decide(ctx, moderationservices.DecideInput{
		Actor:     reviewer,
		RequestID: requestID,
		Approve:   approve,
	})
	require.NoError(t, err)
}

func TestNotifications_DeliveredOnDecision(t *testing.T) {
	env := setupEnv(t)
	intake := itf.GetService[moderationservices.IntakeService](env)
	notifications := itf.GetService[moderationservices.NotificationService](env)

	rec := seedTeacher(t, env, env.BranchID, `{"name": "Aziza"}`)
	ctx, requester := env.AsActor(composables.RoleBranchAdmin)
	submitted, err := intake.Submit(ctx, moderationservices.SubmitInput{
		Actor:          requester,
		Kind:           record.KindTeacher,
		ChangeType:     changerequest.TypeUpdate,
		TargetEntityID: &rec.ID,
		Payload:        []byte(`{"name": "Azizbek"}`),
	})
	require.NoError(t, err)

	count, err := notifications.CountUnread(env.Ctx, requester)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	decide(t, env, submitted.Request.ID, true)

	items, err := notifications.ListMy(env.Ctx, requester, nil, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "TEACHER_UPDATE approved", items[0].Title)
	assert.False(t, items[0].IsRead)
	require.NotNil(t, items[0].ChangeRequestID)
	assert.Equal(t, submitted.Request.ID, *items[0].ChangeRequestID)

	count, err = notifications.CountUnread(env.Ctx, requester)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotifications_RejectionCarriesNotes(t *testing.T) {
	env := setupEnv(t)
	intake := itf.GetService[moderationservices.IntakeService](env)
	decisions := itf.GetService[moderationservices.DecisionService](env)
	notifications := itf.GetService[moderationservices.NotificationService](env)

	rec := seedTeacher(t, env, env.BranchID, `{"name": "Aziza"}`)
	ctx, requester := env.AsActor(composables.RoleBranchAdmin)
	submitted, err := intake.Submit(ctx, moderationservices.SubmitInput{
		Actor:          requester,
		Kind:           record.KindTeacher,
		ChangeType:     changerequest.TypeUpdate,
		TargetEntityID: &rec.ID,
		Payload:        []byte(`{"name": "Azizbek"}`),
	})
	require.NoError(t, err)

	reviewerCtx, reviewer := env.AsActor(composables.RoleCenterAdmin)
	notes := "needs a better photo"
	_, err = decisions.Decide(reviewerCtx, moderationservices.DecideInput{
		Actor:     reviewer,
		RequestID: submitted.Request.ID,
		Approve:   false,
		Notes:     &notes,
	})
	require.NoError(t, err)

	items, err := notifications.ListMy(env.Ctx, requester, nil, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "TEACHER_UPDATE rejected", items[0].Title)
	assert.Contains(t, items[0].Message, notes)
}

func TestNotifications_MarkReadIsMonotonic(t *testing.T) {
	env := setupEnv(t)
	intake := itf.GetService[moderationservices.IntakeService](env)
	notifications := itf.GetService[moderationservices.NotificationService](env)

	rec := seedTeacher(t, env, env.BranchID, `{"name": "Aziza"}`)
	ctx, requester := env.AsActor(composables.RoleBranchAdmin)
	submitted, err := intake.Submit(ctx, moderationservices.SubmitInput{
		Actor:          requester,
		Kind:           record.KindTeacher,
		ChangeType:     changerequest.TypeUpdate,
		TargetEntityID: &rec.ID,
		Payload:        []byte(`{"name": "Azizbek"}`),
	})
	require.NoError(t, err)
	decide(t, env, submitted.Request.ID, true)

	items, err := notifications.ListMy(env.Ctx, requester, nil, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, notifications.MarkRead(env.Ctx, requester, items[0].ID))
	// Marking a read notification again is a no-op, not an error.
	require.NoError(t, notifications.MarkRead(env.Ctx, requester, items[0].ID))

	count, err := notifications.CountUnread(env.Ctx, requester)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	unread := false
	read, err := notifications.ListMy(env.Ctx, requester, &unread, 10)
	require.NoError(t, err)
	assert.Empty(t, read)
}

func TestNotifications_MarkReadScopedToRecipient(t *testing.T) {
	env := setupEnv(t)
	intake := itf.GetService[moderationservices.IntakeService](env)
	notifications := itf.GetService[moderationservices.NotificationService](env)

	rec := seedTeacher(t, env, env.BranchID, `{"name": "Aziza"}`)
	ctx, requester := env.AsActor(composables.RoleBranchAdmin)
	submitted, err := intake.Submit(ctx, moderationservices.SubmitInput{
		Actor:          requester,
		Kind:           record.KindTeacher,
		ChangeType:     changerequest.TypeUpdate,
		TargetEntityID: &rec.ID,
		Payload:        []byte(`{"name": "Azizbek"}`),
	})
	require.NoError(t, err)
	decide(t, env, submitted.Request.ID, false)

	items, err := notifications.ListMy(env.Ctx, requester, nil, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, stranger := env.AsActor(composables.RoleBranchAdmin)
	err = notifications.MarkRead(env.Ctx, stranger, items[0].ID)
	requireServiceError(t, err, "NOT_FOUND")

	err = notifications.MarkRead(env.Ctx, requester, uuid.New())
	requireServiceError(t, err, "NOT_FOUND")
}

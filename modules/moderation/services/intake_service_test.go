package services_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightacademy/backoffice/modules"
	"github.com/brightacademy/backoffice/modules/catalog/domain/record"
	catalogservices "github.com/brightacademy/backoffice/modules/catalog/services"
	"github.com/brightacademy/backoffice/modules/moderation/domain/changerequest"
	moderationservices "github.com/brightacademy/backoffice/modules/moderation/services"
	"github.com/brightacademy/backoffice/pkg/composables"
	"github.com/brightacademy/backoffice/pkg/itf"
	"github.com/brightacademy/backoffice/pkg/serrors"
)

func setupEnv(t *testing.T) *itf.TestEnvironment {
	t.Helper()
	return itf.NewTestContext().WithModules(modules.BuiltInModules...).Build(t)
}

func requireServiceError(t *testing.T, err error, code string) *serrors.ServiceError {
	t.Helper()
	var svcErr *serrors.ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, code, svcErr.Code)
	return svcErr
}

func seedTeacher(t *testing.T, env *itf.TestEnvironment, branchID uuid.UUID, data string) *record.Record {
	t.Helper()
	catalog := itf.GetService[catalogservices.CatalogService](env)
	rec, err := catalog.Create(env.Ctx, branchID, record.KindTeacher, json.RawMessage(data))
	require.NoError(t, err)
	return rec
}

func TestSubmit_BranchAdminQueuesUpdate(t *testing.T) {
	env := setupEnv(t)
	intake := itf.GetService[moderationservices.IntakeService](env)
	catalog := itf.GetService[catalogservices.CatalogService](env)

	rec := seedTeacher(t, env, env.BranchID, `{"name": "Aziza", "subject": "math"}`)
	ctx, actor := env.AsActor(composables.RoleBranchAdmin)

	result, err := intake.Submit(ctx, moderationservices.SubmitInput{
		Actor:          actor,
		Kind:           record.KindTeacher,
		ChangeType:     changerequest.TypeUpdate,
		TargetEntityID: &rec.ID,
		Payload:        json.RawMessage(`{"subject": "physics"}`),
	})
	require.NoError(t, err)
	assert.False(t, result.Applied)
	require.NotNil(t, result.Request)
	assert.Equal(t, changerequest.StatusPending, result.Request.Status)
	assert.Equal(t, "TEACHER_UPDATE", result.Request.Tag())
	assert.Equal(t, actor.ID, result.Request.RequesterID)

	// The store must not change until someone approves.
	stored, err := catalog.GetByID(env.Ctx, record.KindTeacher, rec.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "Aziza", "subject": "math"}`, string(stored.Data))
}

func TestSubmit_CenterAdminAppliesImmediately(t *testing.T) {
	env := setupEnv(t)
	intake := itf.GetService[moderationservices.IntakeService](env)
	catalog := itf.GetService[catalogservices.CatalogService](env)

	rec := seedTeacher(t, env, env.BranchID, `{"name": "Aziza", "subject": "math"}`)
	ctx, actor := env.AsActor(composables.RoleCenterAdmin)

	result, err := intake.Submit(ctx, moderationservices.SubmitInput{
		Actor:          actor,
		Kind:           record.KindTeacher,
		ChangeType:     changerequest.TypeUpdate,
		TargetEntityID: &rec.ID,
		Payload:        json.RawMessage(`{"subject": "physics"}`),
	})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	require.NotNil(t, result.Record)
	assert.JSONEq(t, `{"name": "Aziza", "subject": "physics"}`, string(result.Record.Data))

	stored, err := catalog.GetByID(env.Ctx, record.KindTeacher, rec.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "Aziza", "subject": "physics"}`, string(stored.Data))
}

func TestSubmit_DuplicatePendingRejected(t *testing.T) {
	env := setupEnv(t)
	intake := itf.GetService[moderationservices.IntakeService](env)

	rec := seedTeacher(t, env, env.BranchID, `{"name": "Aziza"}`)
	ctx, actor := env.AsActor(composables.RoleBranchAdmin)

	in := moderationservices.SubmitInput{
		Actor:          actor,
		Kind:           record.KindTeacher,
		ChangeType:     changerequest.TypeUpdate,
		TargetEntityID: &rec.ID,
		Payload:        json.RawMessage(`{"name": "Azizbek"}`),
	}
	first, err := intake.Submit(ctx, in)
	require.NoError(t, err)

	_, err = intake.Submit(ctx, in)
	svcErr := requireServiceError(t, err, "DUPLICATE_REQUEST")
	assert.Equal(t, http.StatusConflict, svcErr.Status)
	assert.Equal(t, first.Request.ID.String(), svcErr.Meta["existing_request_id"])
}

func TestSubmit_DuplicateRaceHasOneWinner(t *testing.T) {
	env := setupEnv(t)
	intake := itf.GetService[moderationservices.IntakeService](env)

	rec := seedTeacher(t, env, env.BranchID, `{"name": "Aziza"}`)
	ctx, actor := env.AsActor(composables.RoleBranchAdmin)

	const submitters = 8
	var wg sync.WaitGroup
	errs := make([]error, submitters)
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = intake.Submit(ctx, moderationservices.SubmitInput{
				Actor:          actor,
				Kind:           record.KindTeacher,
				ChangeType:     changerequest.TypeUpdate,
				TargetEntityID: &rec.ID,
				Payload:        json.RawMessage(`{"name": "Azizbek"}`),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var svcErr *serrors.ServiceError
		require.True(t, errors.As(err, &svcErr))
		require.Equal(t, "DUPLICATE_REQUEST", svcErr.Code)
	}
	assert.Equal(t, 1, succeeded)
}

func TestSubmit_CreatesNeverCollide(t *testing.T) {
	env := setupEnv(t)
	intake := itf.GetService[moderationservices.IntakeService](env)

	ctx, actor := env.AsActor(composables.RoleBranchAdmin)
	in := moderationservices.SubmitInput{
		Actor:      actor,
		Kind:       record.KindNews,
		ChangeType: changerequest.TypeCreate,
		Payload:    json.RawMessage(`{"title": "Open day"}`),
	}

	first, err := intake.Submit(ctx, in)
	require.NoError(t, err)
	assert.False(t, first.Applied)
	assert.Nil(t, first.Request.TargetEntityID)

	second, err := intake.Submit(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, first.Request.ID, second.Request.ID)
}

func TestSubmit_Validation(t *testing.T) {
	env := setupEnv(t)
	intake := itf.GetService[moderationservices.IntakeService](env)
	ctx, actor := env.AsActor(composables.RoleBranchAdmin)

	_, err := intake.Submit(ctx, moderationservices.SubmitInput{
		Actor:      actor,
		Kind:       record.KindTeacher,
		ChangeType: changerequest.TypeUpdate,
		Payload:    json.RawMessage(`{"name": "x"}`),
	})
	requireServiceError(t, err, "VALIDATION_ERROR")

	target := uuid.New()
	_, err = intake.Submit(ctx, moderationservices.SubmitInput{
		Actor:          actor,
		Kind:           record.KindTeacher,
		ChangeType:     changerequest.TypeCreate,
		TargetEntityID: &target,
		Payload:        json.RawMessage(`{"name": "x"}`),
	})
	requireServiceError(t, err, "VALIDATION_ERROR")

	_, err = intake.Submit(ctx, moderationservices.SubmitInput{
		Actor:          actor,
		Kind:           record.KindTeacher,
		ChangeType:     changerequest.TypeUpdate,
		TargetEntityID: &target,
		Payload:        json.RawMessage(`[1, 2]`),
	})
	requireServiceError(t, err, "VALIDATION_ERROR")

	_, err = intake.Submit(ctx, moderationservices.SubmitInput{
		Actor:      actor,
		Kind:       record.KindTeacher,
		ChangeType: changerequest.ChangeType("ENTITY_RENAME"),
	})
	requireServiceError(t, err, "VALIDATION_ERROR")
}

func TestSubmit_CrossBranchTargetForbidden(t *testing.T) {
	env := setupEnv(t)
	intake := itf.GetService[moderationservices.IntakeService](env)

	otherBranch := env.SeedBranch(t, "Other Branch")
	rec := seedTeacher(t, env, otherBranch, `{"name": "Aziza"}`)

	ctx, actor := env.AsActor(composables.RoleBranchAdmin)
	_, err := intake.Submit(ctx, moderationservices.SubmitInput{
		Actor:          actor,
		Kind:           record.KindTeacher,
		ChangeType:     changerequest.TypeUpdate,
		TargetEntityID: &rec.ID,
		Payload:        json.RawMessage(`{"name": "x"}`),
	})
	requireServiceError(t, err, "FORBIDDEN")
}

func TestSubmit_CrossBranchCreateForbidden(t *testing.T) {
	env := setupEnv(t)
	intake := itf.GetService[moderationservices.IntakeService](env)

	otherBranch := env.SeedBranch(t, "Other Branch")

	ctx, actor := env.AsActor(composables.RoleBranchAdmin)
	_, err := intake.Submit(ctx, moderationservices.SubmitInput{
		Actor:      actor,
		Kind:       record.KindTeacher,
		ChangeType: changerequest.TypeCreate,
		BranchID:   otherBranch,
		Payload:    json.RawMessage(`{"name": "Aziza"}`),
	})
	requireServiceError(t, err, "FORBIDDEN")
}

func TestSubmit_MissingTargetNotFound(t *testing.T) {
	env := setupEnv(t)
	intake := itf.GetService[moderationservices.IntakeService](env)

	ctx, actor := env.AsActor(composables.RoleBranchAdmin)
	missing := uuid.New()
	_, err := intake.Submit(ctx, moderationservices.SubmitInput{
		Actor:          actor,
		Kind:           record.KindTeacher,
		ChangeType:     changerequest.TypeDelete,
		TargetEntityID: &missing,
	})
	requireServiceError(t, err, "NOT_FOUND")
}

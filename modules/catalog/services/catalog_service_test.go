package services_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightacademy/backoffice/modules"
	"github.com/brightacademy/backoffice/modules/catalog/domain/record"
	catalogservices "github.com/brightacademy/backoffice/modules/catalog/services"
	"github.com/brightacademy/backoffice/pkg/itf"
	"github.com/brightacademy/backoffice/pkg/serrors"
)

func setupCatalog(t *testing.T) (*itf.TestEnvironment, *catalogservices.CatalogService) {
	t.Helper()
	env := itf.NewTestContext().WithModules(modules.BuiltInModules...).Build(t)
	return env, itf.GetService[catalogservices.CatalogService](env)
}

func requireNotFound(t *testing.T, err error) {
	t.Helper()
	var svcErr *serrors.ServiceError
	require.True(t, errors.As(err, &svcErr))
	require.Equal(t, "NOT_FOUND", svcErr.Code)
}

func TestCatalogService_CreateAndGet(t *testing.T) {
	env, catalog := setupCatalog(t)

	rec, err := catalog.Create(env.Ctx, env.BranchID, record.KindNews, json.RawMessage(`{"title": "Open day"}`))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, env.TenantID, rec.TenantID)
	assert.Equal(t, env.BranchID, rec.BranchID)

	got, err := catalog.GetByID(env.Ctx, record.KindNews, rec.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "Open day"}`, string(got.Data))

	// Kind is part of the identity; the same id under another kind is unknown.
	_, err = catalog.GetByID(env.Ctx, record.KindTeacher, rec.ID)
	requireNotFound(t, err)
}

func TestCatalogService_UpdateMergesTopLevel(t *testing.T) {
	env, catalog := setupCatalog(t)

	rec, err := catalog.Create(env.Ctx, env.BranchID, record.KindPackage, json.RawMessage(`{"title": "Basic", "price": 500000}`))
	require.NoError(t, err)

	updated, err := catalog.Update(env.Ctx, record.KindPackage, rec.ID, json.RawMessage(`{"price": 650000}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "Basic", "price": 650000}`, string(updated.Data))

	_, err = catalog.Update(env.Ctx, record.KindPackage, uuid.New(), json.RawMessage(`{"price": 1}`))
	requireNotFound(t, err)
}

func TestCatalogService_SoftDeleteHidesRecord(t *testing.T) {
	env, catalog := setupCatalog(t)

	rec, err := catalog.Create(env.Ctx, env.BranchID, record.KindTeacher, json.RawMessage(`{"name": "Aziza"}`))
	require.NoError(t, err)

	require.NoError(t, catalog.Delete(env.Ctx, record.KindTeacher, rec.ID))

	_, err = catalog.GetByID(env.Ctx, record.KindTeacher, rec.ID)
	requireNotFound(t, err)

	// Deleting twice reports not found, the row is already hidden.
	err = catalog.Delete(env.Ctx, record.KindTeacher, rec.ID)
	requireNotFound(t, err)
}

func TestCatalogService_ListFiltersByBranch(t *testing.T) {
	env, catalog := setupCatalog(t)

	otherBranch := env.SeedBranch(t, "Other Branch")
	_, err := catalog.Create(env.Ctx, env.BranchID, record.KindTeacher, json.RawMessage(`{"name": "Aziza"}`))
	require.NoError(t, err)
	_, err = catalog.Create(env.Ctx, otherBranch, record.KindTeacher, json.RawMessage(`{"name": "Bekzod"}`))
	require.NoError(t, err)

	all, err := catalog.List(env.Ctx, record.KindTeacher, uuid.Nil, 50)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := catalog.List(env.Ctx, record.KindTeacher, otherBranch, 50)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, otherBranch, scoped[0].BranchID)
}

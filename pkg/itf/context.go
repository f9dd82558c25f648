package itf

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightacademy/backoffice/pkg/application"
	"github.com/brightacademy/backoffice/pkg/composables"
)

// TestContext builds a per-test environment: a fresh database, migrated
// schema, one tenant and one branch. The context carries the pool rather than
// an open transaction so services manage their own transactions exactly as in
// production, and concurrent callers really contend.
type TestContext struct {
	modules []application.Module
	dbName  string
}

func NewTestContext() *TestContext {
	return &TestContext{}
}

func (tc *TestContext) WithModules(modules ...application.Module) *TestContext {
	tc.modules = append(tc.modules, modules...)
	return tc
}

func (tc *TestContext) WithDBName(name string) *TestContext {
	tc.dbName = name
	return tc
}

func (tc *TestContext) Build(tb testing.TB) *TestEnvironment {
	tb.Helper()
	SkipIfNoDatabase(tb)

	if tc.dbName == "" {
		tc.dbName = tb.Name()
	}
	CreateDB(tc.dbName)
	pool := NewPool(DbOpts(tc.dbName))

	app, err := SetupApplication(pool, tc.modules...)
	if err != nil {
		tb.Fatal(err)
	}

	ctx := context.Background()
	tenantID := uuid.New()
	if _, err := pool.Exec(ctx, "INSERT INTO tenants (id, name) VALUES ($1, $2)", tenantID, "Test Tenant"); err != nil {
		tb.Fatal(err)
	}
	branchID := uuid.New()
	if _, err := pool.Exec(ctx, "INSERT INTO branches (id, tenant_id, name) VALUES ($1, $2, $3)", branchID, tenantID, "Test Branch"); err != nil {
		tb.Fatal(err)
	}

	tb.Cleanup(pool.Close)

	env := &TestEnvironment{
		Pool:     pool,
		App:      app,
		TenantID: tenantID,
		BranchID: branchID,
	}
	env.Ctx = composables.WithTenantID(composables.WithPool(ctx, pool), tenantID)
	return env
}

type TestEnvironment struct {
	Ctx      context.Context
	Pool     *pgxpool.Pool
	App      application.Application
	TenantID uuid.UUID
	BranchID uuid.UUID
}

// AsActor derives a context acting as the given role. Branch admins act for
// the environment's seeded branch unless another branch id is given.
func (te *TestEnvironment) AsActor(role composables.Role, branchID ...uuid.UUID) (context.Context, composables.Actor) {
	actor := composables.Actor{ID: uuid.New(), Role: role}
	if role == composables.RoleBranchAdmin {
		actor.BranchID = te.BranchID
		if len(branchID) > 0 {
			actor.BranchID = branchID[0]
		}
	}
	return composables.WithActor(te.Ctx, actor), actor
}

// SeedBranch inserts an extra branch for cross-branch scenarios.
func (te *TestEnvironment) SeedBranch(tb testing.TB, name string) uuid.UUID {
	tb.Helper()
	id := uuid.New()
	if _, err := te.Pool.Exec(te.Ctx, "INSERT INTO branches (id, tenant_id, name) VALUES ($1, $2, $3)", id, te.TenantID, name); err != nil {
		tb.Fatal(err)
	}
	return id
}

func (te *TestEnvironment) Service(service interface{}) interface{} {
	return te.App.Service(service)
}

// GetService retrieves and casts a service registered by a module.
func GetService[T any](te *TestEnvironment) *T {
	var zero T
	service := te.App.Service(zero)
	if service == nil {
		return nil
	}
	return service.(*T)
}

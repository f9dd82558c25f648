package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/brightacademy/backoffice/pkg/constants"
)

var (
	ErrNoTenantID = errors.New("no tenant id found in context")
	ErrNoActor    = errors.New("no actor found in context")
)

// Role is the trust level an administrator acts with. Center and super admins
// hold direct-write privilege over shared content; branch admins go through
// moderation.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleCenterAdmin Role = "center_admin"
	RoleBranchAdmin Role = "branch_admin"
)

func ParseRole(v string) (Role, bool) {
	switch Role(v) {
	case RoleSuperAdmin, RoleCenterAdmin, RoleBranchAdmin:
		return Role(v), true
	}
	return "", false
}

// Actor identifies the administrator behind a request. BranchID is uuid.Nil
// for center and super admins.
type Actor struct {
	ID       uuid.UUID
	Role     Role
	BranchID uuid.UUID
}

func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	v := ctx.Value(constants.TenantIDKey)
	if v == nil {
		return uuid.Nil, ErrNoTenantID
	}
	return v.(uuid.UUID), nil
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, constants.ActorKey, actor)
}

func UseActor(ctx context.Context) (Actor, error) {
	v := ctx.Value(constants.ActorKey)
	if v == nil {
		return Actor{}, ErrNoActor
	}
	return v.(Actor), nil
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

func UseLogger(ctx context.Context) *logrus.Entry {
	v := ctx.Value(constants.LoggerKey)
	if v == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return v.(*logrus.Entry)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, constants.RequestIDKey, requestID)
}

func UseRequestID(ctx context.Context) string {
	v := ctx.Value(constants.RequestIDKey)
	if v == nil {
		return ""
	}
	return v.(string)
}

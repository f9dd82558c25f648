package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/brightacademy/backoffice/modules/catalog/domain/record"
	catalogservices "github.com/brightacademy/backoffice/modules/catalog/services"
	"github.com/brightacademy/backoffice/modules/moderation/domain/changerequest"
	"github.com/brightacademy/backoffice/pkg/composables"
	"github.com/brightacademy/backoffice/pkg/serrors"
)

// IntakeService is the single entry point for moderated mutations. Actors
// with direct-write privilege mutate the store immediately; branch admins get
// a pending change request instead. The pending-unique index on the ledger is
// the duplicate reservation, so two concurrent submissions of the same triple
// cannot both succeed.
type IntakeService struct {
	requests changerequest.Repository
	catalog  *catalogservices.CatalogService
}

func NewIntakeService(requests changerequest.Repository, catalog *catalogservices.CatalogService) *IntakeService {
	return &IntakeService{requests: requests, catalog: catalog}
}

type SubmitInput struct {
	Actor          composables.Actor
	Kind           record.Kind
	ChangeType     changerequest.ChangeType
	BranchID       uuid.UUID
	TargetEntityID *uuid.UUID
	Payload        json.RawMessage
}

type SubmitResult struct {
	Applied bool
	Record  *record.Record
	Request *changerequest.ChangeRequest
}

func (s *IntakeService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if err := validateSubmit(&in); err != nil {
		return nil, err
	}

	switch in.Actor.Role {
	case composables.RoleSuperAdmin, composables.RoleCenterAdmin:
		return s.applyDirect(ctx, in)
	case composables.RoleBranchAdmin:
		return s.enqueue(ctx, in)
	default:
		return nil, newServiceError(http.StatusForbidden, "FORBIDDEN", "unknown trust level", nil)
	}
}

func validateSubmit(in *SubmitInput) error {
	switch in.ChangeType {
	case changerequest.TypeCreate:
		if in.TargetEntityID != nil {
			return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "creation must not reference a target entity", nil)
		}
		if !isJSONObject(in.Payload) {
			return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "payload must be a json object",
				serrors.NewFieldRequiredError("payload", ""))
		}
	case changerequest.TypeUpdate:
		if in.TargetEntityID == nil || *in.TargetEntityID == uuid.Nil {
			return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "target_entity_id is required",
				serrors.NewFieldRequiredError("target_entity_id", ""))
		}
		if !isJSONObject(in.Payload) {
			return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "payload must be a json object",
				serrors.NewFieldRequiredError("payload", ""))
		}
	case changerequest.TypeDelete:
		if in.TargetEntityID == nil || *in.TargetEntityID == uuid.Nil {
			return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "target_entity_id is required",
				serrors.NewFieldRequiredError("target_entity_id", ""))
		}
		// Deletions carry no field values.
		in.Payload = json.RawMessage(`{}`)
	default:
		return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "unknown change type", nil)
	}
	return nil
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 1 && trimmed[0] == '{' && json.Valid(trimmed)
}

func (s *IntakeService) applyDirect(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	switch in.ChangeType {
	case changerequest.TypeCreate:
		if in.BranchID == uuid.Nil {
			return nil, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "branch_id is required",
				serrors.NewFieldRequiredError("branch_id", ""))
		}
		rec, err := s.catalog.Create(ctx, in.BranchID, in.Kind, in.Payload)
		if err != nil {
			return nil, mapPgError(err)
		}
		return &SubmitResult{Applied: true, Record: rec}, nil
	case changerequest.TypeUpdate:
		rec, err := s.catalog.Update(ctx, in.Kind, *in.TargetEntityID, in.Payload)
		if err != nil {
			return nil, mapPgError(err)
		}
		return &SubmitResult{Applied: true, Record: rec}, nil
	default:
		if err := s.catalog.Delete(ctx, in.Kind, *in.TargetEntityID); err != nil {
			return nil, mapPgError(err)
		}
		return &SubmitResult{Applied: true}, nil
	}
}

func (s *IntakeService) enqueue(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	branchID := in.Actor.BranchID
	if in.BranchID != uuid.Nil && in.BranchID != branchID {
		return nil, newServiceError(http.StatusForbidden, "FORBIDDEN", "cannot submit for another branch", nil)
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*changerequest.ChangeRequest, error) {
		if in.TargetEntityID != nil {
			rec, err := s.catalog.Repo().GetByID(txCtx, in.Kind, *in.TargetEntityID)
			if err != nil {
				return nil, mapPgError(err)
			}
			if rec.BranchID != branchID {
				return nil, newServiceError(http.StatusForbidden, "FORBIDDEN", "entity belongs to another branch", nil)
			}
		}
		return s.requests.Create(txCtx, &changerequest.ChangeRequest{
			BranchID:       branchID,
			RequesterID:    in.Actor.ID,
			Kind:           in.Kind,
			ChangeType:     in.ChangeType,
			TargetEntityID: in.TargetEntityID,
			Payload:        in.Payload,
		})
	})
	if err != nil {
		return nil, s.decorateDuplicate(ctx, in, branchID, mapPgError(err))
	}
	return &SubmitResult{Applied: false, Request: created}, nil
}

// decorateDuplicate attaches the id of the conflicting pending request so the
// caller can surface "already awaiting approval" with a pointer to it.
func (s *IntakeService) decorateDuplicate(ctx context.Context, in SubmitInput, branchID uuid.UUID, err error) error {
	var svcErr *serrors.ServiceError
	if !errors.As(err, &svcErr) || svcErr.Code != "DUPLICATE_REQUEST" || in.TargetEntityID == nil {
		return err
	}
	existing, lookupErr := s.requests.FindPendingByTriple(ctx, branchID, in.Kind, in.ChangeType, *in.TargetEntityID)
	if lookupErr != nil {
		return err
	}
	svcErr.Meta = map[string]string{"existing_request_id": existing.ID.String()}
	return svcErr
}

package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/brightacademy/backoffice/modules/catalog/domain/record"
	"github.com/brightacademy/backoffice/modules/moderation/domain/changerequest"
	"github.com/brightacademy/backoffice/modules/moderation/domain/events"
	"github.com/brightacademy/backoffice/pkg/composables"
	"github.com/brightacademy/backoffice/pkg/eventbus"
)

// DecisionService finalizes pending change requests. Approval applies the
// proposed mutation in the same transaction that flips the status, so a
// request can never read APPROVED while the store still holds the old state.
type DecisionService struct {
	requests  changerequest.Repository
	records   record.Repository
	publisher eventbus.EventBus
}

func NewDecisionService(requests changerequest.Repository, records record.Repository, publisher eventbus.EventBus) *DecisionService {
	return &DecisionService{requests: requests, records: records, publisher: publisher}
}

type DecideInput struct {
	Actor     composables.Actor
	RequestID uuid.UUID
	Approve   bool
	Notes     *string
}

type decisionOutcome struct {
	decided      *changerequest.ChangeRequest
	autoRejected []*changerequest.ChangeRequest
}

func (s *DecisionService) Decide(ctx context.Context, in DecideInput) (*changerequest.ChangeRequest, error) {
	switch in.Actor.Role {
	case composables.RoleSuperAdmin, composables.RoleCenterAdmin:
	default:
		return nil, newServiceError(http.StatusForbidden, "FORBIDDEN", "only center staff may decide requests", nil)
	}

	var out *decisionOutcome
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		out, err = composables.InTxResult(ctx, func(txCtx context.Context) (*decisionOutcome, error) {
			return s.decideTx(txCtx, in)
		})
		if err == nil || !isRetryable(err) {
			break
		}
	}
	if err != nil {
		return nil, mapPgError(err)
	}

	s.publisher.Publish(ctx, events.ChangeRequestDecided{TenantID: out.decided.TenantID, Request: out.decided})
	for _, cr := range out.autoRejected {
		s.publisher.Publish(ctx, events.ChangeRequestDecided{TenantID: cr.TenantID, Request: cr})
	}
	return out.decided, nil
}

func (s *DecisionService) decideTx(ctx context.Context, in DecideInput) (*decisionOutcome, error) {
	status := changerequest.StatusRejected
	if in.Approve {
		status = changerequest.StatusApproved
	}

	cr, won, err := s.requests.Finalize(ctx, in.RequestID, status, in.Actor.ID, in.Notes)
	if err != nil {
		return nil, err
	}
	if !won {
		svcErr := newServiceError(http.StatusConflict, "ALREADY_DECIDED", "request was already decided", nil)
		svcErr.Meta = map[string]string{"status": cr.Status}
		return nil, svcErr
	}

	out := &decisionOutcome{decided: cr}
	if !in.Approve {
		return out, nil
	}

	switch cr.ChangeType {
	case changerequest.TypeCreate:
		rec, err := s.records.Insert(ctx, &record.Record{
			BranchID: cr.BranchID,
			Kind:     cr.Kind,
			Data:     cr.Payload,
		})
		if err != nil {
			return nil, err
		}
		if err := s.requests.BindTarget(ctx, cr.ID, rec.ID); err != nil {
			return nil, err
		}
		cr.TargetEntityID = &rec.ID

	case changerequest.TypeUpdate:
		if _, err := s.records.MergeData(ctx, cr.Kind, *cr.TargetEntityID, cr.Payload); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, newServiceError(http.StatusUnprocessableEntity, "TARGET_MISSING", "target entity no longer exists", err)
			}
			return nil, err
		}

	case changerequest.TypeDelete:
		if err := s.records.SoftDelete(ctx, cr.Kind, *cr.TargetEntityID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, newServiceError(http.StatusUnprocessableEntity, "TARGET_MISSING", "target entity no longer exists", err)
			}
			return nil, err
		}
		rejected, err := s.rejectOrphans(ctx, cr, in.Actor.ID)
		if err != nil {
			return nil, err
		}
		out.autoRejected = rejected
	}
	return out, nil
}

// rejectOrphans closes every other pending request aimed at an entity that an
// approved deletion just removed.
func (s *DecisionService) rejectOrphans(ctx context.Context, deleted *changerequest.ChangeRequest, decidedBy uuid.UUID) ([]*changerequest.ChangeRequest, error) {
	pending, err := s.requests.ListPendingByTarget(ctx, *deleted.TargetEntityID)
	if err != nil {
		return nil, err
	}
	notes := "target entity was deleted"
	rejected := make([]*changerequest.ChangeRequest, 0, len(pending))
	for _, p := range pending {
		closed, won, err := s.requests.Finalize(ctx, p.ID, changerequest.StatusRejected, decidedBy, &notes)
		if err != nil {
			return nil, err
		}
		if won {
			rejected = append(rejected, closed)
		}
	}
	return rejected, nil
}

func (s *DecisionService) GetByID(ctx context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	cr, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, mapPgError(err)
	}
	return cr, nil
}

func (s *DecisionService) List(ctx context.Context, actor composables.Actor, filter changerequest.ListFilter) ([]*changerequest.ChangeRequest, error) {
	// Branch admins only ever see their own branch's ledger.
	if actor.Role == composables.RoleBranchAdmin {
		filter.BranchID = actor.BranchID
	}
	crs, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, mapPgError(err)
	}
	return crs, nil
}

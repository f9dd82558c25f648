package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/brightacademy/backoffice/modules/catalog/domain/record"
	catalogservices "github.com/brightacademy/backoffice/modules/catalog/services"
	"github.com/brightacademy/backoffice/modules/moderation/domain/changerequest"
	"github.com/brightacademy/backoffice/pkg/composables"
)

// RecordView is a catalog record annotated with its moderation state. The
// pending tag is derived from the earliest open request against the record.
type RecordView struct {
	Record     *record.Record `json:"data"`
	IsPending  bool           `json:"is_pending"`
	PendingTag string         `json:"pending_type,omitempty"`
}

// PendingGate is the read side of moderation: it never blocks a read, it only
// decorates records so clients can grey out rows that are awaiting a decision.
type PendingGate struct {
	catalog  *catalogservices.CatalogService
	requests changerequest.Repository
}

func NewPendingGate(catalog *catalogservices.CatalogService, requests changerequest.Repository) *PendingGate {
	return &PendingGate{catalog: catalog, requests: requests}
}

func (g *PendingGate) Get(ctx context.Context, kind record.Kind, id uuid.UUID) (*RecordView, error) {
	rec, err := g.catalog.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	pending, err := g.requests.ListPendingByTarget(ctx, rec.ID)
	if err != nil {
		return nil, mapPgError(err)
	}
	view := &RecordView{Record: rec}
	if len(pending) > 0 {
		view.IsPending = true
		view.PendingTag = pending[0].Tag()
	}
	return view, nil
}

func (g *PendingGate) List(ctx context.Context, actor composables.Actor, kind record.Kind, branchID uuid.UUID, limit int) ([]*RecordView, error) {
	if actor.Role == composables.RoleBranchAdmin {
		branchID = actor.BranchID
	}
	recs, err := g.catalog.List(ctx, kind, branchID, limit)
	if err != nil {
		return nil, err
	}
	tags, err := g.requests.PendingTags(ctx, branchID, kind)
	if err != nil {
		return nil, mapPgError(err)
	}
	views := make([]*RecordView, 0, len(recs))
	for _, rec := range recs {
		view := &RecordView{Record: rec}
		if tag, ok := tags[rec.ID]; ok {
			view.IsPending = true
			view.PendingTag = tag
		}
		views = append(views, view)
	}
	return views, nil
}

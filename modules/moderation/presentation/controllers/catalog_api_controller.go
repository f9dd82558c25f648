package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/brightacademy/backoffice/modules/catalog/domain/record"
	"github.com/brightacademy/backoffice/modules/moderation/domain/changerequest"
	moderationservices "github.com/brightacademy/backoffice/modules/moderation/services"
	"github.com/brightacademy/backoffice/pkg/application"
	"github.com/brightacademy/backoffice/pkg/composables"
	"github.com/brightacademy/backoffice/pkg/httpapi"
	"github.com/brightacademy/backoffice/pkg/middleware"
	"github.com/brightacademy/backoffice/pkg/serrors"
)

// CatalogAPIController exposes the moderated catalog surface. Every mutation
// goes through intake; whether it applies immediately or parks as a pending
// request depends on the caller's trust level, not on the route.
type CatalogAPIController struct {
	app      application.Application
	basePath string
}

func NewCatalogAPIController(app application.Application) application.Controller {
	return &CatalogAPIController{
		app:      app,
		basePath: "/api/catalog",
	}
}

func (c *CatalogAPIController) Key() string {
	return c.basePath
}

func (c *CatalogAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.ProvideActor())
	router.HandleFunc("/{kind}", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{kind}", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{kind}/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{kind}/{id}", c.Update).Methods(http.MethodPatch)
	router.HandleFunc("/{kind}/{id}", c.Delete).Methods(http.MethodDelete)
}

type createRecordRequest struct {
	BranchID *uuid.UUID      `json:"branch_id,omitempty"`
	Data     json.RawMessage `json:"data"`
}

type updateRecordRequest struct {
	Data json.RawMessage `json:"data"`
}

// mutationResponse is returned by every write. When is_pending is false, data
// is the mutated record; when true, data is the queued change request.
type mutationResponse struct {
	IsPending bool `json:"is_pending"`
	Data      any  `json:"data"`
}

func (c *CatalogAPIController) intake() *moderationservices.IntakeService {
	return c.app.Service(moderationservices.IntakeService{}).(*moderationservices.IntakeService)
}

func (c *CatalogAPIController) gate() *moderationservices.PendingGate {
	return c.app.Service(moderationservices.PendingGate{}).(*moderationservices.PendingGate)
}

func kindFromRequest(r *http.Request) (record.Kind, error) {
	kind, ok := record.ParseKind(mux.Vars(r)["kind"])
	if !ok {
		return "", serrors.NewServiceError(http.StatusNotFound, "NOT_FOUND", "unknown entity kind", nil)
	}
	return kind, nil
}

func idFromRequest(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, serrors.NewServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid id", err)
	}
	return id, nil
}

func (c *CatalogAPIController) Create(w http.ResponseWriter, r *http.Request) {
	kind, err := kindFromRequest(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var body createRecordRequest
	if err := decodeJSON(r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	actor, err := composables.UseActor(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	branchID := actor.BranchID
	if body.BranchID != nil {
		branchID = *body.BranchID
	}

	c.submit(w, r, moderationservices.SubmitInput{
		Actor:      actor,
		Kind:       kind,
		ChangeType: changerequest.TypeCreate,
		BranchID:   branchID,
		Payload:    body.Data,
	}, http.StatusCreated)
}

func (c *CatalogAPIController) Update(w http.ResponseWriter, r *http.Request) {
	kind, err := kindFromRequest(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := idFromRequest(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var body updateRecordRequest
	if err := decodeJSON(r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	actor, err := composables.UseActor(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	c.submit(w, r, moderationservices.SubmitInput{
		Actor:          actor,
		Kind:           kind,
		ChangeType:     changerequest.TypeUpdate,
		TargetEntityID: &id,
		Payload:        body.Data,
	}, http.StatusOK)
}

func (c *CatalogAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	kind, err := kindFromRequest(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := idFromRequest(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	actor, err := composables.UseActor(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	c.submit(w, r, moderationservices.SubmitInput{
		Actor:          actor,
		Kind:           kind,
		ChangeType:     changerequest.TypeDelete,
		TargetEntityID: &id,
	}, http.StatusOK)
}

func (c *CatalogAPIController) submit(w http.ResponseWriter, r *http.Request, in moderationservices.SubmitInput, appliedStatus int) {
	tag := changerequest.Tag(in.Kind, in.ChangeType)
	result, err := c.intake().Submit(r.Context(), in)
	if err != nil {
		submissionsTotal.WithLabelValues(tag, "error").Inc()
		writeServiceError(w, r, err)
		return
	}
	if result.Applied {
		submissionsTotal.WithLabelValues(tag, "applied").Inc()
		_ = httpapi.WriteJSON(w, appliedStatus, &mutationResponse{Data: result.Record})
		return
	}
	submissionsTotal.WithLabelValues(tag, "queued").Inc()
	_ = httpapi.WriteJSON(w, http.StatusAccepted, &mutationResponse{
		IsPending: true,
		Data:      newRequestEnvelope(result.Request),
	})
}

func (c *CatalogAPIController) Get(w http.ResponseWriter, r *http.Request) {
	kind, err := kindFromRequest(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := idFromRequest(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	view, err := c.gate().Get(r.Context(), kind, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, view)
}

func (c *CatalogAPIController) List(w http.ResponseWriter, r *http.Request) {
	kind, err := kindFromRequest(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	actor, err := composables.UseActor(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	branchID := uuid.Nil
	if raw := r.URL.Query().Get("branch_id"); raw != "" {
		branchID, err = uuid.Parse(raw)
		if err != nil {
			writeServiceError(w, r, serrors.NewServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid branch_id", err))
			return
		}
	}

	views, err := c.gate().List(r.Context(), actor, kind, branchID, queryLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, views)
}

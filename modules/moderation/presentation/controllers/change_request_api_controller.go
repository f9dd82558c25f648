package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/brightacademy/backoffice/modules/moderation/domain/changerequest"
	moderationservices "github.com/brightacademy/backoffice/modules/moderation/services"
	"github.com/brightacademy/backoffice/pkg/application"
	"github.com/brightacademy/backoffice/pkg/composables"
	"github.com/brightacademy/backoffice/pkg/httpapi"
	"github.com/brightacademy/backoffice/pkg/middleware"
	"github.com/brightacademy/backoffice/pkg/serrors"
)

// ChangeRequestAPIController serves the moderation queue: center staff list
// and decide, branch admins track their own submissions.
type ChangeRequestAPIController struct {
	app      application.Application
	basePath string
}

func NewChangeRequestAPIController(app application.Application) application.Controller {
	return &ChangeRequestAPIController{
		app:      app,
		basePath: "/api/change-requests",
	}
}

func (c *ChangeRequestAPIController) Key() string {
	return c.basePath
}

func (c *ChangeRequestAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.ProvideActor())
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Decide).Methods(http.MethodPatch)
}

// requestEnvelope is the wire shape of a change request; the compound tag is
// derived on the way out and never stored.
type requestEnvelope struct {
	*changerequest.ChangeRequest
	Tag string `json:"tag"`
}

func newRequestEnvelope(cr *changerequest.ChangeRequest) *requestEnvelope {
	return &requestEnvelope{ChangeRequest: cr, Tag: cr.Tag()}
}

func (c *ChangeRequestAPIController) decisions() *moderationservices.DecisionService {
	return c.app.Service(moderationservices.DecisionService{}).(*moderationservices.DecisionService)
}

func (c *ChangeRequestAPIController) List(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseActor(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	query := r.URL.Query()
	filter := changerequest.ListFilter{Limit: queryLimit(r)}
	if status := strings.ToUpper(strings.TrimSpace(query.Get("status"))); status != "" {
		switch status {
		case changerequest.StatusPending, changerequest.StatusApproved, changerequest.StatusRejected:
			filter.Status = status
		default:
			writeServiceError(w, r, serrors.NewServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "unknown status filter", nil))
			return
		}
	}
	if raw := query.Get("branch_id"); raw != "" {
		branchID, err := uuid.Parse(raw)
		if err != nil {
			writeServiceError(w, r, serrors.NewServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid branch_id", err))
			return
		}
		filter.BranchID = branchID
	}

	crs, err := c.decisions().List(r.Context(), actor, filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items := make([]*requestEnvelope, 0, len(crs))
	for _, cr := range crs {
		items = append(items, newRequestEnvelope(cr))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, items)
}

func (c *ChangeRequestAPIController) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseActor(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := idFromRequest(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	cr, err := c.decisions().GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// Branch admins cannot see other branches' requests; report not found
	// rather than leaking their existence.
	if actor.Role == composables.RoleBranchAdmin && cr.BranchID != actor.BranchID {
		writeServiceError(w, r, serrors.NewServiceError(http.StatusNotFound, "NOT_FOUND", "not found", nil))
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, newRequestEnvelope(cr))
}

type decideRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

func (c *ChangeRequestAPIController) Decide(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseActor(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := idFromRequest(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var body decideRequest
	if err := decodeJSON(r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := strings.ToUpper(strings.TrimSpace(body.Status))
	if status != changerequest.StatusApproved && status != changerequest.StatusRejected {
		writeServiceError(w, r, serrors.NewServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "status must be APPROVED or REJECTED", nil))
		return
	}

	cr, err := c.decisions().Decide(r.Context(), moderationservices.DecideInput{
		Actor:     actor,
		RequestID: id,
		Approve:   status == changerequest.StatusApproved,
		Notes:     body.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	decisionsTotal.WithLabelValues(cr.Tag(), cr.Status).Inc()
	_ = httpapi.WriteJSON(w, http.StatusOK, newRequestEnvelope(cr))
}

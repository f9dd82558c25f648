package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	moderationservices "github.com/brightacademy/backoffice/modules/moderation/services"
	"github.com/brightacademy/backoffice/pkg/application"
	"github.com/brightacademy/backoffice/pkg/composables"
	"github.com/brightacademy/backoffice/pkg/httpapi"
	"github.com/brightacademy/backoffice/pkg/middleware"
	"github.com/brightacademy/backoffice/pkg/serrors"
)

type NotificationAPIController struct {
	app      application.Application
	basePath string
}

func NewNotificationAPIController(app application.Application) application.Controller {
	return &NotificationAPIController{
		app:      app,
		basePath: "/api/notifications",
	}
}

func (c *NotificationAPIController) Key() string {
	return c.basePath
}

func (c *NotificationAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.ProvideActor())
	router.HandleFunc("/my", c.ListMy).Methods(http.MethodGet)
	router.HandleFunc("/my/unread-count", c.UnreadCount).Methods(http.MethodGet)
	router.HandleFunc("/{id}/read", c.MarkRead).Methods(http.MethodPost)
}

func (c *NotificationAPIController) notifications() *moderationservices.NotificationService {
	return c.app.Service(moderationservices.NotificationService{}).(*moderationservices.NotificationService)
}

func (c *NotificationAPIController) ListMy(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseActor(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var isRead *bool
	switch r.URL.Query().Get("is_read") {
	case "":
	case "true":
		v := true
		isRead = &v
	case "false":
		v := false
		isRead = &v
	default:
		writeServiceError(w, r, serrors.NewServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "is_read must be true or false", nil))
		return
	}

	items, err := c.notifications().ListMy(r.Context(), actor, isRead, queryLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, items)
}

func (c *NotificationAPIController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseActor(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	count, err := c.notifications().CountUnread(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (c *NotificationAPIController) MarkRead(w http.ResponseWriter, r *http.Request) {
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
	if err := c.notifications().MarkRead(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

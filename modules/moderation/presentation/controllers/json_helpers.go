package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/brightacademy/backoffice/pkg/composables"
	"github.com/brightacademy/backoffice/pkg/httpapi"
	"github.com/brightacademy/backoffice/pkg/serrors"
)

const defaultListLimit = 50

func decodeJSON[T any](r *http.Request, dst *T) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return serrors.NewServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body", err)
	}
	return nil
}

// writeServiceError renders a ServiceError as the standard error envelope.
// Anything else is logged and reported as an opaque 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *serrors.ServiceError
	if errors.As(err, &svcErr) {
		_ = httpapi.WriteError(w, svcErr.Status, svcErr.Code, svcErr.Message, svcErr.Meta)
		return
	}
	composables.UseLogger(r.Context()).WithError(err).Error("unhandled service error")
	_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}

func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 500 {
		return defaultListLimit
	}
	return limit
}

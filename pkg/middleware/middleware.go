package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/brightacademy/backoffice/pkg/composables"
	"github.com/brightacademy/backoffice/pkg/configuration"
	"github.com/brightacademy/backoffice/pkg/httpapi"
)

// Provide stores a static value under the given context key for every request.
func Provide(key any, value any) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), key, value)))
		})
	}
}

func getRealIP(r *http.Request, conf *configuration.Configuration) string {
	if v := r.Header.Get(conf.RealIPHeader); v != "" {
		return v
	}
	return r.RemoteAddr
}

func getRequestID(r *http.Request, conf *configuration.Configuration) string {
	if v := r.Header.Get(conf.RequestIDHeader); v != "" {
		return v
	}
	return uuid.New().String()
}

type statusCaptureWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusCaptureWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusCaptureWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// WithLogger logs request start/completion and injects a request-scoped
// logrus entry plus the request id into the context.
func WithLogger(logger *logrus.Logger) mux.MiddlewareFunc {
	conf := configuration.Use()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := getRequestID(r, conf)

			fieldsLogger := logger.WithFields(logrus.Fields{
				"request-id": requestID,
				"path":       r.RequestURI,
				"method":     r.Method,
			})

			fieldsLogger.WithFields(logrus.Fields{
				"host":       r.Host,
				"ip":         getRealIP(r, conf),
				"user-agent": r.UserAgent(),
			}).Info("request started")

			ctx := composables.WithLogger(r.Context(), fieldsLogger)
			ctx = composables.WithRequestID(ctx, requestID)

			sw := &statusCaptureWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r.WithContext(ctx))

			fieldsLogger.WithFields(logrus.Fields{
				"status":   sw.status,
				"duration": time.Since(start).String(),
			}).Info("request completed")
		})
	}
}

// ProvideActor reads the identity headers installed by the authenticating
// proxy and places the tenant id and actor into the context. Requests without
// a parsable identity are rejected before any handler runs.
func ProvideActor() mux.MiddlewareFunc {
	conf := configuration.Use()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, err := uuid.Parse(r.Header.Get(conf.TenantIDHeader))
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "NO_TENANT", "missing or invalid tenant header", nil)
				return
			}
			adminID, err := uuid.Parse(r.Header.Get(conf.AdminIDHeader))
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "NO_ACTOR", "missing or invalid admin header", nil)
				return
			}
			role, ok := composables.ParseRole(r.Header.Get(conf.AdminRoleHeader))
			if !ok {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "NO_ACTOR", "missing or invalid role header", nil)
				return
			}

			actor := composables.Actor{ID: adminID, Role: role}
			if raw := r.Header.Get(conf.BranchIDHeader); raw != "" {
				branchID, err := uuid.Parse(raw)
				if err != nil {
					_ = httpapi.WriteError(w, http.StatusUnauthorized, "NO_ACTOR", "invalid branch header", nil)
					return
				}
				actor.BranchID = branchID
			}
			if actor.Role == composables.RoleBranchAdmin && actor.BranchID == uuid.Nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "NO_ACTOR", "branch admins require a branch header", nil)
				return
			}

			ctx := composables.WithTenantID(r.Context(), tenantID)
			ctx = composables.WithActor(ctx, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

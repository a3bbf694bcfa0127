// Package api exposes the hydration service over JSON HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"example.com/hydration/internal/auth"
	"example.com/hydration/internal/dailyplan"
	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/notification"
	"example.com/hydration/internal/recommendation"
	"example.com/hydration/internal/statistics"
	"example.com/hydration/internal/tracking"
)

// Services groups the collaborators the handlers delegate to.
type Services struct {
	Users           *tracking.UserService
	Profiles        *tracking.ProfileService
	Plans           *dailyplan.Engine
	Intakes         *tracking.IntakeService
	Activities      *tracking.ActivityService
	Recommendations *recommendation.Evaluator
	Notifications   *notification.Dispatcher
	Statistics      *statistics.Service
}

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	svc    Services
	logger *zap.Logger
}

// NewHandler builds a Handler.
func NewHandler(svc Services, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("api")}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", healthz)

	mux.HandleFunc("POST /v1/users", h.write(h.createUser))
	mux.HandleFunc("GET /v1/users/{id}", h.read(h.getUser))

	mux.HandleFunc("POST /v1/profiles", h.write(h.createProfile))
	mux.HandleFunc("GET /v1/profiles", h.read(h.findProfile))
	mux.HandleFunc("GET /v1/profiles/{id}", h.read(h.getProfile))
	mux.HandleFunc("PATCH /v1/profiles/{id}", h.write(h.updateProfile))

	mux.HandleFunc("POST /v1/daily-plans", h.write(h.createPlan))
	mux.HandleFunc("GET /v1/daily-plans", h.read(h.listPlans))
	mux.HandleFunc("GET /v1/daily-plans/{id}", h.read(h.getPlan))
	mux.HandleFunc("PATCH /v1/daily-plans/{id}", h.write(h.updatePlan))
	mux.HandleFunc("DELETE /v1/daily-plans/{id}", h.write(h.deletePlan))
	mux.HandleFunc("GET /v1/daily-plans/{id}/recommendations", h.read(h.planFeed))

	mux.HandleFunc("POST /v1/intakes", h.write(h.createIntake))
	mux.HandleFunc("GET /v1/intakes", h.read(h.listIntakes))
	mux.HandleFunc("GET /v1/intakes/{id}", h.read(h.getIntake))
	mux.HandleFunc("PATCH /v1/intakes/{id}", h.write(h.updateIntake))
	mux.HandleFunc("DELETE /v1/intakes/{id}", h.write(h.deleteIntake))

	mux.HandleFunc("POST /v1/activities", h.write(h.createActivity))
	mux.HandleFunc("GET /v1/activities", h.read(h.listActivities))
	mux.HandleFunc("GET /v1/activities/{id}", h.read(h.getActivity))
	mux.HandleFunc("PATCH /v1/activities/{id}", h.write(h.updateActivity))
	mux.HandleFunc("DELETE /v1/activities/{id}", h.write(h.deleteActivity))

	mux.HandleFunc("GET /v1/recommendations", h.read(h.listRecommendations))
	mux.HandleFunc("GET /v1/recommendations/{id}", h.read(h.getRecommendation))
	mux.HandleFunc("GET /v1/notifications", h.read(h.listNotifications))
	mux.HandleFunc("GET /v1/notifications/{id}", h.read(h.getNotification))

	mux.HandleFunc("GET /v1/statistics/water", h.read(h.waterStatistics))
	mux.HandleFunc("GET /v1/statistics/activities", h.read(h.activityStatistics))
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) read(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		if !claims.CanRead() {
			writeError(w, http.StatusForbidden, "forbidden", "scope "+auth.ScopeRead+" required")
			return
		}
		next(w, r)
	}
}

func (h *Handler) write(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		if !claims.HasScope(auth.ScopeWrite) {
			writeError(w, http.StatusForbidden, "forbidden", "scope "+auth.ScopeWrite+" required")
			return
		}
		next(w, r)
	}
}

// fail maps domain errors onto HTTP statuses. Unexpected errors are logged and hidden.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return domain.Invalid("unable to parse body: %v", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{
		"type":   code,
		"detail": detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// parseDate accepts YYYY-MM-DD or RFC 3339 timestamps.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.Invalid("%s must be a date (YYYY-MM-DD) or RFC 3339 timestamp", field)
	}
	return t.UTC(), nil
}

func optionalDate(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := parseDate(field, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryDate(r *http.Request, field string) (time.Time, error) {
	t, err := optionalDate(field, r.URL.Query().Get(field))
	if err != nil || t == nil {
		return time.Time{}, err
	}
	return *t, nil
}

func queryInt(r *http.Request, field string, fallback, max int) (int, error) {
	raw := r.URL.Query().Get(field)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, domain.Invalid("%s must be a positive integer", field)
	}
	if max > 0 && value > max {
		value = max
	}
	return value, nil
}

// endOfDay widens a date-only upper bound so that it includes the whole day.
func endOfDay(t time.Time) time.Time {
	if t.IsZero() || !t.Equal(t.Truncate(24*time.Hour)) {
		return t
	}
	return t.Add(24*time.Hour - time.Nanosecond)
}

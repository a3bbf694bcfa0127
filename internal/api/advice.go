package api

import (
	"net/http"
	"strings"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/statistics"
)

func (h *Handler) listRecommendations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.RecommendationFilter{
		Severity: domain.Severity(query.Get("severity")),
		Type:     domain.RecommendationType(query.Get("type")),
	}
	if intakeID := strings.TrimSpace(query.Get("intake_id")); intakeID != "" {
		filter.IntakeIDs = []string{intakeID}
	}
	var err error
	if filter.Limit, err = queryInt(r, "limit", 0, maxPageSize); err != nil {
		h.fail(w, r, err)
		return
	}

	recs, err := h.svc.Recommendations.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecommendationViews(recs))
}

func (h *Handler) getRecommendation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Recommendations.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecommendationViews([]domain.Recommendation{*rec})[0])
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	notifications, err := h.svc.Notifications.List(r.Context(), domain.NotificationFilter{
		RecommendationID: query.Get("recommendation_id"),
		Status:           query.Get("status"),
		Channel:          query.Get("channel"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items := make([]NotificationView, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, toNotificationView(n))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) getNotification(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Notifications.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationView(*n))
}

func (h *Handler) statisticsFilter(r *http.Request) (statistics.Filter, error) {
	filter := statistics.Filter{
		UserID:  r.URL.Query().Get("user_id"),
		GroupBy: r.URL.Query().Get("group_by"),
	}
	var err error
	if filter.From, err = queryDate(r, "from"); err != nil {
		return statistics.Filter{}, err
	}
	if filter.To, err = queryDate(r, "to"); err != nil {
		return statistics.Filter{}, err
	}
	return filter, nil
}

func (h *Handler) waterStatistics(w http.ResponseWriter, r *http.Request) {
	filter, err := h.statisticsFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats, err := h.svc.Statistics.Water(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWaterResponse(*stats))
}

func (h *Handler) activityStatistics(w http.ResponseWriter, r *http.Request) {
	filter, err := h.statisticsFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats, err := h.svc.Statistics.Activities(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityStatsResponse(*stats))
}

package api

import (
	"net/http"
	"strings"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/persistence"
	"example.com/hydration/internal/tracking"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (h *Handler) createIntake(w http.ResponseWriter, r *http.Request) {
	var req IntakeRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.DailyPlanID == nil || strings.TrimSpace(*req.DailyPlanID) == "" {
		h.fail(w, r, domain.Invalid("dailyplan_id is required"))
		return
	}
	input := tracking.CreateIntakeInput{DailyPlanID: *req.DailyPlanID, IntakeTime: req.IntakeTime}
	if req.VolumeMl != nil {
		input.VolumeMl = *req.VolumeMl
	}

	recorded, err := h.svc.Intakes.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, IntakeResponse{
		Intake:          toIntakeView(recorded.Intake),
		DailyPlan:       toPlanView(recorded.Plan),
		Recommendations: toRecommendationViews(recorded.Recommendations),
	})
}

func (h *Handler) listIntakes(w http.ResponseWriter, r *http.Request) {
	filter := domain.IntakeFilter{DailyPlanID: r.URL.Query().Get("dailyplan_id")}

	var err error
	if filter.From, err = queryDate(r, "from"); err != nil {
		h.fail(w, r, err)
		return
	}
	if filter.To, err = queryDate(r, "to"); err != nil {
		h.fail(w, r, err)
		return
	}
	filter.To = endOfDay(filter.To)
	if filter.Limit, err = queryInt(r, "limit", defaultPageSize, maxPageSize); err != nil {
		h.fail(w, r, err)
		return
	}
	if filter.Cursor, err = persistence.DecodeCursor(r.URL.Query().Get("cursor")); err != nil {
		h.fail(w, r, err)
		return
	}

	intakes, next, err := h.svc.Intakes.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items := make([]IntakeView, 0, len(intakes))
	for _, in := range intakes {
		items = append(items, toIntakeView(in))
	}
	writeJSON(w, http.StatusOK, ListIntakesResponse{Items: items, NextCursor: persistence.EncodeCursor(next)})
}

func (h *Handler) getIntake(w http.ResponseWriter, r *http.Request) {
	intake, err := h.svc.Intakes.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIntakeView(*intake))
}

func (h *Handler) updateIntake(w http.ResponseWriter, r *http.Request) {
	var req IntakeRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	intake, err := h.svc.Intakes.Update(r.Context(), r.PathValue("id"), tracking.IntakePatch{
		DailyPlanID: req.DailyPlanID,
		VolumeMl:    req.VolumeMl,
		IntakeTime:  req.IntakeTime,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIntakeView(*intake))
}

func (h *Handler) deleteIntake(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Intakes.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.DailyPlanID == nil || strings.TrimSpace(*req.DailyPlanID) == "" {
		h.fail(w, r, domain.Invalid("dailyplan_id is required"))
		return
	}
	patch := req.patch()
	input := tracking.CreateActivityInput{
		DailyPlanID: *req.DailyPlanID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		DurationMin: req.DurationMin,
	}
	if patch.ActivityType != nil {
		input.ActivityType = *patch.ActivityType
	}
	if patch.Intensity != nil {
		input.Intensity = *patch.Intensity
	}

	recorded, err := h.svc.Activities.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ActivityResponse{
		Activity:        toActivityView(recorded.Activity),
		DailyPlan:       toPlanView(recorded.Plan),
		Recommendations: toRecommendationViews(recorded.Recommendations),
	})
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	planID := strings.TrimSpace(r.URL.Query().Get("dailyplan_id"))
	if planID == "" {
		h.fail(w, r, domain.Invalid("missing dailyplan_id parameter"))
		return
	}
	activities, err := h.svc.Activities.ListByPlan(r.Context(), planID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items := make([]ActivityView, 0, len(activities))
	for _, a := range activities {
		items = append(items, toActivityView(a))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.svc.Activities.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	activity, err := h.svc.Activities.Update(r.Context(), r.PathValue("id"), req.patch())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Activities.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req ActivityRequest) patch() tracking.ActivityPatch {
	patch := tracking.ActivityPatch{
		DailyPlanID:  req.DailyPlanID,
		ActivityType: req.ActivityType,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		DurationMin:  req.DurationMin,
	}
	if req.Intensity != nil {
		intensity := domain.Intensity(*req.Intensity)
		patch.Intensity = &intensity
	}
	return patch
}

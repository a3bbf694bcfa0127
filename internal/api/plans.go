package api

import (
	"net/http"

	"example.com/hydration/internal/dailyplan"
	"example.com/hydration/internal/domain"
)

func (h *Handler) createPlan(w http.ResponseWriter, r *http.Request) {
	var req DailyPlanRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.UserID == nil || *req.UserID == "" {
		h.fail(w, r, domain.Invalid("user_id is required"))
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	plan, err := h.svc.Plans.CreateManual(r.Context(), dailyplan.CreateInput{
		UserID:          *req.UserID,
		Date:            patch.Date,
		TargetMl:        patch.TargetMl,
		TotalIntakeMl:   patch.TotalIntakeMl,
		DeviationMl:     patch.DeviationMl,
		AmountOfIntakes: patch.AmountOfIntakes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanView(*plan))
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	filter := domain.PlanFilter{UserID: r.URL.Query().Get("user_id")}

	day, err := queryDate(r, "date")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !day.IsZero() {
		filter.From, filter.To = day, day
	} else {
		if filter.From, err = queryDate(r, "from"); err != nil {
			h.fail(w, r, err)
			return
		}
		if filter.To, err = queryDate(r, "to"); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	plans, err := h.svc.Plans.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanViews(plans))
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.svc.Plans.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanView(*plan))
}

func (h *Handler) updatePlan(w http.ResponseWriter, r *http.Request) {
	var req DailyPlanRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	plan, err := h.svc.Plans.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanView(*plan))
}

func (h *Handler) deletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Plans.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) planFeed(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Recommendations.Feed(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecommendationViews(recs))
}

func (req DailyPlanRequest) patch() (dailyplan.Patch, error) {
	patch := dailyplan.Patch{
		UserID:          req.UserID,
		TargetMl:        req.Target,
		TotalIntakeMl:   req.TotalIntakeMl,
		DeviationMl:     req.DeviationMl,
		AmountOfIntakes: req.AmountOfIntakes,
	}
	if req.Date != nil {
		date, err := parseDate("date", *req.Date)
		if err != nil {
			return dailyplan.Patch{}, err
		}
		patch.Date = &date
	}
	return patch, nil
}

package api

import (
	"net/http"
	"strings"

	"example.com/hydration/internal/domain"
	"example.com/hydration/internal/tracking"
)

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.svc.Users.Create(r.Context(), tracking.CreateUserInput{Email: req.Email, Role: req.Role, Status: req.Status})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserView(*user))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(*user))
}

func (h *Handler) createProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.UserID == nil || strings.TrimSpace(*req.UserID) == "" {
		h.fail(w, r, domain.Invalid("user_id is required"))
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	input := tracking.CreateProfileInput{
		UserID:      *req.UserID,
		WeightKg:    patch.WeightKg,
		DateOfBirth: patch.DateOfBirth,
	}
	if patch.ActivityLevel != nil {
		input.ActivityLevel = *patch.ActivityLevel
	}
	if patch.GoalType != nil {
		input.GoalType = *patch.GoalType
	}

	saved, err := h.svc.Profiles.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileResponse(saved))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	saved, err := h.svc.Profiles.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(saved))
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Profiles.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(*profile))
}

func (h *Handler) findProfile(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		h.fail(w, r, domain.Invalid("missing user_id parameter"))
		return
	}
	profile, err := h.svc.Profiles.GetByUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(*profile))
}

func (req ProfileRequest) patch() (tracking.ProfilePatch, error) {
	patch := tracking.ProfilePatch{UserID: req.UserID, WeightKg: req.Weight}
	if req.ActivityLevel != nil {
		level := domain.ActivityLevel(*req.ActivityLevel)
		patch.ActivityLevel = &level
	}
	if req.GoalType != nil {
		goal := domain.GoalType(*req.GoalType)
		patch.GoalType = &goal
	}
	if req.DateOfBirth != nil {
		dob, err := parseDate("date_of_birth", *req.DateOfBirth)
		if err != nil {
			return tracking.ProfilePatch{}, err
		}
		patch.DateOfBirth = &dob
	}
	return patch, nil
}

func toProfileResponse(saved *tracking.ProfileSaved) ProfileResponse {
	resp := ProfileResponse{Profile: toProfileView(saved.Profile)}
	if saved.Plan != nil {
		plan := toPlanView(*saved.Plan)
		resp.DailyPlan = &plan
	}
	return resp
}

package handler

import (
	"net/http"

	"agri-ledger/internal/models"
	"agri-ledger/internal/validation"
)

// RegisterFarmer handles POST /farmers
func (h *Handler) RegisterFarmer(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterFarmerRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.FirstName = validation.SanitizeString(req.FirstName)
	req.LastName = validation.SanitizeString(req.LastName)
	req.IdentificationNumber = validation.SanitizeString(req.IdentificationNumber)
	req.PhoneNumber = validation.SanitizeString(req.PhoneNumber)
	req.StateOfResidence = validation.SanitizeString(req.StateOfResidence)

	f, err := h.service.RegisterFarmer(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, f)
}

// ListFarmers handles GET /farmers?limit=&offset=
func (h *Handler) ListFarmers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	farmers, err := h.service.ListFarmers(r.Context(), limit, offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, farmers)
}

// GetFarmer handles GET /farmers/{farmer_id}
func (h *Handler) GetFarmer(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.GetFarmer(r.Context(), pathID(r, "farmer_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, f)
}

// DeleteFarmer handles DELETE /farmers/{farmer_id}
func (h *Handler) DeleteFarmer(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFarmer(r.Context(), pathID(r, "farmer_id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetBlacklisted handles PUT /farmers/{farmer_id}/blacklist
func (h *Handler) SetBlacklisted(w http.ResponseWriter, r *http.Request) {
	var req models.BlacklistRequest
	if !h.decode(w, r, &req) {
		return
	}

	f, err := h.service.SetBlacklisted(r.Context(), pathID(r, "farmer_id"), req.Blacklisted)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, f)
}

// FarmerStanding handles GET /farmers/{farmer_id}/standing
func (h *Handler) FarmerStanding(w http.ResponseWriter, r *http.Request) {
	standing, err := h.service.FarmerStanding(r.Context(), pathID(r, "farmer_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, standing)
}

// FarmerPoints handles GET /farmers/{farmer_id}/points
func (h *Handler) FarmerPoints(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.FarmerPoints(r.Context(), pathID(r, "farmer_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

// FarmerBadges handles GET /farmers/{farmer_id}/badges
func (h *Handler) FarmerBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.service.FarmerBadges(r.Context(), pathID(r, "farmer_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, badges)
}

// RecomputeVerification handles POST /farmers/{farmer_id}/verification
func (h *Handler) RecomputeVerification(w http.ResponseWriter, r *http.Request) {
	farmerID := pathID(r, "farmer_id")
	verified, err := h.service.RecomputeVerification(r.Context(), farmerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.VerificationResponse{FarmerID: farmerID, IsVerified: verified})
}

// CheckEligibility handles GET /farmers/{farmer_id}/eligibility/{program_id}. An
// ineligible farmer is a normal 200 answer here; only redemption refuses with 403.
func (h *Handler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.CheckEligibility(r.Context(), pathID(r, "farmer_id"), pathID(r, "program_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

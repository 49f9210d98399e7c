package handler

import (
	"net/http"
	"strconv"

	"agri-ledger/internal/database"
	"agri-ledger/internal/models"
	"agri-ledger/internal/validation"
)

// CreateProgram handles POST /programs
func (h *Handler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProgramRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.Title = validation.SanitizeString(req.Title)
	req.Slug = validation.SanitizeString(req.Slug)
	req.Sponsor = validation.SanitizeString(req.Sponsor)
	req.State = validation.SanitizeString(req.State)

	p, err := h.service.CreateProgram(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, p)
}

// ListPrograms handles GET /programs?active=true
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := validation.SanitizeString(r.URL.Query().Get("active")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid 'active' parameter, must be a boolean")
			return
		}
		activeOnly = parsed
	}

	programs, err := h.service.ListPrograms(r.Context(), activeOnly)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, programs)
}

// GetProgram handles GET /programs/{program_id}
func (h *Handler) GetProgram(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProgram(r.Context(), pathID(r, "program_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, p)
}

// ProgramSummary handles GET /programs/{program_id}/summary
func (h *Handler) ProgramSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ProgramSummary(r.Context(), pathID(r, "program_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, summary)
}

// SetRate handles PUT /programs/{program_id}/rates/{item_id}
func (h *Handler) SetRate(w http.ResponseWriter, r *http.Request) {
	var req models.SetRateRequest
	if !h.decode(w, r, &req) {
		return
	}

	rate, err := h.service.SetRate(r.Context(), pathID(r, "program_id"), pathID(r, "item_id"), req.Rate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, rate)
}

// ClearRate handles DELETE /programs/{program_id}/rates/{item_id}
func (h *Handler) ClearRate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearRate(r.Context(), pathID(r, "program_id"), pathID(r, "item_id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateItem handles POST /items
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.Name = validation.SanitizeString(req.Name)
	req.Unit = validation.SanitizeString(req.Unit)

	item, err := h.service.CreateItem(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, item)
}

// ListItems handles GET /items?kind=
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	kind := models.ItemKind(validation.SanitizeString(r.URL.Query().Get("kind")))
	if kind != "" && !kind.Valid() {
		h.respondError(w, http.StatusBadRequest, "invalid 'kind' parameter")
		return
	}

	items, err := h.service.ListItems(r.Context(), kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, items)
}

// GetItem handles GET /items/{item_id}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), pathID(r, "item_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, item)
}

// UpdateItemPrice handles PUT /items/{item_id}/price
func (h *Handler) UpdateItemPrice(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateItemPriceRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.service.UpdateItemPrice(r.Context(), pathID(r, "item_id"), req.Price)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, item)
}

// PriceHistory handles GET /items/{item_id}/price-history
func (h *Handler) PriceHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.PriceHistory(r.Context(), pathID(r, "item_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, history)
}

// PriceRedemption handles POST /redemptions
func (h *Handler) PriceRedemption(w http.ResponseWriter, r *http.Request) {
	var req models.RedemptionRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.FarmerID = validation.SanitizeString(req.FarmerID)
	req.ItemID = validation.SanitizeString(req.ItemID)
	req.ProgramID = validation.SanitizeString(req.ProgramID)
	req.RedemptionLocation = validation.SanitizeString(req.RedemptionLocation)

	inst, err := h.service.PriceRedemption(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, inst)
}

// ListRedemptions handles GET /redemptions?program_id=&farmer_id=
func (h *Handler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	instances, err := h.service.ListRedemptions(r.Context(), subsidyFilter(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, instances)
}

// SubsidyTotals handles GET /subsidy-totals?program_id=&farmer_id=
func (h *Handler) SubsidyTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.SubsidyTotals(r.Context(), subsidyFilter(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, totals)
}

func subsidyFilter(r *http.Request) database.SubsidyFilter {
	q := r.URL.Query()
	return database.SubsidyFilter{
		ProgramID: validation.SanitizeString(q.Get("program_id")),
		FarmerID:  validation.SanitizeString(q.Get("farmer_id")),
	}
}

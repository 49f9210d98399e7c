package handler

import (
	"net/http"

	"agri-ledger/internal/models"
	"agri-ledger/internal/validation"
)

// CreateMarket handles POST /markets
func (h *Handler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMarketRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.Name = validation.SanitizeString(req.Name)
	req.State = validation.SanitizeString(req.State)

	m, err := h.service.CreateMarket(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, m)
}

// GetMarket handles GET /markets/{market_id}
func (h *Handler) GetMarket(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.GetMarket(r.Context(), pathID(r, "market_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, m)
}

// NextMarketDay handles GET /markets/{market_id}/next-market-day
func (h *Handler) NextMarketDay(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.NextMarketDay(r.Context(), pathID(r, "market_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// MarketPoints handles GET /markets/{market_id}/points
func (h *Handler) MarketPoints(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.MarketPoints(r.Context(), pathID(r, "market_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

// ProducePrices handles GET /markets/{market_id}/prices?date=
func (h *Handler) ProducePrices(w http.ResponseWriter, r *http.Request) {
	day, err := queryDate(r, "date")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	prices, err := h.service.ProducePrices(r.Context(), pathID(r, "market_id"), day)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, prices)
}

// RecordProducePrice handles POST /produce-prices
func (h *Handler) RecordProducePrice(w http.ResponseWriter, r *http.Request) {
	var req models.ProducePriceRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.MarketID = validation.SanitizeString(req.MarketID)
	req.ProduceID = validation.SanitizeString(req.ProduceID)

	p, err := h.service.RecordProducePrice(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, p)
}

// CreateVendor handles POST /vendors
func (h *Handler) CreateVendor(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVendorRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.Name = validation.SanitizeString(req.Name)
	req.State = validation.SanitizeString(req.State)

	v, err := h.service.CreateVendor(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, v)
}

// GetVendor handles GET /vendors/{vendor_id}
func (h *Handler) GetVendor(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.GetVendor(r.Context(), pathID(r, "vendor_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, v)
}

// CreateProduce handles POST /produce
func (h *Handler) CreateProduce(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProduceRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.Name = validation.SanitizeString(req.Name)
	req.Unit = validation.SanitizeString(req.Unit)

	p, err := h.service.CreateProduce(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, p)
}

// CreateBadge handles POST /badges
func (h *Handler) CreateBadge(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBadgeRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.Name = validation.SanitizeString(req.Name)

	b, err := h.service.CreateBadge(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, b)
}

// GetProduce handles GET /produce/{produce_id}
func (h *Handler) GetProduce(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduce(r.Context(), pathID(r, "produce_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, p)
}

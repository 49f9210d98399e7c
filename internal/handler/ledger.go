package handler

import (
	"net/http"

	"agri-ledger/internal/database"
	"agri-ledger/internal/models"
	"agri-ledger/internal/validation"
)

// RecordMarketSale handles POST /market-sales
func (h *Handler) RecordMarketSale(w http.ResponseWriter, r *http.Request) {
	var req models.MarketSaleRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.FarmerID = validation.SanitizeString(req.FarmerID)
	req.MarketID = validation.SanitizeString(req.MarketID)
	req.ProduceID = validation.SanitizeString(req.ProduceID)

	tx, err := h.service.RecordMarketSale(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, tx)
}

// RecordInputPurchase handles POST /input-purchases
func (h *Handler) RecordInputPurchase(w http.ResponseWriter, r *http.Request) {
	var req models.InputPurchaseRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.FarmerID = validation.SanitizeString(req.FarmerID)
	req.VendorID = validation.SanitizeString(req.VendorID)
	req.ReceiptNumber = validation.SanitizeString(req.ReceiptNumber)

	tx, err := h.service.RecordInputPurchase(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, tx)
}

// DeleteMarketSale handles DELETE /market-sales/{transaction_id}
func (h *Handler) DeleteMarketSale(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMarketSale(r.Context(), pathID(r, "transaction_id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteInputPurchase handles DELETE /input-purchases/{transaction_id}
func (h *Handler) DeleteInputPurchase(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteInputPurchase(r.Context(), pathID(r, "transaction_id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMarketSales handles GET /market-sales?farmer_id=&market_id=&from=&to=
func (h *Handler) ListMarketSales(w http.ResponseWriter, r *http.Request) {
	filter, err := ledgerFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sales, err := h.service.ListMarketSales(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, sales)
}

// ListInputPurchases handles GET /input-purchases?farmer_id=&from=&to=
func (h *Handler) ListInputPurchases(w http.ResponseWriter, r *http.Request) {
	filter, err := ledgerFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	purchases, err := h.service.ListInputPurchases(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, purchases)
}

func ledgerFilter(r *http.Request) (database.LedgerFilter, error) {
	q := r.URL.Query()
	filter := database.LedgerFilter{
		FarmerID: validation.SanitizeString(q.Get("farmer_id")),
		MarketID: validation.SanitizeString(q.Get("market_id")),
	}
	if filter.FarmerID != "" {
		if err := validation.ValidateUUID(filter.FarmerID, "farmer_id"); err != nil {
			return filter, err
		}
	}
	if filter.MarketID != "" {
		if err := validation.ValidateUUID(filter.MarketID, "market_id"); err != nil {
			return filter, err
		}
	}

	var err error
	if filter.From, err = queryDate(r, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryDate(r, "to"); err != nil {
		return filter, err
	}
	return filter, nil
}

package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"agri-ledger/internal/models"
	"agri-ledger/internal/sentinel"
	"agri-ledger/internal/service"
	"agri-ledger/internal/validation"
)

// Handler provides HTTP handlers for the API.
type Handler struct {
	service     *service.Service
	maxBodySize int64
	logger      *slog.Logger
}

// NewHandlerOptions holds options for creating a handler.
type NewHandlerOptions struct {
	MaxBodySize int64
	Logger      *slog.Logger
}

// DefaultHandlerOptions returns default handler options.
func DefaultHandlerOptions() NewHandlerOptions {
	return NewHandlerOptions{
		MaxBodySize: 1 << 20,
	}
}

// NewHandler creates a new handler instance.
func NewHandler(svc *service.Service) *Handler {
	return NewHandlerWithOptions(svc, DefaultHandlerOptions())
}

// NewHandlerWithOptions creates a new handler instance with custom options.
func NewHandlerWithOptions(svc *service.Service, opts NewHandlerOptions) *Handler {
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultHandlerOptions().MaxBodySize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		service:     svc,
		maxBodySize: opts.MaxBodySize,
		logger:      logger,
	}
}

// Routes mounts every API route on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/farmers", func(r chi.Router) {
		r.Post("/", h.RegisterFarmer)
		r.Get("/", h.ListFarmers)
		r.Route("/{farmer_id}", func(r chi.Router) {
			r.Get("/", h.GetFarmer)
			r.Delete("/", h.DeleteFarmer)
			r.Put("/blacklist", h.SetBlacklisted)
			r.Get("/standing", h.FarmerStanding)
			r.Get("/points", h.FarmerPoints)
			r.Get("/badges", h.FarmerBadges)
			r.Post("/verification", h.RecomputeVerification)
			r.Get("/eligibility/{program_id}", h.CheckEligibility)
		})
	})

	r.Route("/markets", func(r chi.Router) {
		r.Post("/", h.CreateMarket)
		r.Route("/{market_id}", func(r chi.Router) {
			r.Get("/", h.GetMarket)
			r.Get("/next-market-day", h.NextMarketDay)
			r.Get("/points", h.MarketPoints)
			r.Get("/prices", h.ProducePrices)
		})
	})
	r.Post("/vendors", h.CreateVendor)
	r.Get("/vendors/{vendor_id}", h.GetVendor)
	r.Post("/produce", h.CreateProduce)
	r.Get("/produce/{produce_id}", h.GetProduce)
	r.Post("/produce-prices", h.RecordProducePrice)
	r.Post("/badges", h.CreateBadge)

	r.Route("/market-sales", func(r chi.Router) {
		r.Post("/", h.RecordMarketSale)
		r.Get("/", h.ListMarketSales)
		r.Delete("/{transaction_id}", h.DeleteMarketSale)
	})
	r.Route("/input-purchases", func(r chi.Router) {
		r.Post("/", h.RecordInputPurchase)
		r.Get("/", h.ListInputPurchases)
		r.Delete("/{transaction_id}", h.DeleteInputPurchase)
	})

	r.Route("/programs", func(r chi.Router) {
		r.Post("/", h.CreateProgram)
		r.Get("/", h.ListPrograms)
		r.Route("/{program_id}", func(r chi.Router) {
			r.Get("/", h.GetProgram)
			r.Get("/summary", h.ProgramSummary)
			r.Put("/rates/{item_id}", h.SetRate)
			r.Delete("/rates/{item_id}", h.ClearRate)
		})
	})
	r.Route("/items", func(r chi.Router) {
		r.Post("/", h.CreateItem)
		r.Get("/", h.ListItems)
		r.Route("/{item_id}", func(r chi.Router) {
			r.Get("/", h.GetItem)
			r.Put("/price", h.UpdateItemPrice)
			r.Get("/price-history", h.PriceHistory)
		})
	})
	r.Route("/redemptions", func(r chi.Router) {
		r.Post("/", h.PriceRedemption)
		r.Get("/", h.ListRedemptions)
	})
	r.Get("/subsidy-totals", h.SubsidyTotals)
}

// decode reads a JSON body into dst. It writes the error response itself and reports
// whether the caller should continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			h.respondError(w, http.StatusBadRequest, "request body is required")
		case errors.As(err, &tooLarge):
			h.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		default:
			h.respondError(w, http.StatusBadRequest, "invalid JSON in request body")
		}
		return false
	}
	return true
}

func pathID(r *http.Request, name string) string {
	return validation.SanitizeString(chi.URLParam(r, name))
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := validation.SanitizeString(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &validation.ValidationError{Field: name, Message: "must be a non-negative integer"}
	}
	return n, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string) (models.Date, error) {
	raw := validation.SanitizeString(r.URL.Query().Get(name))
	if raw == "" {
		return models.Date{}, nil
	}
	return validation.ValidateDateString(raw, name)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var verr *validation.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, sentinel.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sentinel.ErrNotEligible):
		return http.StatusForbidden
	case errors.Is(err, sentinel.ErrDuplicateTransaction),
		errors.Is(err, sentinel.ErrDuplicateReceipt),
		errors.Is(err, sentinel.ErrDuplicateRedemption),
		errors.Is(err, sentinel.ErrDuplicateFarmer),
		errors.Is(err, sentinel.ErrDuplicatePrice),
		errors.Is(err, sentinel.ErrDuplicateCatalog),
		errors.Is(err, sentinel.ErrReferenced):
		return http.StatusConflict
	case errors.Is(err, sentinel.ErrInvalidRate),
		errors.Is(err, sentinel.ErrProgramClosed),
		errors.Is(err, sentinel.ErrBudgetExceeded):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the response for a service error. Internal errors are logged and hidden
// from the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		h.respondError(w, status, "internal server error")
		return
	}
	h.respondError(w, status, err.Error())
}

// respondJSON sends a JSON response with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response with the given status code and message.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storefrontlab/cart-service/internal/domain"
	"github.com/storefrontlab/cart-service/internal/service"
	"github.com/storefrontlab/cart-service/pkg/httputil"
	"github.com/storefrontlab/cart-service/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding an item to a cart.
type AddItemRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// UpdateQuantityRequest is the JSON request body for changing a line's quantity.
// No lower bound here: values below 1 are floored to 1, not rejected.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// --- Response bodies ---

type cartListResponse struct {
	Cart []domain.CartView `json:"cart"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Handlers ---

// ListCart handles GET /api/v1/cart/{userId}
func (h *CartHandler) ListCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	views, err := h.service.ListCart(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, cartListResponse{Cart: views})
}

// AddItem handles POST /api/v1/cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorEnvelope{
			Error: &httputil.ErrorBody{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.AddItem(r.Context(), req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, view)
}

// UpdateQuantity handles PATCH /api/v1/cart/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	id := chi.URLParam(r, "id")

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorEnvelope{
			Error: &httputil.ErrorBody{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	view, err := h.service.UpdateQuantity(r.Context(), id, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/v1/cart/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.RemoveItem(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Item removed"})
}

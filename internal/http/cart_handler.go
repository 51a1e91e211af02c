package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/middleware"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (cart.CartView, error)
	AddToCart(ctx context.Context, userID string, productID int64, quantity cart.RawQuantity) (cart.CartItemView, bool, error)
	UpdateItem(ctx context.Context, userID string, itemID int64, quantity cart.RawQuantity) (cart.CartItemView, error)
	RemoveItem(ctx context.Context, userID string, itemID int64) error
	ClearCart(ctx context.Context, userID string) error
}

const maxBodyBytes = 1 << 16

type CartHandler struct {
	svc     CartService
	timeout time.Duration
	logger  *slog.Logger
}

func NewCartHandler(svc CartService, timeout time.Duration, logger *slog.Logger) *CartHandler {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CartHandler{svc: svc, timeout: timeout, logger: logger}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.svc.GetCart(ctx, middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var body addToCartRequest
	if !decodeBody(w, r, &body) {
		return
	}

	productID, err := parseProductID(body.ProductID)
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	item, created, err := h.svc.AddToCart(ctx, middleware.GetUserID(r.Context()), productID, rawQuantity(body.Quantity))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, item)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(chi.URLParam(r, "itemID"))
	if !ok {
		writeError(w, http.StatusNotFound, "cart item not found in your cart")
		return
	}

	var body updateItemRequest
	if !decodeBody(w, r, &body) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	item, err := h.svc.UpdateItem(ctx, middleware.GetUserID(r.Context()), itemID, rawQuantity(body.Quantity))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(chi.URLParam(r, "itemID"))
	if !ok {
		writeError(w, http.StatusNotFound, "cart item not found in your cart")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.svc.RemoveItem(ctx, middleware.GetUserID(r.Context()), itemID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.svc.ClearCart(ctx, middleware.GetUserID(r.Context())); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeBody reads a JSON object. An empty body decodes to the zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func (h *CartHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var cerr *cart.Error
	if errors.As(err, &cerr) {
		switch {
		case errors.Is(cerr, cart.ErrNotFound):
			writeError(w, http.StatusNotFound, cerr.Message)
		case errors.Is(cerr, cart.ErrInvalidInput), errors.Is(cerr, cart.ErrInvalidQuantity):
			writeError(w, http.StatusBadRequest, cerr.Message)
		case errors.Is(cerr, cart.ErrUnauthenticated):
			writeError(w, http.StatusUnauthorized, cerr.Message)
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		h.logger.WarnContext(r.Context(), "cart request timed out",
			"path", r.URL.Path,
			"correlation_id", middleware.GetCorrelationID(r.Context()),
		)
		writeError(w, http.StatusServiceUnavailable, "request timed out")
		return
	}

	h.logger.ErrorContext(r.Context(), "cart request failed",
		"path", r.URL.Path,
		"error", err,
		"correlation_id", middleware.GetCorrelationID(r.Context()),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}

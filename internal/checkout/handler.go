package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/web"
)

type Placer interface {
	Checkout(ctx context.Context, p domain.Principal, lines []domain.CartLine) (*domain.Order, error)
	BuyNow(ctx context.Context, p domain.Principal, productID string, quantity int, price decimal.Decimal) (*domain.Order, error)
}

type Handler struct {
	placer   Placer
	products cart.ProductLookup
	cookies  cart.Cookies
	logger   *slog.Logger
}

func NewHandler(placer Placer, products cart.ProductLookup, cookies cart.Cookies, logger *slog.Logger) *Handler {
	return &Handler{
		placer:   placer,
		products: products,
		cookies:  cookies,
		logger:   logger,
	}
}

// HandleCheckout orders the contents of the cart cookie. The cart is cleared
// only once the order exists; a lost response leaves it intact.
func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	store := h.cookies.Open(w, r, h.logger)
	p := auth.PrincipalFrom(r.Context())

	order, err := h.placer.Checkout(r.Context(), p, store.Lines())
	if err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}

	if err := store.Clear(); err != nil {
		h.logger.Error("failed to clear cart after checkout", "error", err, "order_id", order.ID)
	}

	web.WriteJSON(w, h.logger, http.StatusCreated, order)
}

type buyNowRequest struct {
	Quantity int `json:"quantity"`
}

// HandleBuyNow orders one product at its current price, quantity 1 unless
// the body asks for more. The cart is left alone.
func (h *Handler) HandleBuyNow(w http.ResponseWriter, r *http.Request) {
	var req buyNowRequest
	if err := web.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		web.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	id := r.PathValue("id")
	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}
	if product == nil {
		web.WriteError(w, h.logger, http.StatusNotFound, "product not found")
		return
	}

	order, err := h.placer.BuyNow(r.Context(), auth.PrincipalFrom(r.Context()), product.ID, req.Quantity, product.Price)
	if err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}

	web.WriteJSON(w, h.logger, http.StatusCreated, order)
}

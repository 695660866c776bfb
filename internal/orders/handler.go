package orders

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/web"
)

type HistoryReader interface {
	ListByCustomer(ctx context.Context, email string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

type Handler struct {
	repo   HistoryReader
	logger *slog.Logger
}

func NewHandler(repo HistoryReader, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// HandleListMine lists the signed-in customer's orders. Route it behind
// auth.RequireAuthenticated.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())

	orders, err := h.repo.ListByCustomer(r.Context(), p.Email)
	if err != nil {
		h.logger.Error("failed to list customer orders", "error", err, "customer_email", p.Email)
		web.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("customer orders listed", "customer_email", p.Email, "count", len(orders))
	web.WriteJSON(w, h.logger, http.StatusOK, orders)
}

// HandleListAll lists every order. Route it behind an ADMIN/SUPER_ADMIN guard.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		web.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("orders listed", "count", len(orders))
	web.WriteJSON(w, h.logger, http.StatusOK, orders)
}

// HandleGet returns one order to its customer or to staff. Other callers get
// 404 so order ids cannot be discovered.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	id := r.PathValue("id")

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "order_id", id)
		web.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil || (!p.Role.Staff() && !strings.EqualFold(order.CustomerEmail, p.Email)) {
		web.WriteError(w, h.logger, http.StatusNotFound, "order not found")
		return
	}

	web.WriteJSON(w, h.logger, http.StatusOK, order)
}

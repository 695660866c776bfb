package catalog

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/web"
)

type Reader interface {
	ListAvailable(ctx context.Context) ([]domain.Product, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type Handler struct {
	reader Reader
	logger *slog.Logger
}

func NewHandler(reader Reader, logger *slog.Logger) *Handler {
	return &Handler{
		reader: reader,
		logger: logger,
	}
}

func (h *Handler) HandleListAvailable(w http.ResponseWriter, r *http.Request) {
	products, err := h.reader.ListAvailable(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		web.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("products listed", "count", len(products))
	web.WriteJSON(w, h.logger, http.StatusOK, products)
}

// HandleListAll backs the back-office product table, out-of-stock included.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.reader.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list all products", "error", err)
		web.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	web.WriteJSON(w, h.logger, http.StatusOK, products)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		web.WriteError(w, h.logger, http.StatusBadRequest, "missing product id")
		return
	}

	product, err := h.reader.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "id", id)
		web.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	if product == nil {
		web.WriteError(w, h.logger, http.StatusNotFound, "product not found")
		return
	}

	web.WriteJSON(w, h.logger, http.StatusOK, product)
}

func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.reader.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", "error", err)
		web.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	web.WriteJSON(w, h.logger, http.StatusOK, categories)
}

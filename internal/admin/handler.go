package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/imagehost"
	"github.com/joao-fontenele/storefront/internal/web"
)

const maxImageSize = 10 << 20

type Products interface {
	CreateProduct(ctx context.Context, actor domain.Principal, in ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, actor domain.Principal, id string, in ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, actor domain.Principal, id string) error
}

type StatsReader interface {
	Stats(ctx context.Context) (domain.StoreStats, error)
	CategoryRevenue(ctx context.Context) ([]domain.ChartPoint, error)
}

type ImageUploader interface {
	Upload(ctx context.Context, filename string, file io.Reader) (string, error)
}

type Handler struct {
	products Products
	stats    StatsReader
	images   ImageUploader
	logger   *slog.Logger
}

func NewHandler(products Products, stats StatsReader, images ImageUploader, logger *slog.Logger) *Handler {
	return &Handler{
		products: products,
		stats:    stats,
		images:   images,
		logger:   logger,
	}
}

func (h *Handler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := web.DecodeJSON(r, &in); err != nil {
		web.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.products.CreateProduct(r.Context(), auth.PrincipalFrom(r.Context()), in)
	if err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}
	web.WriteJSON(w, h.logger, http.StatusCreated, p)
}

func (h *Handler) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := web.DecodeJSON(r, &in); err != nil {
		web.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.products.UpdateProduct(r.Context(), auth.PrincipalFrom(r.Context()), r.PathValue("id"), in)
	if err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}
	web.WriteJSON(w, h.logger, http.StatusOK, p)
}

func (h *Handler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.DeleteProduct(r.Context(), auth.PrincipalFrom(r.Context()), r.PathValue("id")); err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dashboardResponse struct {
	Stats             domain.StoreStats   `json:"stats"`
	RevenueByCategory []domain.ChartPoint `json:"revenue_by_category"`
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to load dashboard stats", "error", err)
		web.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	points, err := h.stats.CategoryRevenue(r.Context())
	if err != nil {
		h.logger.Error("failed to load category revenue", "error", err)
		web.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	web.WriteJSON(w, h.logger, http.StatusOK, dashboardResponse{Stats: stats, RevenueByCategory: points})
}

// HandleUploadImage forwards the multipart "file" to the image host and
// returns its public URL for use in a product's image list.
func (h *Handler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		web.WriteError(w, h.logger, http.StatusBadRequest, "missing file")
		return
	}
	defer func() { _ = file.Close() }()

	url, err := h.images.Upload(r.Context(), header.Filename, file)
	if errors.Is(err, imagehost.ErrNotConfigured) {
		web.WriteError(w, h.logger, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to upload image", "error", err, "filename", header.Filename)
		web.WriteError(w, h.logger, http.StatusBadGateway, "image upload failed")
		return
	}

	h.logger.Info("image uploaded", "url", url)
	web.WriteJSON(w, h.logger, http.StatusCreated, map[string]string{"url": url})
}

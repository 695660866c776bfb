package cart

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/web"
)

type ProductLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Cookies opens request-scoped stores backed by the cart cookies. Secret
// signs the stored lines so a hand-edited cookie reads as corrupt.
type Cookies struct {
	Key    string
	Secret []byte
	MaxAge time.Duration
	Secure bool
}

// Open returns the hydrated cart for r. Corrupt cookie contents are logged
// and replaced by an empty cart.
func (c Cookies) Open(w http.ResponseWriter, r *http.Request, logger *slog.Logger) *Store {
	store := NewStore(NewCookieStorage(w, r, c), c.Key)
	if err := store.Hydrate(); err != nil {
		logger.Warn("discarding unreadable cart", "error", err)
	}
	return store
}

type Handler struct {
	products ProductLookup
	cookies  Cookies
	logger   *slog.Logger
}

func NewHandler(products ProductLookup, cookies Cookies, logger *slog.Logger) *Handler {
	return &Handler{
		products: products,
		cookies:  cookies,
		logger:   logger,
	}
}

type View struct {
	Lines []domain.CartLine `json:"lines"`
	Count int               `json:"count"`
	Total decimal.Decimal   `json:"total"`
}

func ViewOf(s *Store) View {
	return View{Lines: s.Lines(), Count: s.Count(), Total: s.Total()}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	store := h.cookies.Open(w, r, h.logger)
	web.WriteJSON(w, h.logger, http.StatusOK, ViewOf(store))
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := web.DecodeJSON(r, &req); err != nil || req.ProductID == "" {
		web.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}
	if product == nil {
		web.WriteError(w, h.logger, http.StatusNotFound, "product not found")
		return
	}

	store := h.cookies.Open(w, r, h.logger)
	err = store.AddItem(domain.CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Image:     product.FirstImage(),
		Quantity:  1,
	})
	h.respond(w, store, err)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	store := h.cookies.Open(w, r, h.logger)
	h.respond(w, store, store.UpdateQuantity(r.PathValue("productId"), req.Quantity))
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	store := h.cookies.Open(w, r, h.logger)
	h.respond(w, store, store.RemoveItem(r.PathValue("productId")))
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	store := h.cookies.Open(w, r, h.logger)
	h.respond(w, store, store.Clear())
}

func (h *Handler) respond(w http.ResponseWriter, store *Store, err error) {
	if errors.Is(err, ErrCartTooLarge) {
		web.WriteError(w, h.logger, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}
	web.WriteJSON(w, h.logger, http.StatusOK, ViewOf(store))
}

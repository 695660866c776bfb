// Package checkout turns cart lines into a completed order and takes the
// purchased quantities out of stock.
package checkout

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/database"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const DefaultGuestEmail = "guest@example.com"

var tracer = otel.Tracer("storefront/checkout")

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Service struct {
	db             *sql.DB
	publisher      Publisher
	metrics        *telemetry.CheckoutMetrics
	logger         *slog.Logger
	guestEmail     string
	rejectOversell bool
	now            func() time.Time
}

type Option func(*Service)

// WithPublisher announces completed orders. Without it nothing is published.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithGuestEmail(email string) Option {
	return func(s *Service) {
		if email != "" {
			s.guestEmail = email
		}
	}
}

// WithOversellGuard aborts checkout with domain.ErrInsufficientStock instead
// of letting stock go negative.
func WithOversellGuard(enabled bool) Option {
	return func(s *Service) { s.rejectOversell = enabled }
}

func NewService(db *sql.DB, logger *slog.Logger, opts ...Option) (*Service, error) {
	metrics, err := telemetry.NewCheckoutMetrics(otel.Meter("storefront/checkout"))
	if err != nil {
		return nil, fmt.Errorf("create checkout metrics: %w", err)
	}

	s := &Service{
		db:         db,
		metrics:    metrics,
		logger:     logger,
		guestEmail: DefaultGuestEmail,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Checkout places one order for all lines.
func (s *Service) Checkout(ctx context.Context, p domain.Principal, lines []domain.CartLine) (*domain.Order, error) {
	return s.place(ctx, p, lines, "cart")
}

// BuyNow places a single-item order at the given price.
func (s *Service) BuyNow(ctx context.Context, p domain.Principal, productID string, quantity int, price decimal.Decimal) (*domain.Order, error) {
	line := domain.CartLine{ProductID: productID, Price: price, Quantity: quantity}
	return s.place(ctx, p, []domain.CartLine{line}, "buy_now")
}

// CustomerEmail is the address an order is filed under: the principal's, or
// the guest placeholder for anonymous shoppers.
func (s *Service) CustomerEmail(p domain.Principal) string {
	if p.Authenticated() && p.Email != "" {
		return p.Email
	}
	return s.guestEmail
}

func (s *Service) place(ctx context.Context, p domain.Principal, lines []domain.CartLine, source string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "checkout "+source,
		trace.WithAttributes(
			attribute.String("checkout.source", source),
			attribute.Int("checkout.lines", len(lines)),
			attribute.Bool("checkout.guest", !p.Authenticated()),
		),
	)
	defer span.End()

	order, err := NewOrder(s.CustomerEmail(p), lines, s.now())
	if err != nil {
		span.SetStatus(codes.Error, "invalid checkout")
		return nil, err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := orders.Insert(ctx, tx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for _, item := range order.Items {
			if err := catalog.DecrementStock(ctx, tx, item.ProductID, item.Quantity, s.rejectOversell); err != nil {
				return fmt.Errorf("decrement stock for product %s: %w", item.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	s.metrics.RecordOrder(ctx, source, order.Total, units(order))
	s.publish(ctx, order)

	s.logger.Info("order completed",
		"order_id", order.ID,
		"customer_email", order.CustomerEmail,
		"total", order.Total.String(),
		"source", source,
	)
	return order, nil
}

func (s *Service) publish(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}

	event := domain.OrderCompletedEvent{
		OrderID:       order.ID,
		CustomerEmail: order.CustomerEmail,
		Items:         order.Items,
		Total:         order.Total,
		Timestamp:     order.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, order.ID, event); err != nil {
		s.logger.Error("failed to publish order completed event", "error", err, "order_id", order.ID)
	}
}

// NewOrder builds a COMPLETED order from lines, copying each line's price
// onto its item. Lines must be non-empty with quantity >= 1 and price >= 0.
func NewOrder(customerEmail string, lines []domain.CartLine, now time.Time) (*domain.Order, error) {
	verr := domain.NewValidationError()
	if len(lines) == 0 {
		verr.Add("items", "must contain at least one item")
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for i, l := range lines {
		field := "items[" + strconv.Itoa(i) + "]"
		if l.ProductID == "" {
			verr.Add(field+".id", "is required")
		}
		if l.Quantity < 1 {
			verr.Add(field+".quantity", "must be at least 1")
		}
		if l.Price.IsNegative() {
			verr.Add(field+".price", "must be greater than or equal to 0")
		}
		items = append(items, domain.OrderItem{
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			Price:       l.Price,
			ProductName: l.Name,
		})
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	return &domain.Order{
		CustomerEmail: customerEmail,
		Items:         items,
		Total:         domain.LinesTotal(lines),
		Status:        domain.OrderStatusCompleted,
		CreatedAt:     now,
	}, nil
}

func units(order *domain.Order) int {
	n := 0
	for _, item := range order.Items {
		n += item.Quantity
	}
	return n
}

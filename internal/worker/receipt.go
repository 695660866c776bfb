// Package worker turns completed orders into receipt emails.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type ReceiptNotifier struct {
	emailServiceURL string
	guestEmail      string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewReceiptNotifier(emailServiceURL, guestEmail string, client *http.Client, logger *slog.Logger) *ReceiptNotifier {
	return &ReceiptNotifier{
		emailServiceURL: strings.TrimRight(emailServiceURL, "/"),
		guestEmail:      guestEmail,
		httpClient:      client,
		logger:          logger,
	}
}

type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Handle mails a receipt for event. Guest orders carry a placeholder address
// and are skipped.
func (n *ReceiptNotifier) Handle(ctx context.Context, event domain.OrderCompletedEvent) error {
	if event.CustomerEmail == "" || strings.EqualFold(event.CustomerEmail, n.guestEmail) {
		n.logger.Info("skipping receipt for guest order", "order_id", event.OrderID)
		return nil
	}

	n.logger.Info("sending receipt", "order_id", event.OrderID, "customer_email", event.CustomerEmail)

	if err := n.send(ctx, Receipt(event)); err != nil {
		n.logger.Error("failed to send receipt", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send receipt for order %s: %w", event.OrderID, err)
	}

	return nil
}

// Receipt renders the email for a completed order.
func Receipt(event domain.OrderCompletedEvent) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", event.OrderID)
	for _, item := range event.Items {
		name := item.ProductName
		if name == "" {
			name = item.ProductID
		}
		fmt.Fprintf(&b, "%d x %s @ %s = %s\n", item.Quantity, name, item.Price.StringFixed(2), item.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", event.Total.StringFixed(2))

	return Email{
		To:      event.CustomerEmail,
		Subject: "Your receipt for order " + event.OrderID,
		Body:    b.String(),
	}
}

func (n *ReceiptNotifier) send(ctx context.Context, email Email) error {
	data, err := json.Marshal(email)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}

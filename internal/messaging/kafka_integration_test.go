//go:build integration

package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/testinfra"
)

func TestProducerConsumer_Kafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers := testinfra.SetupKafka(ctx, t)
	topic := "order.completed.test"

	producer := NewProducer(brokers, topic, WithBatchTimeout(10*time.Millisecond))
	defer func() { _ = producer.Close() }()

	sent := domain.OrderCompletedEvent{
		OrderID:       "order-1",
		CustomerEmail: "ada@example.com",
		Items:         []domain.OrderItem{{ProductID: "p1", Quantity: 2, Price: decimal.NewFromInt(100)}},
		Total:         decimal.NewFromInt(200),
		Timestamp:     time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	// The first write can race topic auto-creation.
	var err error
	for attempt := 0; attempt < 10; attempt++ {
		if err = producer.Publish(ctx, sent.OrderID, sent); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	consumer := NewConsumer(brokers, topic, "receipt-worker-test", testinfra.Logger(), WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	consumeCtx, stop := context.WithCancel(ctx)
	defer stop()

	var (
		got       domain.OrderCompletedEvent
		eventType string
	)
	err = consumer.Consume(consumeCtx, func(ctx context.Context, msg Message) error {
		eventType = msg.EventType
		defer stop()
		return JSON(func(_ context.Context, e domain.OrderCompletedEvent) error {
			got = e
			return nil
		})(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("consume: %v", err)
	}

	if eventType != domain.EventOrderCompleted {
		t.Errorf("event type = %q, want %q", eventType, domain.EventOrderCompleted)
	}
	if got.OrderID != sent.OrderID || got.CustomerEmail != sent.CustomerEmail || !got.Total.Equal(sent.Total) {
		t.Errorf("received %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Errorf("items = %+v", got.Items)
	}
}

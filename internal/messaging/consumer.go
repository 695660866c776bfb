package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var consumerTracer = otel.Tracer("messaging/consumer")

// ErrMalformed marks a message that can never be handled. The consumer logs
// and commits it instead of stopping.
var ErrMalformed = errors.New("malformed message")

type Message struct {
	Key       string
	EventType string
	Value     []byte
}

type HandlerFunc func(ctx context.Context, msg Message) error

// JSON adapts a typed handler. Payloads that fail to decode are reported as
// ErrMalformed.
func JSON[T any](fn func(ctx context.Context, event T) error) HandlerFunc {
	return func(ctx context.Context, msg Message) error {
		var event T
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return fn(ctx, event)
	}
}

type Consumer struct {
	reader  *kafka.Reader
	topic   string
	groupID string
	logger  *slog.Logger
}

type ConsumerOption func(*kafka.ReaderConfig)

func WithStartOffset(offset int64) ConsumerOption {
	return func(cfg *kafka.ReaderConfig) {
		cfg.StartOffset = offset
	}
}

func NewConsumer(brokers []string, topic, groupID string, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer{
		reader:  kafka.NewReader(cfg),
		topic:   topic,
		groupID: groupID,
		logger:  logger,
	}
}

// Consume handles messages one at a time, committing each after it is
// handled. It returns on the first handler error that is not ErrMalformed,
// leaving that message uncommitted for redelivery.
func (c *Consumer) Consume(ctx context.Context, handler HandlerFunc) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		if err := c.process(ctx, msg, handler); err != nil {
			if !errors.Is(err, ErrMalformed) {
				return err
			}
			c.logger.Warn("skipping malformed message",
				"error", err,
				"topic", c.topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message, handler HandlerFunc) error {
	carrier := NewHeaderCarrier(&msg)
	parentCtx := otel.GetTextMapPropagator().Extract(ctx, carrier)
	eventType := carrier.Get(HeaderEventType)

	spanCtx, span := consumerTracer.Start(parentCtx, "process "+c.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("process"),
			semconv.MessagingOperationTypeDeliver,
			semconv.MessagingDestinationName(c.topic),
			semconv.MessagingKafkaConsumerGroup(c.groupID),
			semconv.MessagingKafkaMessageOffset(int(msg.Offset)),
			semconv.MessagingDestinationPartitionID(strconv.Itoa(msg.Partition)),
			semconv.MessagingKafkaMessageKey(string(msg.Key)),
			attribute.String("messaging.event_type", eventType),
		),
	)
	defer span.End()

	err := handler(spanCtx, Message{Key: string(msg.Key), EventType: eventType, Value: msg.Value})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

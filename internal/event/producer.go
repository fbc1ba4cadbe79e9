package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storefrontlab/cart-service/internal/domain"
	pkgkafka "github.com/storefrontlab/cart-service/pkg/kafka"
)

// Kafka topics for cart domain events.
const (
	TopicItemAdded   = "storefront.cart.item_added"
	TopicItemUpdated = "storefront.cart.item_updated"
	TopicItemRemoved = "storefront.cart.item_removed"
)

const (
	aggregateTypeCartLine = "cart_line"
	sourceCartService     = "cart-service"
)

// CartLineData is the payload for item_added and item_updated events.
type CartLineData struct {
	LineID    string `json:"line_id"`
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ItemRemovedData is the payload for item_removed events.
type ItemRemovedData struct {
	LineID string `json:"line_id"`
}

// Producer publishes cart domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer for the cart service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishItemAdded publishes an item_added event for the line.
func (p *Producer) PublishItemAdded(ctx context.Context, line *domain.CartLine) error {
	return p.publishLine(ctx, TopicItemAdded, line)
}

// PublishItemUpdated publishes an item_updated event for the line.
func (p *Producer) PublishItemUpdated(ctx context.Context, line *domain.CartLine) error {
	return p.publishLine(ctx, TopicItemUpdated, line)
}

// PublishItemRemoved publishes an item_removed event for the line id.
func (p *Producer) PublishItemRemoved(ctx context.Context, lineID string) error {
	ev, err := pkgkafka.NewEvent(TopicItemRemoved, lineID, aggregateTypeCartLine, sourceCartService,
		ItemRemovedData{LineID: lineID})
	if err != nil {
		return fmt.Errorf("create item_removed event: %w", err)
	}
	if err := p.kafka.Publish(ctx, TopicItemRemoved, ev); err != nil {
		return fmt.Errorf("publish item_removed event: %w", err)
	}
	return nil
}

func (p *Producer) publishLine(ctx context.Context, topic string, line *domain.CartLine) error {
	data := CartLineData{
		LineID:    line.ID,
		UserID:    line.UserID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
	}

	ev, err := pkgkafka.NewEvent(topic, line.ID, aggregateTypeCartLine, sourceCartService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.kafka.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published cart event",
		slog.String("topic", topic),
		slog.String("line_id", line.ID),
	)

	return nil
}

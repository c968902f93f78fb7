package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/catalogadmin/pkg/kafka"
	"github.com/utafrali/catalogadmin/pkg/logger"
)

// Kafka topics for catalog admin events.
const (
	TopicProductDeleted = "catalog.product.deleted"
)

const (
	AggregateTypeProduct = "product"
	SourceCatalogAdmin   = "catalog-admin"
)

// ProductDeletedData is the payload of a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// Publisher is the subset of pkg/kafka.Producer the event producer needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes catalog admin events.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates an event producer.
func NewProducer(kafka Publisher, l *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: l}
}

// PublishProductDeleted publishes a product.deleted event attributed to the
// admin in ctx.
func (p *Producer) PublishProductDeleted(ctx context.Context, data ProductDeletedData) error {
	evt, err := pkgkafka.NewEvent("product.deleted", AggregateTypeProduct, data.ID, SourceCatalogAdmin, data)
	if err != nil {
		return err
	}
	evt.Actor = logger.AdminIDFromContext(ctx)

	if err := p.kafka.Publish(ctx, TopicProductDeleted, evt); err != nil {
		return fmt.Errorf("publish product.deleted: %w", err)
	}
	return nil
}

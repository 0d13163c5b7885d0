package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clangauge0314/react-fashion-ecommerce/internal/domain"
	pkgkafka "github.com/clangauge0314/react-fashion-ecommerce/pkg/kafka"
	"github.com/clangauge0314/react-fashion-ecommerce/pkg/logger"
)

// Kafka topic constants for catalog domain events.
const (
	TopicProductCreated = "catalog.product.created"
	TopicProductUpdated = "catalog.product.updated"
	TopicProductDeleted = "catalog.product.deleted"
	TopicAssetOrphaned  = "catalog.asset.orphaned"
)

// Aggregate type constant.
const AggregateTypeProduct = "product"

// Source identifier for events originating from the catalog service.
const SourceCatalogService = "catalog-service"

// ProductData is the payload for product.created and product.updated events.
type ProductData struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Stock    int      `json:"stock"`
	Status   string   `json:"status"`
	Category string   `json:"category"`
	Gender   string   `json:"gender"`
	Image    []string `json:"image"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// AssetOrphanedData is the payload for an asset.orphaned event. It names a
// stored file that is no longer referenced by any product record but could
// not be removed, so an offline sweep can pick it up later.
type AssetOrphanedData struct {
	ProductID string `json:"product_id"`
	Key       string `json:"key"`
	Reason    string `json:"reason"`
}

// Producer publishes catalog domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the catalog service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func productData(p *domain.Product) ProductData {
	return ProductData{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Status:   p.Status,
		Category: p.Category,
		Gender:   p.Gender,
		Image:    p.Image,
	}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, product.ID, productData(product))
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, product.ID, productData(product))
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicProductDeleted, id, ProductDeletedData{ID: id})
}

// PublishAssetOrphaned publishes an asset.orphaned event for a file left
// behind by a failed best-effort delete.
func (p *Producer) PublishAssetOrphaned(ctx context.Context, productID, key, reason string) error {
	return p.publish(ctx, TopicAssetOrphaned, productID, AssetOrphanedData{
		ProductID: productID,
		Key:       key,
		Reason:    reason,
	})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeProduct, SourceCatalogService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		event.WithCorrelationID(cid)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published catalog event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/clangauge0314/react-fashion-ecommerce/internal/cache"
	"github.com/clangauge0314/react-fashion-ecommerce/internal/domain"
	"github.com/clangauge0314/react-fashion-ecommerce/internal/metrics"
	"github.com/clangauge0314/react-fashion-ecommerce/internal/repository"
	"github.com/clangauge0314/react-fashion-ecommerce/internal/storage"
	"github.com/clangauge0314/react-fashion-ecommerce/internal/transcoder"
	apperrors "github.com/clangauge0314/react-fashion-ecommerce/pkg/errors"
)

// mercariURIPattern accepts absolute http(s) URLs.
var mercariURIPattern = regexp.MustCompile(`^https?://\S+$`)

// EventPublisher publishes catalog domain events. Satisfied by
// event.Producer; tests supply a recording fake.
type EventPublisher interface {
	PublishProductCreated(ctx context.Context, product *domain.Product) error
	PublishProductUpdated(ctx context.Context, product *domain.Product) error
	PublishProductDeleted(ctx context.Context, id string) error
	PublishAssetOrphaned(ctx context.Context, productID, key, reason string) error
}

// ProductCache caches products by ID. Satisfied by cache.ProductCache.
type ProductCache interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	Set(ctx context.Context, p *domain.Product) error
	Invalidate(ctx context.Context, id string) error
}

// CatalogService orchestrates the product write path: validation, image
// transcoding, image-list reconciliation, persistence and best-effort
// cleanup of files the record no longer references.
type CatalogService struct {
	repo       repository.ProductRepository
	store      storage.Store
	transcoder transcoder.Transcoder
	events     EventPublisher
	cache      ProductCache
	logger     *slog.Logger
	locks      *keyedMutex
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	repo repository.ProductRepository,
	store storage.Store,
	tc transcoder.Transcoder,
	events EventPublisher,
	productCache ProductCache,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		repo:       repo,
		store:      store,
		transcoder: tc,
		events:     events,
		cache:      productCache,
		logger:     logger,
		locks:      newKeyedMutex(),
	}
}

// ImageUpload is one raw uploaded image file.
type ImageUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// CreateProductInput holds the parameters for creating a product. Color must
// already be normalized into an ordered token list (see formparse).
type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	Status      string
	Category    string
	Gender      string
	Color       []string
	MercariURI  string
	Images      []ImageUpload
}

// UpdateProductInput holds the parameters for updating a product. Nil
// pointers mean "leave unchanged". KeepImages is the ordered retain-list for
// currently stored images: nil retains the current list as is, an empty
// slice removes every current image.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	Status      string
	Category    *string
	Gender      *string
	Color       *[]string
	MercariURI  *string
	KeepImages  *[]string
	NewImages   []ImageUpload
}

// CreateProduct validates the input, transcodes uploaded images into stored
// derivatives and persists the new product.
func (s *CatalogService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidField("name", "is required")
	}
	if len(input.Name) > 200 {
		return nil, apperrors.InvalidField("name", "must be at most 200 characters")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidField("price", "must not be negative")
	}
	if input.Stock < 0 {
		return nil, apperrors.InvalidField("stock", "must not be negative")
	}
	if input.Status != "" && !domain.IsValidStatus(input.Status) {
		return nil, apperrors.InvalidField("status", "must be yes or no")
	}
	gender := input.Gender
	if gender == "" {
		gender = domain.GenderUnisex
	}
	if !domain.IsValidGender(gender) {
		return nil, apperrors.InvalidField("gender", "must be male, female or unisex")
	}
	if input.MercariURI != "" && !mercariURIPattern.MatchString(input.MercariURI) {
		return nil, apperrors.InvalidField("mercari_uri", "must be an http(s) URL")
	}
	if err := validateUploads(input.Images); err != nil {
		return nil, err
	}

	keys, err := s.transcodeAndStore(ctx, input.Images)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Status:      domain.DeriveStatus(input.Stock, input.Status, ""),
		Category:    input.Category,
		Gender:      gender,
		Color:       input.Color,
		Image:       keys,
		MercariURI:  input.MercariURI,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		// The derivatives already on disk are orphans now; try to reclaim
		// them before surfacing the storage failure.
		s.cleanupAssets(ctx, product.ID, keys)
		return nil, fmt.Errorf("create product record: %w", err)
	}

	if err := s.events.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
		slog.Int("stock", product.Stock),
		slog.String("status", product.Status),
		slog.Int("images", len(product.Image)),
	)

	return product, nil
}

// UpdateProduct applies a partial update: transcodes new images, reconciles
// the stored image list against the retain-list, re-derives status from the
// effective stock and persists the merged record. Writes to the same product
// are serialized so two concurrent updates cannot reconcile against stale
// snapshots and delete files the other still references.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, error) {
	if input.Price != nil && *input.Price < 0 {
		return nil, apperrors.InvalidField("price", "must not be negative")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, apperrors.InvalidField("stock", "must not be negative")
	}
	if input.Status != "" && !domain.IsValidStatus(input.Status) {
		return nil, apperrors.InvalidField("status", "must be yes or no")
	}
	if input.Name != nil && *input.Name == "" {
		return nil, apperrors.InvalidField("name", "must not be empty")
	}
	if input.Gender != nil && !domain.IsValidGender(*input.Gender) {
		return nil, apperrors.InvalidField("gender", "must be male, female or unisex")
	}
	if input.MercariURI != nil && *input.MercariURI != "" && !mercariURIPattern.MatchString(*input.MercariURI) {
		return nil, apperrors.InvalidField("mercari_uri", "must be an http(s) URL")
	}
	if err := validateUploads(input.NewImages); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	retained := current.Image
	if input.KeepImages != nil {
		retained = *input.KeepImages
		stored := make(map[string]bool, len(current.Image))
		for _, key := range current.Image {
			stored[key] = true
		}
		for _, key := range retained {
			if !stored[key] {
				return nil, apperrors.InvalidField("existingImage", fmt.Sprintf("%q is not an image of this product", key))
			}
		}
	}

	newKeys, err := s.transcodeAndStore(ctx, input.NewImages)
	if err != nil {
		return nil, err
	}

	// Reconciliation: anything stored but absent from the retain-list was
	// removed by the user and becomes a deletion candidate.
	keep := make(map[string]bool, len(retained))
	for _, key := range retained {
		keep[key] = true
	}
	var imagesToDelete []string
	for _, key := range current.Image {
		if !keep[key] {
			imagesToDelete = append(imagesToDelete, key)
		}
	}

	if input.Name != nil {
		current.Name = *input.Name
	}
	if input.Description != nil {
		current.Description = *input.Description
	}
	if input.Price != nil {
		current.Price = *input.Price
	}
	if input.Stock != nil {
		current.Stock = *input.Stock
	}
	if input.Category != nil {
		current.Category = *input.Category
	}
	if input.Gender != nil {
		current.Gender = *input.Gender
	}
	if input.Color != nil {
		current.Color = *input.Color
	}
	if input.MercariURI != nil {
		current.MercariURI = *input.MercariURI
	}
	current.Status = domain.DeriveStatus(current.Stock, input.Status, current.Status)
	current.Image = append(append([]string{}, retained...), newKeys...)
	current.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, current); err != nil {
		// The freshly stored derivatives were never referenced by a record.
		s.cleanupAssets(ctx, id, newKeys)
		return nil, fmt.Errorf("update product record: %w", err)
	}

	s.cleanupAssets(ctx, id, imagesToDelete)
	s.invalidateCache(ctx, id)

	if err := s.events.PublishProductUpdated(ctx, current); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", id),
		slog.Int("stock", current.Stock),
		slog.String("status", current.Status),
		slog.Int("images", len(current.Image)),
		slog.Int("images_deleted", len(imagesToDelete)),
	)

	return current, nil
}

// DeleteProduct removes the record and best-effort deletes every asset file
// it referenced.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product record: %w", err)
	}

	s.cleanupAssets(ctx, id, product.Image)
	s.invalidateCache(ctx, id)

	if err := s.events.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
		slog.Int("images", len(product.Image)),
	)

	return nil
}

// GetProduct retrieves a product by ID, serving from the cache when possible.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if cached, err := s.cache.Get(ctx, id); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.WarnContext(ctx, "product cache read failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	if err := s.cache.Set(ctx, product); err != nil {
		s.logger.WarnContext(ctx, "product cache fill failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	return product, nil
}

// ListProducts returns all products, newest first.
func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// validateUploads checks every file against the allow-list and size ceiling
// before any transcoding side effect begins.
func validateUploads(images []ImageUpload) error {
	if len(images) > domain.MaxImagesPerUpload {
		return apperrors.InvalidInput(fmt.Sprintf("at most %d images per request", domain.MaxImagesPerUpload))
	}
	for _, img := range images {
		if !domain.AllowedImageTypes[img.ContentType] {
			return apperrors.InvalidInput(fmt.Sprintf("content type %q is not allowed for %q", img.ContentType, img.FileName))
		}
		if img.Size > domain.MaxImageSize {
			return apperrors.InvalidInput(fmt.Sprintf("file %q exceeds the %d byte limit", img.FileName, domain.MaxImageSize))
		}
		if img.Size <= 0 {
			return apperrors.InvalidInput(fmt.Sprintf("file %q is empty", img.FileName))
		}
	}
	return nil
}

// transcodeAndStore produces a stored derivative for every upload,
// preserving submission order. Transcodes run concurrently. If any file
// fails, derivatives already stored for this batch are best-effort removed
// and the whole batch fails.
func (s *CatalogService) transcodeAndStore(ctx context.Context, images []ImageUpload) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}

	keys := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)

	for i, img := range images {
		g.Go(func() error {
			start := time.Now()
			result, err := s.transcoder.Transcode(gctx, img.Data)
			if err != nil {
				return fmt.Errorf("transcode %q: %w", img.FileName, err)
			}
			metrics.TranscodeDuration.Observe(time.Since(start).Seconds())

			key := "products/" + uuid.New().String() + result.Ext
			if _, err := s.store.Upload(gctx, &storage.UploadInput{
				Key:         key,
				ContentType: "image/jpeg",
				Size:        result.Size,
				Data:        bytes.NewReader(result.Data),
			}); err != nil {
				return fmt.Errorf("store derivative for %q: %w", img.FileName, err)
			}

			keys[i] = key
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var stored []string
		for _, key := range keys {
			if key != "" {
				stored = append(stored, key)
			}
		}
		s.cleanupAssets(ctx, "", stored)
		return nil, err
	}

	return keys, nil
}

// cleanupAssets best-effort deletes the given keys. Failures are logged with
// enough detail for an offline sweep, counted and published as orphan
// events, but never fail the caller.
func (s *CatalogService) cleanupAssets(ctx context.Context, productID string, keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			metrics.AssetDeletes.WithLabelValues(metrics.OutcomeFailed).Inc()
			metrics.OrphanedFiles.Inc()
			s.logger.ErrorContext(ctx, "failed to delete asset file, leaving orphan",
				slog.String("product_id", productID),
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			if pubErr := s.events.PublishAssetOrphaned(ctx, productID, key, err.Error()); pubErr != nil {
				s.logger.ErrorContext(ctx, "failed to publish asset.orphaned event",
					slog.String("key", key),
					slog.String("error", pubErr.Error()),
				)
			}
			continue
		}
		metrics.AssetDeletes.WithLabelValues(metrics.OutcomeDeleted).Inc()
	}
}

func (s *CatalogService) invalidateCache(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "product cache invalidation failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}

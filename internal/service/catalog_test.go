package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clangauge0314/react-fashion-ecommerce/internal/cache"
	"github.com/clangauge0314/react-fashion-ecommerce/internal/domain"
	"github.com/clangauge0314/react-fashion-ecommerce/internal/storage"
	"github.com/clangauge0314/react-fashion-ecommerce/internal/transcoder"
	apperrors "github.com/clangauge0314/react-fashion-ecommerce/pkg/errors"
)

// --- Mock Repository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Fake Store ---

// fakeStore records uploads and deletes so tests can assert on exactly which
// keys were touched. Individual keys can be made to fail deletion.
type fakeStore struct {
	mu          sync.Mutex
	files       map[string]bool
	deleted     []string
	failDeletes map[string]bool
}

func newFakeStore(seedKeys ...string) *fakeStore {
	files := make(map[string]bool)
	for _, k := range seedKeys {
		files[k] = true
	}
	return &fakeStore{files: files, failDeletes: make(map[string]bool)}
}

func (f *fakeStore) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[input.Key] = true
	return &storage.UploadResult{Key: input.Key, URL: "http://test/" + input.Key}, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	if f.failDeletes[key] {
		return errors.New("disk on fire")
	}
	delete(f.files, key)
	return nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[key], nil
}

// --- Fake Transcoder ---

type fakeTranscoder struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeTranscoder) Transcode(_ context.Context, r io.Reader) (*transcoder.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail {
		return nil, apperrors.Unprocessable("decode image: bogus bytes")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &transcoder.Result{Data: data, Ext: ".jpg", Size: int64(len(data))}, nil
}

func (f *fakeTranscoder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// --- Fake Events ---

type fakeEvents struct {
	mu       sync.Mutex
	created  []string
	updated  []string
	deleted  []string
	orphaned []string
}

func (f *fakeEvents) PublishProductCreated(_ context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p.ID)
	return nil
}

func (f *fakeEvents) PublishProductUpdated(_ context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, p.ID)
	return nil
}

func (f *fakeEvents) PublishProductDeleted(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeEvents) PublishAssetOrphaned(_ context.Context, _, key, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orphaned = append(f.orphaned, key)
	return nil
}

// --- Fake Cache ---

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]*domain.Product
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*domain.Product)}
}

func (f *fakeCache) Get(_ context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.entries[id]; ok {
		return p, nil
	}
	return nil, cache.ErrMiss
}

func (f *fakeCache) Set(_ context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[p.ID] = p
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	f.invalidated = append(f.invalidated, id)
	return nil
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testDeps struct {
	repo   *mockProductRepository
	store  *fakeStore
	tc     *fakeTranscoder
	events *fakeEvents
	cache  *fakeCache
}

func newTestService(deps *testDeps) *CatalogService {
	return NewCatalogService(deps.repo, deps.store, deps.tc, deps.events, deps.cache, newTestLogger())
}

func defaultDeps(seedKeys ...string) *testDeps {
	return &testDeps{
		repo:   new(mockProductRepository),
		store:  newFakeStore(seedKeys...),
		tc:     &fakeTranscoder{},
		events: &fakeEvents{},
		cache:  newFakeCache(),
	}
}

func upload(name string) ImageUpload {
	return ImageUpload{
		FileName:    name,
		ContentType: "image/jpeg",
		Size:        128,
		Data:        strings.NewReader("raw bytes of " + name),
	}
}

func strPtr(s string) *string      { return &s }
func intPtr(i int) *int            { return &i }
func floatPtr(f float64) *float64  { return &f }
func listPtr(s []string) *[]string { return &s }

func storedProduct(id string, stock int, status string, images []string) *domain.Product {
	return &domain.Product{
		ID:       id,
		Name:     "Wool Coat",
		Price:    100,
		Stock:    stock,
		Status:   status,
		Category: "outerwear",
		Gender:   domain.GenderUnisex,
		Image:    images,
	}
}

// --- Create ---

func TestCreateProduct_Success(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)

	deps.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	product, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:   "Wool Coat",
		Price:  129.99,
		Stock:  5,
		Color:  []string{"black", "camel"},
		Images: []ImageUpload{upload("a.jpg"), upload("b.jpg")},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, product.ID)
	assert.Equal(t, domain.StatusAvailable, product.Status)
	assert.Equal(t, domain.GenderUnisex, product.Gender)
	require.Len(t, product.Image, 2)
	for _, key := range product.Image {
		assert.True(t, strings.HasPrefix(key, "products/"))
		assert.True(t, strings.HasSuffix(key, ".jpg"))
		exists, _ := deps.store.Exists(context.Background(), key)
		assert.True(t, exists)
	}
	assert.Equal(t, 2, deps.tc.callCount())
	assert.Equal(t, []string{product.ID}, deps.events.created)
	deps.repo.AssertExpectations(t)
}

func TestCreateProduct_StockInvariantForcesUnavailable(t *testing.T) {
	tests := []struct {
		name       string
		stock      int
		requested  string
		wantStatus string
	}{
		{"zero stock with submitted yes", 0, domain.StatusAvailable, domain.StatusUnavailable},
		{"stock of one", 1, domain.StatusAvailable, domain.StatusUnavailable},
		{"zero stock no status", 0, "", domain.StatusUnavailable},
		{"plenty of stock defaults to yes", 5, "", domain.StatusAvailable},
		{"plenty of stock explicit no", 5, domain.StatusUnavailable, domain.StatusUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := defaultDeps()
			svc := newTestService(deps)
			deps.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

			product, err := svc.CreateProduct(context.Background(), &CreateProductInput{
				Name:   "Tee",
				Stock:  tt.stock,
				Status: tt.requested,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, product.Status)
		})
	}
}

func TestCreateProduct_RejectsDisallowedContentType(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)

	_, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name: "Tee",
		Images: []ImageUpload{{
			FileName:    "doc.pdf",
			ContentType: "application/pdf",
			Size:        100,
			Data:        strings.NewReader("%PDF"),
		}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	// Validation must gate all side effects.
	assert.Equal(t, 0, deps.tc.callCount())
	assert.Empty(t, deps.store.files)
	deps.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_RejectsOversizedFile(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)

	_, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name: "Tee",
		Images: []ImageUpload{{
			FileName:    "huge.jpg",
			ContentType: "image/jpeg",
			Size:        domain.MaxImageSize + 1,
			Data:        strings.NewReader("x"),
		}},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, 0, deps.tc.callCount())
}

func TestCreateProduct_RejectsTooManyFiles(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)

	images := make([]ImageUpload, domain.MaxImagesPerUpload+1)
	for i := range images {
		images[i] = upload(fmt.Sprintf("img-%d.jpg", i))
	}

	_, err := svc.CreateProduct(context.Background(), &CreateProductInput{Name: "Tee", Images: images})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, 0, deps.tc.callCount())
}

func TestCreateProduct_ScalarValidation(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, &CreateProductInput{Name: ""})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.CreateProduct(ctx, &CreateProductInput{Name: "Tee", Price: -1})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.CreateProduct(ctx, &CreateProductInput{Name: "Tee", Stock: -1})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.CreateProduct(ctx, &CreateProductInput{Name: "Tee", Status: "maybe"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.CreateProduct(ctx, &CreateProductInput{Name: "Tee", Gender: "robot"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.CreateProduct(ctx, &CreateProductInput{Name: "Tee", MercariURI: "ftp://nope"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateProduct_RepoFailureCleansUpDerivatives(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)

	deps.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection lost"))

	_, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:   "Tee",
		Stock:  5,
		Images: []ImageUpload{upload("a.jpg")},
	})
	require.Error(t, err)

	// The stored derivative was reclaimed.
	assert.Empty(t, deps.store.files)
	assert.Len(t, deps.store.deleted, 1)
	assert.Empty(t, deps.events.created)
}

func TestCreateProduct_TranscodeFailureAbortsRequest(t *testing.T) {
	deps := defaultDeps()
	deps.tc.fail = true
	svc := newTestService(deps)

	_, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:   "Tee",
		Images: []ImageUpload{upload("a.jpg")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnprocessable)
	deps.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// --- Update ---

func TestUpdateProduct_ReconciliationDeletesOnlyDroppedImages(t *testing.T) {
	current := storedProduct("prod-1", 5, domain.StatusAvailable,
		[]string{"products/a.jpg", "products/b.jpg", "products/c.jpg"})

	deps := defaultDeps("products/a.jpg", "products/b.jpg", "products/c.jpg")
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "prod-1").Return(current, nil)
	deps.repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		KeepImages: listPtr([]string{"products/c.jpg", "products/a.jpg"}),
		NewImages:  []ImageUpload{upload("d.jpg")},
	})
	require.NoError(t, err)

	// Retained order is caller-specified; the new derivative is appended.
	require.Len(t, updated.Image, 3)
	assert.Equal(t, "products/c.jpg", updated.Image[0])
	assert.Equal(t, "products/a.jpg", updated.Image[1])
	assert.True(t, strings.HasPrefix(updated.Image[2], "products/"))

	// Exactly b was deleted.
	assert.Equal(t, []string{"products/b.jpg"}, deps.store.deleted)
	assert.Equal(t, []string{"prod-1"}, deps.events.updated)
	assert.Equal(t, []string{"prod-1"}, deps.cache.invalidated)
}

func TestUpdateProduct_FullRetainIsIdempotent(t *testing.T) {
	images := []string{"products/a.jpg", "products/b.jpg"}
	current := storedProduct("prod-1", 5, domain.StatusAvailable, images)

	deps := defaultDeps(images...)
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "prod-1").Return(current, nil)
	deps.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		KeepImages: listPtr([]string{"products/a.jpg", "products/b.jpg"}),
	})
	require.NoError(t, err)

	assert.Equal(t, images, updated.Image)
	assert.Empty(t, deps.store.deleted)
}

func TestUpdateProduct_OmittedRetainListKeepsCurrentImages(t *testing.T) {
	images := []string{"products/a.jpg"}
	current := storedProduct("prod-1", 5, domain.StatusAvailable, images)

	deps := defaultDeps(images...)
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "prod-1").Return(current, nil)
	deps.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Price: floatPtr(49.99),
	})
	require.NoError(t, err)

	assert.Equal(t, images, updated.Image)
	assert.Equal(t, 49.99, updated.Price)
	assert.Empty(t, deps.store.deleted)
}

func TestUpdateProduct_EmptyRetainListDeletesAllImages(t *testing.T) {
	images := []string{"products/a.jpg", "products/b.jpg"}
	current := storedProduct("prod-1", 5, domain.StatusAvailable, images)

	deps := defaultDeps(images...)
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "prod-1").Return(current, nil)
	deps.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		KeepImages: listPtr([]string{}),
	})
	require.NoError(t, err)

	assert.Empty(t, updated.Image)
	assert.ElementsMatch(t, images, deps.store.deleted)
}

func TestUpdateProduct_RejectsUnknownRetainEntry(t *testing.T) {
	current := storedProduct("prod-1", 5, domain.StatusAvailable, []string{"products/a.jpg"})

	deps := defaultDeps("products/a.jpg")
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "prod-1").Return(current, nil)

	_, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		KeepImages: listPtr([]string{"products/stolen.jpg"}),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	deps.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateProduct_StatusRecoveryPreservesPreviousValue(t *testing.T) {
	// Created with stock=0 the record carries "no". Raising stock with status
	// omitted keeps the previous stored value rather than jumping to "yes".
	current := storedProduct("prod-1", 0, domain.StatusUnavailable, nil)

	deps := defaultDeps()
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "prod-1").Return(current, nil)
	deps.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Stock: intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnavailable, updated.Status)

	// An explicit resubmission flips it back.
	deps2 := defaultDeps()
	svc2 := newTestService(deps2)
	current2 := storedProduct("prod-1", 0, domain.StatusUnavailable, nil)
	deps2.repo.On("GetByID", mock.Anything, "prod-1").Return(current2, nil)
	deps2.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated2, err := svc2.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Stock:  intPtr(5),
		Status: domain.StatusAvailable,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAvailable, updated2.Status)
}

func TestUpdateProduct_StockDropForcesUnavailable(t *testing.T) {
	current := storedProduct("prod-1", 5, domain.StatusAvailable, nil)

	deps := defaultDeps()
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "prod-1").Return(current, nil)
	deps.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Stock:  intPtr(1),
		Status: domain.StatusAvailable,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnavailable, updated.Status)
}

func TestUpdateProduct_NegativeStockRejectedBeforeAnyMutation(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)

	_, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Stock: intPtr(-3),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	deps.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NotFound("product", "missing"))

	_, err := svc.UpdateProduct(context.Background(), "missing", &UpdateProductInput{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateProduct_ScalarMerge(t *testing.T) {
	current := storedProduct("prod-1", 5, domain.StatusAvailable, nil)
	current.Description = "old"
	current.Color = []string{"black"}

	deps := defaultDeps()
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "prod-1").Return(current, nil)
	deps.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		Name:        strPtr("Linen Shirt"),
		Description: strPtr("new"),
		Category:    strPtr("tops"),
		Gender:      strPtr(domain.GenderMale),
		Color:       listPtr([]string{"white", "ecru"}),
		MercariURI:  strPtr("https://mercari.example.com/items/m2"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Linen Shirt", updated.Name)
	assert.Equal(t, "new", updated.Description)
	assert.Equal(t, "tops", updated.Category)
	assert.Equal(t, domain.GenderMale, updated.Gender)
	assert.Equal(t, []string{"white", "ecru"}, updated.Color)
	assert.Equal(t, "https://mercari.example.com/items/m2", updated.MercariURI)
	// Untouched fields carry over.
	assert.Equal(t, 5, updated.Stock)
	assert.Equal(t, float64(100), updated.Price)
}

func TestUpdateProduct_RepoFailureCleansUpNewDerivativesOnly(t *testing.T) {
	current := storedProduct("prod-1", 5, domain.StatusAvailable, []string{"products/a.jpg"})

	deps := defaultDeps("products/a.jpg")
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "prod-1").Return(current, nil)
	deps.repo.On("Update", mock.Anything, mock.Anything).Return(errors.New("connection lost"))

	_, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		NewImages: []ImageUpload{upload("d.jpg")},
	})
	require.Error(t, err)

	// Only the never-referenced new derivative was removed; the stored
	// record's image is untouched.
	require.Len(t, deps.store.deleted, 1)
	assert.NotEqual(t, "products/a.jpg", deps.store.deleted[0])
	exists, _ := deps.store.Exists(context.Background(), "products/a.jpg")
	assert.True(t, exists)
}

func TestUpdateProduct_BestEffortDeleteFailureDoesNotFailRequest(t *testing.T) {
	current := storedProduct("prod-1", 5, domain.StatusAvailable,
		[]string{"products/a.jpg", "products/b.jpg"})

	deps := defaultDeps("products/a.jpg", "products/b.jpg")
	deps.store.failDeletes["products/b.jpg"] = true
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "prod-1").Return(current, nil)
	deps.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), "prod-1", &UpdateProductInput{
		KeepImages: listPtr([]string{"products/a.jpg"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"products/a.jpg"}, updated.Image)

	// The failed delete is reported as an orphan, not surfaced.
	assert.Equal(t, []string{"products/b.jpg"}, deps.events.orphaned)
}

// --- Delete ---

func TestDeleteProduct_PassesEachImageToStoreExactlyOnce(t *testing.T) {
	images := []string{"products/a.jpg", "products/b.jpg"}
	current := storedProduct("prod-1", 5, domain.StatusAvailable, images)

	deps := defaultDeps(images...)
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "prod-1").Return(current, nil)
	deps.repo.On("Delete", mock.Anything, "prod-1").Return(nil)

	require.NoError(t, svc.DeleteProduct(context.Background(), "prod-1"))

	assert.Equal(t, images, deps.store.deleted)
	assert.Equal(t, []string{"prod-1"}, deps.events.deleted)
	assert.Equal(t, []string{"prod-1"}, deps.cache.invalidated)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NotFound("product", "missing"))

	err := svc.DeleteProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	deps.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteProduct_StoreFailureDoesNotFailDelete(t *testing.T) {
	current := storedProduct("prod-1", 5, domain.StatusAvailable, []string{"products/a.jpg"})

	deps := defaultDeps("products/a.jpg")
	deps.store.failDeletes["products/a.jpg"] = true
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "prod-1").Return(current, nil)
	deps.repo.On("Delete", mock.Anything, "prod-1").Return(nil)

	err := svc.DeleteProduct(context.Background(), "prod-1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"products/a.jpg"}, deps.events.orphaned)
}

// --- Reads ---

func TestGetProduct_CacheMissFillsCache(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)

	p := storedProduct("prod-1", 5, domain.StatusAvailable, nil)
	deps.repo.On("GetByID", mock.Anything, "prod-1").Return(p, nil).Once()

	got, err := svc.GetProduct(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "prod-1", got.ID)

	// Second read is served from the cache.
	got2, err := svc.GetProduct(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "prod-1", got2.ID)
	deps.repo.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestGetProduct_NotFound(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)

	deps.repo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NotFound("product", "missing"))

	_, err := svc.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListProducts(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(deps)

	deps.repo.On("List", mock.Anything).Return([]domain.Product{
		*storedProduct("prod-2", 3, domain.StatusAvailable, nil),
		*storedProduct("prod-1", 0, domain.StatusUnavailable, nil),
	}, nil)

	products, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "prod-2", products[0].ID)
}

package service_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/dto"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/model"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/repository"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── In-memory ProductRepository stub ────────────────────────────────────────

type stubProductRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]model.Product
	failList error
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[int64]model.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.products {
		if existing.Name == p.Name {
			return repository.ErrDuplicateName
		}
	}
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = *p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id int64) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *stubProductRepo) FindByName(_ context.Context, name string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubProductRepo) List(_ context.Context, filter dto.ProductFilter) ([]model.Product, error) {
	if r.failList != nil {
		return nil, r.failList
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Product
	for _, p := range r.products {
		if filter.Category != "" {
			if p.Category == nil || !strings.Contains(strings.ToLower(*p.Category), strings.ToLower(filter.Category)) {
				continue
			}
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if filter.Skip >= len(result) {
		return []model.Product{}, nil
	}
	result = result[filter.Skip:]
	if len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = *p
	return nil
}

func (r *stubProductRepo) Deactivate(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.IsActive = false
	p.UpdatedAt = at
	r.products[id] = p
	return nil
}

func (r *stubProductRepo) Transaction(_ context.Context, fn func(repo repository.ProductRepository) error) error {
	return fn(r)
}

func (r *stubProductRepo) Ping(context.Context) error { return nil }

// Ensure the stub satisfies the interface at compile time.
var _ repository.ProductRepository = (*stubProductRepo)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

// tickingClock advances one second on every call.
func tickingClock() func() time.Time {
	t := time.Date(2025, 10, 27, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func strPtr(s string) *string { return &s }

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func galletas() dto.CreateProductRequest {
	return dto.CreateProductRequest{
		Name:        "Galletas Festival",
		Description: strPtr("Galletas rellenas de vainilla 12 unidades"),
		Price:       price("3500.00"),
		Category:    strPtr("Snacks"),
	}
}

func newService(repo repository.ProductRepository) service.ProductService {
	return service.NewProductService(repo, nil, tickingClock())
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCreateProduct(t *testing.T) {
	svc := newService(newStubProductRepo())

	resp, err := svc.Create(context.Background(), galletas())
	require.NoError(t, err)

	assert.NotZero(t, resp.ID)
	assert.Equal(t, "Galletas Festival", resp.Name)
	assert.True(t, resp.IsActive)
	assert.True(t, resp.Price.Equal(price("3500")))
	assert.Equal(t, resp.CreatedAt, resp.UpdatedAt)
	require.NotNil(t, resp.Category)
	assert.Equal(t, "Snacks", *resp.Category)
}

func TestCreateProductRoundsPrice(t *testing.T) {
	svc := newService(newStubProductRepo())
	req := galletas()
	req.Price = price("3500.456")

	resp, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "3500.46", resp.Price.StringFixed(2))
}

func TestCreateDuplicateProduct(t *testing.T) {
	svc := newService(newStubProductRepo())

	_, err := svc.Create(context.Background(), galletas())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), galletas())
	assert.ErrorIs(t, err, service.ErrProductConflict)
}

func TestCreateDuplicateOfInactiveProduct(t *testing.T) {
	svc := newService(newStubProductRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, galletas())
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, created.ID))

	_, err = svc.Create(ctx, galletas())
	assert.ErrorIs(t, err, service.ErrProductConflict)
}

func TestCreateConcurrentSameNameOneWins(t *testing.T) {
	svc := newService(newStubProductRepo())

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), galletas())
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, service.ErrProductConflict)
	}
	assert.Equal(t, 1, ok)
}

func TestListProductsFilteredByCategory(t *testing.T) {
	svc := newService(newStubProductRepo())
	ctx := context.Background()

	for _, req := range []dto.CreateProductRequest{
		{Name: "Pepsi 500ml", Price: price("2500"), Category: strPtr("Bebidas")},
		{Name: "Papas Margarita", Price: price("2000"), Category: strPtr("Snacks")},
		{Name: "Mani Moto", Price: price("1500"), Category: strPtr("snacks salados")},
		{Name: "Sin categoria", Price: price("100")},
	} {
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	snacks, err := svc.List(ctx, dto.ProductFilter{Category: "Snacks", Limit: 100})
	require.NoError(t, err)
	require.Len(t, snacks, 2)
	for _, p := range snacks {
		assert.Contains(t, strings.ToLower(*p.Category), "snacks")
	}

	all, err := svc.List(ctx, dto.ProductFilter{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "Pepsi 500ml", all[0].Name)
}

func TestListReturnsEmptySliceNotNil(t *testing.T) {
	svc := newService(newStubProductRepo())

	got, err := svc.List(context.Background(), dto.ProductFilter{Limit: 100})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListPropagatesRepositoryError(t *testing.T) {
	repo := newStubProductRepo()
	repo.failList = errors.New("connection reset")
	svc := newService(repo)

	_, err := svc.List(context.Background(), dto.ProductFilter{Limit: 100})
	assert.ErrorContains(t, err, "connection reset")
}

func TestGetProduct(t *testing.T) {
	svc := newService(newStubProductRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, galletas())
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *got)
}

func TestGetProductNotFound(t *testing.T) {
	svc := newService(newStubProductRepo())

	_, err := svc.Get(context.Background(), 999)
	assert.ErrorIs(t, err, service.ErrProductNotFound)
}

func TestUpdatePriceOnly(t *testing.T) {
	svc := newService(newStubProductRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, galletas())
	require.NoError(t, err)

	newPrice := price("4500.00")
	updated, err := svc.Update(ctx, created.ID, dto.UpdateProductRequest{Price: &newPrice})
	require.NoError(t, err)

	assert.True(t, updated.Price.Equal(newPrice))
	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.Category, updated.Category)
	assert.Equal(t, created.IsActive, updated.IsActive)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateStrictlyLaterEvenWithFrozenClock(t *testing.T) {
	frozen := time.Date(2025, 10, 27, 12, 0, 0, 0, time.UTC)
	svc := service.NewProductService(newStubProductRepo(), nil, func() time.Time { return frozen })
	ctx := context.Background()

	created, err := svc.Create(ctx, galletas())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, dto.UpdateProductRequest{Name: strPtr("Galletas Festival Fresa")})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateClearsAndKeepsNullableFields(t *testing.T) {
	svc := newService(newStubProductRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, galletas())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, dto.UpdateProductRequest{
		Description: dto.Null[string](),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)
	require.NotNil(t, updated.Category)
	assert.Equal(t, "Snacks", *updated.Category)

	updated, err = svc.Update(ctx, created.ID, dto.UpdateProductRequest{
		Category: dto.Some("Galletas"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Galletas", *updated.Category)
	assert.Nil(t, updated.Description)
}

func TestUpdateRenameConflict(t *testing.T) {
	svc := newService(newStubProductRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, galletas())
	require.NoError(t, err)
	other, err := svc.Create(ctx, dto.CreateProductRequest{Name: "Coca-Cola 500ml", Price: price("2500")})
	require.NoError(t, err)

	_, err = svc.Update(ctx, other.ID, dto.UpdateProductRequest{Name: strPtr("Galletas Festival")})
	assert.ErrorIs(t, err, service.ErrProductConflict)

	// Same name as current value is not a conflict.
	_, err = svc.Update(ctx, other.ID, dto.UpdateProductRequest{Name: strPtr("Coca-Cola 500ml")})
	assert.NoError(t, err)
}

func TestUpdateNotFound(t *testing.T) {
	svc := newService(newStubProductRepo())
	newPrice := price("10")

	_, err := svc.Update(context.Background(), 42, dto.UpdateProductRequest{Price: &newPrice})
	assert.ErrorIs(t, err, service.ErrProductNotFound)
}

func TestUpdateIsActive(t *testing.T) {
	svc := newService(newStubProductRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, galletas())
	require.NoError(t, err)

	active := true
	got, err := svc.Update(ctx, created.ID, dto.UpdateProductRequest{IsActive: &active})
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	inactive := false
	got, err = svc.Update(ctx, created.ID, dto.UpdateProductRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = svc.Update(ctx, created.ID, dto.UpdateProductRequest{IsActive: &active})
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	still, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, still.IsActive)
}

func TestDeactivateProduct(t *testing.T) {
	svc := newService(newStubProductRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, galletas())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, created.ID))
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.True(t, got.UpdatedAt.After(created.UpdatedAt))

	// Second deactivation succeeds and leaves the state inactive.
	require.NoError(t, svc.Deactivate(ctx, created.ID))
	again, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, again.IsActive)
	assert.Equal(t, got.Name, again.Name)
	assert.True(t, got.Price.Equal(again.Price))
}

func TestDeactivateNotFound(t *testing.T) {
	svc := newService(newStubProductRepo())
	assert.ErrorIs(t, svc.Deactivate(context.Background(), 7), service.ErrProductNotFound)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/dto"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/model"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/repository"

	"github.com/rs/zerolog/log"
)

var (
	ErrProductNotFound   = errors.New("producto no encontrado")
	ErrProductConflict   = errors.New("ya existe un producto con ese nombre")
	ErrInvalidTransition = errors.New("un producto desactivado no puede reactivarse")
)

// ProductService defines the business logic contract for products.
type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, error)
	Get(ctx context.Context, id int64) (*dto.ProductResponse, error)
	Update(ctx context.Context, id int64, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, id int64) error
}

// ProductCache is a read-through cache for single products.
// Implementations are best effort: they never fail a request on their own.
type ProductCache interface {
	Get(ctx context.Context, id int64, load func(ctx context.Context) (*dto.ProductResponse, error)) (*dto.ProductResponse, error)
	Invalidate(ctx context.Context, id int64)
}

type productService struct {
	repo  repository.ProductRepository
	cache ProductCache
	clock func() time.Time
}

// NewProductService wires the service. cache may be nil (no caching) and
// clock may be nil (time.Now).
func NewProductService(repo repository.ProductRepository, cache ProductCache, clock func() time.Time) ProductService {
	if clock == nil {
		clock = time.Now
	}
	return &productService{repo: repo, cache: cache, clock: clock}
}

// toProductResponse maps the entity to the wire shape field by field.
func toProductResponse(p model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func newProduct(req dto.CreateProductRequest, now time.Time) *model.Product {
	return &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price.Round(2),
		Category:    req.Category,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// applyPatch copies only the fields present in req onto p.
// IsActive is handled by the caller because of the state machine.
func applyPatch(p *model.Product, req dto.UpdateProductRequest) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description.Set {
		p.Description = req.Description.Value
	}
	if req.Price != nil {
		p.Price = req.Price.Round(2)
	}
	if req.Category.Set {
		p.Category = req.Category.Value
	}
}

// now returns the service time at the precision Postgres stores.
func (s *productService) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// touch returns a mutation timestamp strictly after prev.
func (s *productService) touch(prev time.Time) time.Time {
	ts := s.now()
	if !ts.After(prev) {
		ts = prev.Add(time.Microsecond)
	}
	return ts
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	p := newProduct(req, s.now())

	err := s.repo.Transaction(ctx, func(repo repository.ProductRepository) error {
		if err := ensureNameFree(ctx, repo, p.Name); err != nil {
			return err
		}
		if err := repo.Create(ctx, p); err != nil {
			if errors.Is(err, repository.ErrDuplicateName) {
				return ErrProductConflict
			}
			return fmt.Errorf("create product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("product_id", p.ID).Str("name", p.Name).Msg("product created")
	resp := toProductResponse(*p)
	return &resp, nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	result := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		result = append(result, toProductResponse(p))
	}
	return result, nil
}

func (s *productService) Get(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	if s.cache == nil {
		return s.load(ctx, id)
	}
	return s.cache.Get(ctx, id, func(ctx context.Context) (*dto.ProductResponse, error) {
		return s.load(ctx, id)
	})
}

func (s *productService) load(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	p, err := findProduct(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(*p)
	return &resp, nil
}

func (s *productService) Update(ctx context.Context, id int64, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	var updated *model.Product

	err := s.repo.Transaction(ctx, func(repo repository.ProductRepository) error {
		p, err := findProduct(ctx, repo, id)
		if err != nil {
			return err
		}

		// Check uniqueness only if the name is changing
		if req.Name != nil && *req.Name != p.Name {
			if err := ensureNameFree(ctx, repo, *req.Name); err != nil {
				return err
			}
		}
		if req.IsActive != nil {
			if *req.IsActive && !p.IsActive {
				return ErrInvalidTransition
			}
			p.IsActive = *req.IsActive
		}

		applyPatch(p, req)
		p.UpdatedAt = s.touch(p.UpdatedAt)

		if err := repo.Update(ctx, p); err != nil {
			if errors.Is(err, repository.ErrDuplicateName) {
				return ErrProductConflict
			}
			return fmt.Errorf("update product %d: %w", id, err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	resp := toProductResponse(*updated)
	return &resp, nil
}

func (s *productService) Deactivate(ctx context.Context, id int64) error {
	err := s.repo.Transaction(ctx, func(repo repository.ProductRepository) error {
		p, err := findProduct(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := repo.Deactivate(ctx, id, s.touch(p.UpdatedAt)); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("deactivate product %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	log.Info().Int64("product_id", id).Msg("product deactivated")
	return nil
}

func (s *productService) invalidate(ctx context.Context, id int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

func findProduct(ctx context.Context, repo repository.ProductRepository, id int64) (*model.Product, error) {
	p, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("find product %d: %w", id, err)
	}
	return p, nil
}

func ensureNameFree(ctx context.Context, repo repository.ProductRepository, name string) error {
	_, err := repo.FindByName(ctx, name)
	switch {
	case err == nil:
		return ErrProductConflict
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("find product by name: %w", err)
	}
}

package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"freshbasket/internal/cache"
	apperrors "freshbasket/internal/errors"
	"freshbasket/internal/logger"
	"freshbasket/internal/model"
	"freshbasket/internal/repository"
)

const (
	catalogCacheKey   = "freshbasket:catalog:all:"
	catalogVersionKey = "freshbasket:catalog:version"
	highlightLimit    = 4
)

// ProductInput is the raw form data for a new product.
type ProductInput struct {
	Name     string
	Price    string
	Category string
	Icon     string
}

// Highlights is the home page selection.
type Highlights struct {
	Fruits   []model.Product `json:"fruits"`
	Featured []model.Product `json:"featured"`
}

// CatalogService handles product browsing and catalog mutation.
type CatalogService interface {
	ListAll(ctx context.Context) ([]model.Product, error)
	ListByCategory(ctx context.Context, category string) ([]model.Product, error)
	Search(ctx context.Context, substring string) ([]model.Product, error)
	Highlights(ctx context.Context) (*Highlights, error)
	Create(ctx context.Context, input ProductInput) (*model.Product, error)
	Delete(ctx context.Context, id uint) (bool, error)
	Count(ctx context.Context) (int64, error)
	SeedDefaults(ctx context.Context) (int, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	cache       cache.Store
	cacheTTL    time.Duration
	log         *logger.Logger
}

// NewCatalogService creates a new catalog service. The full listing is cached
// for cacheTTL and dropped whenever the catalog changes.
func NewCatalogService(productRepo repository.ProductRepository, c cache.Store, cacheTTL time.Duration, log *logger.Logger) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		cache:       c,
		cacheTTL:    cacheTTL,
		log:         log,
	}
}

// ListAll returns every product in insertion order.
func (s *catalogService) ListAll(ctx context.Context) ([]model.Product, error) {
	caching := s.cache != nil && s.cacheTTL > 0
	var key string
	if caching {
		key = s.listingKey(ctx)
		if raw, _ := s.cache.Get(ctx, key); raw != nil {
			var products []model.Product
			if err := json.Unmarshal(raw, &products); err == nil {
				return products, nil
			}
		}
	}

	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	if caching {
		if raw, err := json.Marshal(products); err == nil {
			_ = s.cache.Set(ctx, key, raw, s.cacheTTL)
		}
	}
	return products, nil
}

// listingKey names the cached listing for the current catalog version. A
// listing read before a mutation is stored under the retired version and
// never served again.
func (s *catalogService) listingKey(ctx context.Context) string {
	version, _ := s.cache.Get(ctx, catalogVersionKey)
	return catalogCacheKey + string(version)
}

// ListByCategory matches the category exactly, case included.
func (s *catalogService) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	return s.productRepo.ListByCategory(ctx, category, 0)
}

// Search matches names containing substring, case included.
func (s *catalogService) Search(ctx context.Context, substring string) ([]model.Product, error) {
	if substring == "" {
		return s.ListAll(ctx)
	}
	return s.productRepo.SearchByName(ctx, substring)
}

// Highlights returns the first fruits and the first products of the catalog.
func (s *catalogService) Highlights(ctx context.Context) (*Highlights, error) {
	fruits, err := s.productRepo.ListByCategory(ctx, model.CategoryFruits, highlightLimit)
	if err != nil {
		return nil, err
	}
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > highlightLimit {
		all = all[:highlightLimit]
	}
	return &Highlights{Fruits: fruits, Featured: all}, nil
}

// Create validates input and adds a product with the default stock.
func (s *catalogService) Create(ctx context.Context, input ProductInput) (*model.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "is required")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, apperrors.NewValidationError("category", "is required")
	}
	price, err := parsePrice(input.Price)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:     name,
		Price:    price,
		Category: category,
		Icon:     strings.TrimSpace(input.Icon),
		Stock:    model.DefaultStock,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.log.Zerolog(ctx).Info().Uint("product_id", product.ID).Str("name", product.Name).Msg("product created")
	return product, nil
}

// Delete removes a product. Missing ids are a no-op reported as false.
func (s *catalogService) Delete(ctx context.Context, id uint) (bool, error) {
	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.invalidate(ctx)
		s.log.Zerolog(ctx).Info().Uint("product_id", id).Msg("product deleted")
	}
	return deleted, nil
}

func (s *catalogService) Count(ctx context.Context) (int64, error) {
	return s.productRepo.Count(ctx)
}

// SeedDefaults fills an empty catalog with the default assortment.
// A catalog that already has products is left untouched.
func (s *catalogService) SeedDefaults(ctx context.Context) (int, error) {
	n, err := s.productRepo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	products := DefaultProducts()
	if err := s.productRepo.CreateBatch(ctx, products); err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	s.log.Zerolog(ctx).Info().Int("count", len(products)).Msg("catalog seeded")
	return len(products), nil
}

func (s *catalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, catalogVersionKey, []byte(uuid.NewString()), 0); err != nil {
		s.log.Error(ctx, "catalog: bump cache version", err)
	}
}

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, apperrors.NewValidationError("price", "is required")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperrors.NewValidationError("price", "must be a number")
	}
	if price.IsNegative() {
		return decimal.Zero, apperrors.NewValidationError("price", "must not be negative")
	}
	if !price.Equal(price.Round(2)) {
		return decimal.Zero, apperrors.NewValidationError("price", "must have at most two decimal places")
	}
	return price, nil
}

// DefaultProducts is the assortment seeded into an empty catalog.
func DefaultProducts() []model.Product {
	p := func(name string, price int64, category, icon string) model.Product {
		return model.Product{
			Name:     name,
			Price:    decimal.NewFromInt(price),
			Category: category,
			Icon:     icon,
			Stock:    model.DefaultStock,
		}
	}
	return []model.Product{
		p("Royal Gala Apple", 180, model.CategoryFruits, "🍎"),
		p("Alphonso Mango", 450, model.CategoryFruits, "🥭"),
		p("Organic Strawberry", 150, model.CategoryFruits, "🍓"),
		p("Organic Carrots", 60, model.CategoryVegetables, "🥕"),
		p("Wild Mushroom", 120, model.CategoryVegetables, "🍄"),
		p("Whole Wheat Bread", 45, model.CategoryBakery, "🍞"),
		p("Fresh Farm Milk", 30, model.CategoryDairy, "🥛"),
		p("Organic Broccoli", 90, model.CategoryVegetables, "🥦"),
		p("Fresh Eggs", 110, model.CategoryDairy, "🥚"),
	}
}

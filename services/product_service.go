package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"crystal-shop/models"
	"crystal-shop/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	catalogCacheKey   = "catalog:products"
	catalogPageSize   = 100
	defaultCatalogTTL = time.Minute
)

type CatalogSource interface {
	Products(ctx context.Context, first int) ([]models.Product, error)
}

type ProductFilter struct {
	Category string
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type cachedCatalog struct {
	FetchedAt time.Time        `json:"fetched_at"`
	Products  []models.Product `json:"products"`
}

// ProductService lists the remote catalog, caching it in the key-value store.
type ProductService struct {
	source CatalogSource
	cache  repositories.KeyValueStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewProductService(source CatalogSource, cache repositories.KeyValueStore, ttl time.Duration, logger *zap.Logger) *ProductService {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &ProductService{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// ParseProductFilter validates the raw query values.
func ParseProductFilter(q models.ProductQuery) (ProductFilter, error) {
	f := ProductFilter{
		Category: strings.TrimSpace(q.Category),
		Search:   strings.TrimSpace(q.Search),
		Sort:     q.Sort,
	}
	var err error
	if f.MinPrice, err = parsePrice(q.MinPrice); err != nil {
		return ProductFilter{}, err
	}
	if f.MaxPrice, err = parsePrice(q.MaxPrice); err != nil {
		return ProductFilter{}, err
	}
	return f, nil
}

func parsePrice(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, NewInvalidArgument(ErrMsgInvalidPriceFilter)
	}
	return &d, nil
}

func (s *ProductService) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	products, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}
	return FilterProducts(products, filter), nil
}

func (s *ProductService) catalog(ctx context.Context) ([]models.Product, error) {
	if raw, ok, err := s.cache.Get(ctx, catalogCacheKey); err != nil {
		s.logger.Warn("catalog cache read failed", zap.Error(err))
	} else if ok {
		var cached cachedCatalog
		if err := json.Unmarshal([]byte(raw), &cached); err == nil && s.now().Sub(cached.FetchedAt) < s.ttl {
			return cached.Products, nil
		}
	}

	products, err := s.source.Products(ctx, catalogPageSize)
	if err != nil {
		s.logger.Error("catalog fetch failed", zap.Error(err))
		return nil, NewUnavailable(ErrMsgCatalogUnavailable, err)
	}

	data, err := json.Marshal(cachedCatalog{FetchedAt: s.now(), Products: products})
	if err == nil {
		if err := s.cache.Set(ctx, catalogCacheKey, string(data)); err != nil {
			s.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return products, nil
}

// Categories lists the distinct catalog categories in name order.
func (s *ProductService) Categories(ctx context.Context) ([]models.Category, error) {
	products, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	names := make(map[string]string)
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		key := strings.ToLower(p.Category)
		if _, ok := names[key]; !ok {
			names[key] = p.Category
		}
		counts[key]++
	}

	categories := make([]models.Category, 0, len(counts))
	for key, n := range counts {
		categories = append(categories, models.Category{Name: names[key], ProductCount: n})
	}
	sort.Slice(categories, func(i, j int) bool {
		return strings.ToLower(categories[i].Name) < strings.ToLower(categories[j].Name)
	})
	return categories, nil
}

// FilterProducts applies the filter predicates and ordering to a copy of products.
func FilterProducts(products []models.Product, f ProductFilter) []models.Product {
	search := strings.ToLower(f.Search)

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		out = append(out, p)
	}

	switch f.Sort {
	case "price_asc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case "price_desc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case "title":
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		})
	case "newest":
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out
}

package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"storefront/internal/caching"
	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100

	imageURLExpiry = time.Hour
)

type ProductService interface {
	List(ctx context.Context, page, perPage int) (*models.ProductPage, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Update(ctx context.Context, id int64, update models.ProductUpdate) (*models.Product, error)
	UploadImage(ctx context.Context, id int64, filename, contentType string, reader io.Reader, size int64) (*models.Product, error)
}

type productService struct {
	productRepo  repositories.ProductRepository
	cacheService caching.CacheService
	invalidator  CacheInvalidationService
	minioService MinioService
	cacheTTL     time.Duration
}

// NewProductService builds the catalog service. minioService may be nil when image storage is disabled.
func NewProductService(productRepo repositories.ProductRepository, cacheService caching.CacheService, invalidator CacheInvalidationService, minioService MinioService, cacheTTL time.Duration) ProductService {
	return &productService{
		productRepo:  productRepo,
		cacheService: cacheService,
		invalidator:  invalidator,
		minioService: minioService,
		cacheTTL:     cacheTTL,
	}
}

// NormalizePaging applies the listing defaults and clamps per_page to [1, MaxPerPage].
func NormalizePaging(page, perPage int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	if perPage < 1 {
		perPage = 1
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

func (s *productService) List(ctx context.Context, page, perPage int) (*models.ProductPage, error) {
	page, perPage = NormalizePaging(page, perPage)

	if cached, err := s.cacheService.GetProductPage(ctx, page, perPage); err != nil {
		log.Warn().Err(err).Int("page", page).Int("per_page", perPage).Msg("product page cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	total, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*models.Product{}
	}
	for _, p := range products {
		s.attachImageURL(ctx, p)
	}

	result := &models.ProductPage{
		Data:        products,
		CurrentPage: page,
		LastPage:    models.LastPageFor(total, perPage),
		PerPage:     perPage,
		Total:       total,
	}

	if err := s.cacheService.SetProductPage(ctx, result, s.cacheTTL); err != nil {
		log.Warn().Err(err).Int("page", page).Int("per_page", perPage).Msg("product page cache write failed")
	}
	return result, nil
}

func (s *productService) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	if cached, err := s.cacheService.GetProduct(ctx, id); err != nil {
		log.Warn().Err(err).Int64("product_id", id).Msg("product cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.attachImageURL(ctx, product)

	if err := s.cacheService.SetProduct(ctx, product, s.cacheTTL); err != nil {
		log.Warn().Err(err).Int64("product_id", id).Msg("product cache write failed")
	}
	return product, nil
}

func (s *productService) Update(ctx context.Context, id int64, update models.ProductUpdate) (*models.Product, error) {
	if update.Price.IsNegative() {
		return nil, fmt.Errorf("price must not be negative")
	}
	if update.QtyStock < 0 {
		return nil, fmt.Errorf("qty_stock must not be negative")
	}

	product, err := s.productRepo.Update(ctx, id, update.Price.Round(2), update.QtyStock)
	if err != nil {
		return nil, err
	}
	s.attachImageURL(ctx, product)
	s.invalidate(ctx, id)

	log.Info().
		Int64("product_id", id).
		Str("price", product.Price.StringFixed(2)).
		Int("qty_stock", product.QtyStock).
		Str("updated_by", updatedBy(ctx)).
		Msg("product updated")
	return product, nil
}

func (s *productService) UploadImage(ctx context.Context, id int64, filename, contentType string, reader io.Reader, size int64) (*models.Product, error) {
	if s.minioService == nil {
		return nil, ErrImageStorageDisabled
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("products/%d/%s%s", id, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	if err := s.minioService.UploadImage(ctx, objectName, contentType, reader, size); err != nil {
		return nil, fmt.Errorf("failed to upload product image: %w", err)
	}
	if err := s.productRepo.SetImageKey(ctx, id, &objectName); err != nil {
		if delErr := s.minioService.DeleteImage(ctx, objectName); delErr != nil {
			log.Warn().Err(delErr).Str("object", objectName).Msg("failed to remove orphaned product image")
		}
		return nil, err
	}

	if product.ImageKey != nil {
		if err := s.minioService.DeleteImage(ctx, *product.ImageKey); err != nil {
			log.Warn().Err(err).Str("object", *product.ImageKey).Msg("failed to remove previous product image")
		}
	}
	product.ImageKey = &objectName
	s.attachImageURL(ctx, product)
	s.invalidate(ctx, id)

	log.Info().Int64("product_id", id).Str("object", objectName).Str("updated_by", updatedBy(ctx)).Msg("product image uploaded")

	return product, nil
}

func (s *productService) attachImageURL(ctx context.Context, product *models.Product) {
	if s.minioService == nil || product.ImageKey == nil || *product.ImageKey == "" {
		return
	}
	u, err := s.minioService.GetPresignedURL(ctx, *product.ImageKey, imageURLExpiry)
	if err != nil {
		log.Warn().Err(err).Int64("product_id", product.ID).Msg("failed to presign product image")
		return
	}
	product.ImageURL = u
}

func (s *productService) invalidate(ctx context.Context, ids ...int64) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateProducts(ctx, ids...); err != nil {
		log.Warn().Err(err).Ints64("product_ids", ids).Msg("product cache invalidation failed")
	}
}

// updatedBy names the authenticated caller, or "anonymous" when admin auth is off.
func updatedBy(ctx context.Context) string {
	if sub, ok := common.GetSubjectFromContext(ctx); ok {
		return sub
	}
	return "anonymous"
}

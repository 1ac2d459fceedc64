package service

import (
	"context"
	"errors"
	"storefront-api/internal/apperror"
	"storefront-api/internal/dto"
	"storefront-api/internal/model"
	"storefront-api/internal/repository"

	"gorm.io/gorm"
)

type CatalogService interface {
	ListProducts(ctx context.Context, page, limit int) (*dto.ProductPage, error)
	GetProduct(ctx context.Context, productID string) (*dto.ProductResponse, error)
}

type catalogServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogServiceImpl{
		productRepo: productRepo,
	}
}

func (s *catalogServiceImpl) ListProducts(ctx context.Context, page, limit int) (*dto.ProductPage, error) {
	page, limit = normalizePage(page, limit)

	products, total, err := s.productRepo.ListActive(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, apperror.Dependency("list products", err)
	}

	resp := &dto.ProductPage{
		Products:   make([]*dto.ProductResponse, len(products)),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}
	for i, p := range products {
		resp.Products[i] = toProductResponse(p)
	}
	return resp, nil
}

func (s *catalogServiceImpl) GetProduct(ctx context.Context, productID string) (*dto.ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("product not found")
	}
	if err != nil {
		return nil, apperror.Dependency("get product", err)
	}
	if !product.IsActive {
		return nil, apperror.NotFound("product not found")
	}

	return toProductResponse(product), nil
}

func toProductResponse(p *model.Product) *dto.ProductResponse {
	resp := &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		SKU:         p.SKU,
		Images:      []string(p.Images),
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if p.SalePrice.Valid {
		sale := p.SalePrice.Decimal
		resp.SalePrice = &sale
	}
	for _, v := range p.Variants {
		resp.Variants = append(resp.Variants, &dto.ProductVariantResponse{
			ID:            v.ID,
			SKU:           v.SKU,
			Size:          v.Size,
			Color:         v.Color,
			StockQuantity: v.StockQuantity,
		})
	}
	return resp
}

package repository

import (
	"context"
	"storefront-api/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error)
	ListActive(ctx context.Context, offset, limit int) ([]*model.Product, int64, error)
	FindVariants(ctx context.Context, tx *gorm.DB, productID string) ([]*model.ProductVariant, error)
	FindVariant(ctx context.Context, tx *gorm.DB, variantID string) (*model.ProductVariant, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{
			ID: "8f1c2a4e-1b7d-4c55-9a43-0d7a7b3c9e01", Name: "Remera Lazo", Description: "Remera de algodón peinado",
			Price: decimal.NewFromInt(25000), SKU: "REM-001", Images: model.StringList{"/images/remera-lazo.jpg"}, IsActive: true,
			Variants: []model.ProductVariant{
				{ID: "3d6f0c1b-5e2a-4f7b-8c9d-1a2b3c4d5e01", SKU: "REM-001-S-BLK", Size: "S", Color: "negro", StockQuantity: 10},
				{ID: "3d6f0c1b-5e2a-4f7b-8c9d-1a2b3c4d5e02", SKU: "REM-001-M-BLK", Size: "M", Color: "negro", StockQuantity: 10},
				{ID: "3d6f0c1b-5e2a-4f7b-8c9d-1a2b3c4d5e03", SKU: "REM-001-M-WHT", Size: "M", Color: "blanco", StockQuantity: 5},
			},
		},
		{
			ID: "8f1c2a4e-1b7d-4c55-9a43-0d7a7b3c9e02", Name: "Buzo Lazo", Description: "Buzo con capucha",
			Price: decimal.NewFromInt(48000), SKU: "BUZ-001", Images: model.StringList{"/images/buzo-lazo.jpg"}, IsActive: true,
			Variants: []model.ProductVariant{
				{ID: "3d6f0c1b-5e2a-4f7b-8c9d-1a2b3c4d5e11", SKU: "BUZ-001-L-GRY", Size: "L", Color: "gris", StockQuantity: 4},
			},
		},
		{
			ID: "8f1c2a4e-1b7d-4c55-9a43-0d7a7b3c9e03", Name: "Gorra Lazo", Description: "Gorra bordada",
			Price: decimal.NewFromInt(10000), SKU: "GOR-001", Images: model.StringList{"/images/gorra-lazo.jpg"}, IsActive: true,
		},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) ListActive(ctx context.Context, offset, limit int) ([]*model.Product, int64, error) {
	var (
		products []*model.Product
		total    int64
	)

	query := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("is_active = ?", true).
		Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Variants").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&products).
		Error
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// FindVariants returns the variants of a product in insertion order.
func (r *productRepoImpl) FindVariants(ctx context.Context, tx *gorm.DB, productID string) ([]*model.ProductVariant, error) {
	var variants []*model.ProductVariant
	err := tx.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&variants).
		Error

	if err != nil {
		return nil, err
	}

	return variants, nil
}

func (r *productRepoImpl) FindVariant(ctx context.Context, tx *gorm.DB, variantID string) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	err := tx.WithContext(ctx).
		Where("id = ?", variantID).
		First(&variant).Error

	if err != nil {
		return nil, err
	}

	return &variant, nil
}

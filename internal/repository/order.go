package repository

import (
	"context"
	"storefront-api/internal/model"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderFilter struct {
	UserID        string
	Status        model.OrderStatus
	PaymentStatus model.PaymentStatus
	Offset        int
	Limit         int
}

type OrderStats struct {
	TotalOrders     int64
	CompletedOrders int64
	PendingOrders   int64
	TotalRevenue    decimal.Decimal
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*model.Order, int64, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, from, to model.OrderStatus, notes *string) error
	UpdatePaymentStatus(ctx context.Context, tx *gorm.DB, orderID string, from, to model.PaymentStatus, paymentID string) error
	Stats(ctx context.Context) (*OrderStats, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Omit("User", "ShippingAddress", "Items").Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Omit("Product").Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.withDetails(r.db.WithContext(ctx)).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter OrderFilter) ([]*model.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := r.withDetails(query).
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// UpdateStatus only applies when the order is still in the expected status.
func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, from, to model.OrderStatus, notes *string) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if notes != nil {
		updates["notes"] = *notes
	}

	result := tx.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *orderRepoImpl) UpdatePaymentStatus(ctx context.Context, tx *gorm.DB, orderID string, from, to model.PaymentStatus, paymentID string) error {
	result := tx.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", orderID, from).
		Updates(map[string]interface{}{
			"payment_status": to,
			"payment_id":     paymentID,
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *orderRepoImpl) Stats(ctx context.Context) (*OrderStats, error) {
	var stats OrderStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Order{}).
		Where("status = ?", model.OrderStatusPending).
		Count(&stats.PendingOrders).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Order{}).
		Where("status = ?", model.OrderStatusDelivered).
		Count(&stats.CompletedOrders).Error; err != nil {
		return nil, err
	}

	var revenue decimal.NullDecimal
	err := db.Model(&model.Order{}).
		Where("status = ?", model.OrderStatusDelivered).
		Select("SUM(total)").
		Row().
		Scan(&revenue)
	if err != nil {
		return nil, err
	}
	stats.TotalRevenue = revenue.Decimal

	return &stats, nil
}

func (r *orderRepoImpl) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("id ASC")
		}).
		Preload("Items.Product").
		Preload("ShippingAddress").
		Preload("User")
}

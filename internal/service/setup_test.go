package service

import (
	"context"
	"fmt"
	"testing"

	"storefront-api/internal/client"
	"storefront-api/internal/config"
	"storefront-api/internal/events"
	"storefront-api/internal/logging"
	"storefront-api/internal/model"
	"storefront-api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	remeraID  = "8f1c2a4e-1b7d-4c55-9a43-0d7a7b3c9e01"
	buzoID    = "8f1c2a4e-1b7d-4c55-9a43-0d7a7b3c9e02"
	gorraID   = "8f1c2a4e-1b7d-4c55-9a43-0d7a7b3c9e03"
	remeraSBk = "3d6f0c1b-5e2a-4f7b-8c9d-1a2b3c4d5e01"
	remeraMWh = "3d6f0c1b-5e2a-4f7b-8c9d-1a2b3c4d5e03"
	buzoLGr   = "3d6f0c1b-5e2a-4f7b-8c9d-1a2b3c4d5e11"

	buyerID = "user-buyer"
	otherID = "user-other"
)

type fixture struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	addressRepo repository.AddressRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	webhookRepo repository.WebhookEventRepository
	events      *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, client.Migrate(db))

	f := &fixture{
		db:          db,
		orderRepo:   repository.NewOrderRepository(db),
		addressRepo: repository.NewAddressRepository(db),
		userRepo:    repository.NewUserRepository(db),
		productRepo: repository.NewProductRepository(db),
		webhookRepo: repository.NewWebhookEventRepository(db),
		events:      events.NewRecorder(),
	}

	ctx := context.Background()
	require.NoError(t, f.productRepo.Seed(ctx))
	require.NoError(t, f.userRepo.Upsert(ctx, &model.User{
		ID: buyerID, Email: "ana@example.com", Name: "Ana Diaz", FirstName: "Ana", LastName: "Diaz",
	}))
	require.NoError(t, f.userRepo.Upsert(ctx, &model.User{
		ID: otherID, Email: "otro@example.com", Name: "Otro", FirstName: "Otro",
	}))

	return f
}

func (f *fixture) orderService(strict bool) OrderService {
	return f.orderServiceWithRepo(f.orderRepo, strict)
}

func (f *fixture) orderServiceWithRepo(orderRepo repository.OrderRepository, strict bool) OrderService {
	return NewOrderService(
		f.db,
		orderRepo,
		f.addressRepo,
		f.userRepo,
		f.productRepo,
		f.events,
		config.Pricing{StrictTotals: strict},
		logging.Discard(),
	)
}

func (f *fixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func buyer() *Identity {
	return &Identity{UserID: buyerID, Email: "ana@example.com"}
}

func admin() *Identity {
	return &Identity{UserID: "user-admin", Email: "admin@lazo.com", IsAdmin: true}
}

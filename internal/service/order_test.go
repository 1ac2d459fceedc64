package service

import (
	"context"
	"errors"
	"testing"

	"storefront-api/internal/apperror"
	"storefront-api/internal/dto"
	"storefront-api/internal/events"
	"storefront-api/internal/model"
	"storefront-api/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func decStr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

func validAddress() *dto.ShippingAddressRequest {
	return &dto.ShippingAddressRequest{
		Address:       "Av. Corrientes",
		AddressNumber: "1234",
		City:          "Buenos Aires",
		Province:      "CABA",
		PostalCode:    "1043",
	}
}

func TestCreateOrderAboveFreeShippingThreshold(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)

	order, err := svc.CreateOrder(context.Background(), buyerID, &dto.CreateOrderRequest{
		Items: []*dto.LineItemRequest{
			{ProductID: remeraID, Quantity: 3, UnitPrice: dec(25000)},
		},
		ShippingAddress: validAddress(),
		ShippingMethod:  "standard",
	})
	require.NoError(t, err)

	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(75000)))
	assert.True(t, order.ShippingCost.IsZero())
	assert.True(t, order.TaxAmount.Equal(decimal.NewFromInt(15750)))
	assert.True(t, order.Total.Equal(decimal.NewFromInt(90750)))
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "pending", order.PaymentStatus)
	assert.Equal(t, model.PaymentMethodMercadoPago, order.PaymentMethod)
	assert.Len(t, order.OrderNumber, 36)
	assert.Equal(t, 3, order.TotalItems)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "Remera Lazo", item.ProductName)
	assert.Equal(t, []string{"/images/remera-lazo.jpg"}, item.ProductImages)
	assert.True(t, item.Total.Equal(decimal.NewFromInt(75000)))
	require.NotNil(t, item.ProductVariantID)
	assert.Equal(t, remeraSBk, *item.ProductVariantID)

	require.NotNil(t, order.User)
	assert.Equal(t, "ana@example.com", order.User.Email)
	assert.Equal(t, "Ana", order.User.FirstName)

	require.NotNil(t, order.ShippingAddressID)
	address, err := f.addressRepo.FindByID(context.Background(), *order.ShippingAddressID)
	require.NoError(t, err)
	assert.Equal(t, "Av. Corrientes", address.AddressLine1)
	assert.Equal(t, "1234", address.AddressLine2)
	assert.Equal(t, "CABA", address.State)
	assert.Equal(t, "AR", address.Country)
	assert.Equal(t, "Ana", address.FirstName)
	assert.Equal(t, "Diaz", address.LastName)

	stored, err := f.orderRepo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(90750)))
	assert.Equal(t, "Av. Corrientes", stored.BillingAddress.Street)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 3, stored.Items[0].Quantity)

	created := f.events.OfType(events.OrderCreated)
	require.Len(t, created, 1)
	assert.Equal(t, order.ID, created[0].OrderID)
}

func TestCreateOrderExpressBelowThreshold(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)

	order, err := svc.CreateOrder(context.Background(), buyerID, &dto.CreateOrderRequest{
		Items: []*dto.LineItemRequest{
			{ProductID: gorraID, Quantity: 1, Price: dec(10000)},
		},
		ShippingAddress: validAddress(),
		ShippingMethod:  "express",
	})
	require.NoError(t, err)

	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(10000)))
	assert.True(t, order.ShippingCost.Equal(decimal.NewFromInt(4500)))
	assert.True(t, order.TaxAmount.Equal(decimal.NewFromInt(2100)))
	assert.True(t, order.Total.Equal(decimal.NewFromInt(16600)))

	require.Len(t, order.Items, 1)
	assert.Nil(t, order.Items[0].ProductVariantID, "product without variants keeps a null variant")
}

func TestCreateOrderPriceFallsBackToZero(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)

	order, err := svc.CreateOrder(context.Background(), buyerID, &dto.CreateOrderRequest{
		Items:           []*dto.LineItemRequest{{ProductID: gorraID, Quantity: 2}},
		ShippingAddress: validAddress(),
	})
	require.NoError(t, err)

	assert.True(t, order.Subtotal.IsZero())
	assert.True(t, order.ShippingCost.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, "standard", order.ShippingMethod)
}

func TestCreateOrderRejectsBlankAddress(t *testing.T) {
	cases := map[string]*dto.ShippingAddressRequest{
		"empty":                  {Address: "", City: "Buenos Aires", PostalCode: "1043"},
		"whitespace":             {Address: "   \t", City: "Buenos Aires", PostalCode: "1043"},
		"street without address": {Address: "", Street: "Calle Falsa", Number: "123", City: "Springfield", PostalCode: "1000"},
	}
	for name, address := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			svc := f.orderService(false)

			_, err := svc.CreateOrder(context.Background(), buyerID, &dto.CreateOrderRequest{
				Items:           []*dto.LineItemRequest{{ProductID: gorraID, Quantity: 1, Price: dec(10000)}},
				ShippingAddress: address,
			})
			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

			assert.Zero(t, f.count(t, &model.Address{}))
			assert.Zero(t, f.count(t, &model.Order{}))
			assert.Zero(t, f.count(t, &model.OrderItem{}))
		})
	}
}

func TestCreateOrderRejectsInvalidItems(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)

	cases := map[string]*dto.CreateOrderRequest{
		"no items":        {ShippingAddress: validAddress()},
		"zero quantity":   {Items: []*dto.LineItemRequest{{ProductID: gorraID, Quantity: 0}}, ShippingAddress: validAddress()},
		"missing product": {Items: []*dto.LineItemRequest{{Quantity: 1}}, ShippingAddress: validAddress()},
		"negative price":  {Items: []*dto.LineItemRequest{{ProductID: gorraID, Quantity: 1, Price: dec(-1)}}, ShippingAddress: validAddress()},
		"missing address": {Items: []*dto.LineItemRequest{{ProductID: gorraID, Quantity: 1}}},
		"sub-cent price": {
			Items:           []*dto.LineItemRequest{{ProductID: gorraID, Quantity: 1, Price: decStr("10.001")}},
			ShippingAddress: validAddress(),
		},
		"sub-cent unit price": {
			Items:           []*dto.LineItemRequest{{ProductID: gorraID, Quantity: 3, UnitPrice: decStr("9999.995")}},
			ShippingAddress: validAddress(),
		},
		"client tax beyond stored scale": {
			Items:           []*dto.LineItemRequest{{ProductID: gorraID, Quantity: 1, Price: dec(10000)}},
			ShippingAddress: validAddress(),
			Totals:          &dto.TotalsRequest{Tax: decStr("2100.00001")},
		},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), buyerID, req)
			assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)
		})
	}
	assert.Zero(t, f.count(t, &model.Order{}))
	assert.Zero(t, f.count(t, &model.Address{}))
}

func TestCreateOrderResolvesVariantByLabels(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)

	order, err := svc.CreateOrder(context.Background(), buyerID, &dto.CreateOrderRequest{
		Items: []*dto.LineItemRequest{
			{ProductID: remeraID, Quantity: 1, Price: dec(25000), Size: "m", Color: "Blanco"},
		},
		ShippingAddress: validAddress(),
	})
	require.NoError(t, err)
	require.NotNil(t, order.Items[0].ProductVariantID)
	assert.Equal(t, remeraMWh, *order.Items[0].ProductVariantID)

	_, err = svc.CreateOrder(context.Background(), buyerID, &dto.CreateOrderRequest{
		Items: []*dto.LineItemRequest{
			{ProductID: remeraID, Quantity: 1, Price: dec(25000), Size: "XL"},
		},
		ShippingAddress: validAddress(),
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, int64(1), f.count(t, &model.Order{}))
}

func TestCreateOrderExplicitVariant(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)

	order, err := svc.CreateOrder(context.Background(), buyerID, &dto.CreateOrderRequest{
		Items: []*dto.LineItemRequest{
			{ProductID: buzoID, VariantID: strPtr(buzoLGr), Quantity: 1, Price: dec(48000)},
		},
		ShippingAddress: validAddress(),
	})
	require.NoError(t, err)
	assert.Equal(t, buzoLGr, *order.Items[0].ProductVariantID)
	assert.Equal(t, "L", order.Items[0].Size)
	assert.Equal(t, "gris", order.Items[0].Color)

	_, err = svc.CreateOrder(context.Background(), buyerID, &dto.CreateOrderRequest{
		Items: []*dto.LineItemRequest{
			{ProductID: remeraID, VariantID: strPtr(buzoLGr), Quantity: 1, Price: dec(25000)},
		},
		ShippingAddress: validAddress(),
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)

	_, err := svc.CreateOrder(context.Background(), buyerID, &dto.CreateOrderRequest{
		Items:           []*dto.LineItemRequest{{ProductID: "missing", Quantity: 1}},
		ShippingAddress: validAddress(),
	})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestCreateOrderUnknownUser(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)

	_, err := svc.CreateOrder(context.Background(), "ghost", &dto.CreateOrderRequest{
		Items:           []*dto.LineItemRequest{{ProductID: gorraID, Quantity: 1}},
		ShippingAddress: validAddress(),
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindDependency, apperror.KindOf(err))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateOrderTrustsClientTotals(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)

	order, err := svc.CreateOrder(context.Background(), buyerID, &dto.CreateOrderRequest{
		Items:           []*dto.LineItemRequest{{ProductID: gorraID, Quantity: 1, Price: dec(10000)}},
		ShippingAddress: validAddress(),
		Totals: &dto.TotalsRequest{
			Subtotal: dec(1),
			Shipping: dec(2500),
			Tax:      dec(2100),
			Total:    dec(14000),
		},
	})
	require.NoError(t, err)

	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(10000)), "client subtotal is never trusted")
	assert.True(t, order.Total.Equal(decimal.NewFromInt(14000)))
}

func TestCreateOrderStrictTotals(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(true)

	_, err := svc.CreateOrder(context.Background(), buyerID, &dto.CreateOrderRequest{
		Items:           []*dto.LineItemRequest{{ProductID: gorraID, Quantity: 1, Price: dec(10000)}},
		ShippingAddress: validAddress(),
		Totals:          &dto.TotalsRequest{Shipping: dec(0)},
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindUnprocessable, apperror.KindOf(err))
	assert.Zero(t, f.count(t, &model.Order{}))

	_, err = svc.CreateOrder(context.Background(), buyerID, &dto.CreateOrderRequest{
		Items:           []*dto.LineItemRequest{{ProductID: gorraID, Quantity: 1, Price: dec(10000)}},
		ShippingAddress: validAddress(),
		Totals:          &dto.TotalsRequest{Shipping: dec(2500), Tax: dec(2100), Total: dec(14600)},
	})
	assert.NoError(t, err)
}

type failingItemsRepo struct {
	repository.OrderRepository
}

func (r failingItemsRepo) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return errors.New("disk full")
}

func TestCreateOrderRollsBackOnItemFailure(t *testing.T) {
	f := newFixture(t)
	svc := f.orderServiceWithRepo(failingItemsRepo{f.orderRepo}, false)

	_, err := svc.CreateOrder(context.Background(), buyerID, &dto.CreateOrderRequest{
		Items:           []*dto.LineItemRequest{{ProductID: gorraID, Quantity: 1, Price: dec(10000)}},
		ShippingAddress: validAddress(),
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindDependency, apperror.KindOf(err))

	assert.Zero(t, f.count(t, &model.Address{}))
	assert.Zero(t, f.count(t, &model.Order{}))
	assert.Empty(t, f.events.Events())
}

func createOrder(t *testing.T, svc OrderService, userID string) *dto.OrderResponse {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), userID, &dto.CreateOrderRequest{
		Items:           []*dto.LineItemRequest{{ProductID: gorraID, Quantity: 1, Price: dec(10000)}},
		ShippingAddress: validAddress(),
	})
	require.NoError(t, err)
	return order
}

func TestGetOrderKeepsLineOrder(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)
	ctx := context.Background()

	requested := []string{gorraID, remeraID, buzoID, gorraID}
	items := make([]*dto.LineItemRequest, len(requested))
	for i, id := range requested {
		items[i] = &dto.LineItemRequest{ProductID: id, Quantity: i + 1, Price: dec(1000)}
	}
	created, err := svc.CreateOrder(ctx, buyerID, &dto.CreateOrderRequest{Items: items, ShippingAddress: validAddress()})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		order, err := svc.GetOrder(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, order.Items, len(requested))
		for j, item := range order.Items {
			assert.Equal(t, requested[j], item.ProductID)
			assert.Equal(t, j+1, item.Quantity)
		}
	}
}

func TestGetOrderForUser(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)
	order := createOrder(t, svc, buyerID)
	ctx := context.Background()

	got, err := svc.GetOrderForUser(ctx, order.ID, buyer())
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, "Gorra Lazo", got.Items[0].ProductName)
	require.NotNil(t, got.ShippingAddress)
	assert.Equal(t, "Av. Corrientes", got.ShippingAddress.AddressLine1)

	_, err = svc.GetOrderForUser(ctx, order.ID, &Identity{UserID: otherID})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = svc.GetOrderForUser(ctx, order.ID, admin())
	assert.NoError(t, err)

	_, err = svc.GetOrder(ctx, "does-not-exist")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)
	order := createOrder(t, svc, buyerID)
	ctx := context.Background()

	_, err := svc.CancelOrder(ctx, order.ID, &Identity{UserID: otherID}, "")
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	cancelled, err := svc.CancelOrder(ctx, order.ID, buyer(), "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "Cancelled: changed my mind", cancelled.Notes)

	_, err = svc.CancelOrder(ctx, order.ID, buyer(), "")
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	changed := f.events.OfType(events.OrderStatusChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "cancelled", changed[0].Data["to"])
}

func TestCancelOrderDefaultReason(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)
	order := createOrder(t, svc, buyerID)

	cancelled, err := svc.CancelOrder(context.Background(), order.ID, admin(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "Cancelled: Cancelled by user", cancelled.Notes)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)
	order := createOrder(t, svc, buyerID)
	ctx := context.Background()

	_, err := svc.UpdateOrderStatus(ctx, order.ID, model.OrderStatusShipped)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	_, err = svc.UpdateOrderStatus(ctx, order.ID, model.OrderStatus("lost"))
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	for _, next := range []model.OrderStatus{
		model.OrderStatusConfirmed,
		model.OrderStatusProcessing,
		model.OrderStatusShipped,
		model.OrderStatusDelivered,
	} {
		updated, err := svc.UpdateOrderStatus(ctx, order.ID, next)
		require.NoError(t, err)
		assert.Equal(t, string(next), updated.Status)
	}

	_, err = svc.UpdateOrderStatus(ctx, order.ID, model.OrderStatusCancelled)
	assert.True(t, apperror.Is(err, apperror.KindConflict), "delivered is terminal")
	assert.Len(t, f.events.OfType(events.OrderStatusChanged), 4)
}

func TestListUserOrders(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)
	for i := 0; i < 3; i++ {
		createOrder(t, svc, buyerID)
	}
	createOrder(t, svc, otherID)
	ctx := context.Background()

	page, err := svc.ListUserOrders(ctx, buyerID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Orders, 2)
	assert.Equal(t, 2, page.TotalPages)
	for _, o := range page.Orders {
		assert.Equal(t, buyerID, o.UserID)
	}

	page, err = svc.ListUserOrders(ctx, buyerID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Len(t, page.Orders, 3)

	all, err := svc.ListOrders(ctx, dto.OrderListQuery{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Total)

	none, err := svc.ListOrders(ctx, dto.OrderListQuery{PaymentStatus: "paid"})
	require.NoError(t, err)
	assert.Zero(t, none.Total)
	assert.Empty(t, none.Orders)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	svc := f.orderService(false)
	ctx := context.Background()

	delivered := createOrder(t, svc, buyerID)
	createOrder(t, svc, buyerID)
	for _, next := range []model.OrderStatus{
		model.OrderStatusConfirmed, model.OrderStatusProcessing, model.OrderStatusShipped, model.OrderStatusDelivered,
	} {
		_, err := svc.UpdateOrderStatus(ctx, delivered.ID, next)
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.CompletedOrders)
	assert.Equal(t, int64(1), stats.PendingOrders)
	assert.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(14600)), "got %s", stats.TotalRevenue)
}

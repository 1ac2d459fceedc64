package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"storefront-api/internal/apperror"
	"storefront-api/internal/config"
	"storefront-api/internal/dto"
	"storefront-api/internal/events"
	"storefront-api/internal/model"
	"storefront-api/internal/pricing"
	"storefront-api/internal/repository"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultCancelReason = "Cancelled by user"

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*dto.OrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (*dto.OrderResponse, error)
	GetOrderForUser(ctx context.Context, orderID string, identity *Identity) (*dto.OrderResponse, error)
	ListUserOrders(ctx context.Context, userID string, page, limit int) (*dto.OrderPage, error)
	ListOrders(ctx context.Context, query dto.OrderListQuery) (*dto.OrderPage, error)
	CancelOrder(ctx context.Context, orderID string, identity *Identity, reason string) (*dto.OrderResponse, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*dto.OrderResponse, error)
	Stats(ctx context.Context) (*dto.OrderStatsResponse, error)
}

type orderServiceImpl struct {
	db           *gorm.DB
	orderRepo    repository.OrderRepository
	addressRepo  repository.AddressRepository
	userRepo     repository.UserRepository
	productRepo  repository.ProductRepository
	publisher    events.Publisher
	strictTotals bool
	logger       *slog.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	addressRepo repository.AddressRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	publisher events.Publisher,
	pricingCfg config.Pricing,
	logger *slog.Logger,
) OrderService {
	return &orderServiceImpl{
		db:           db,
		orderRepo:    orderRepo,
		addressRepo:  addressRepo,
		userRepo:     userRepo,
		productRepo:  productRepo,
		publisher:    publisher,
		strictTotals: pricingCfg.StrictTotals,
		logger:       logger,
	}
}

func (s *orderServiceImpl) CreateOrder(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	shippingMethod := pricing.ShippingMethod(req.ShippingMethod)
	if !pricing.IsKnownShippingMethod(shippingMethod) {
		shippingMethod = pricing.ShippingStandard
	}
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = model.PaymentMethodMercadoPago
	}

	lines := make([]pricing.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = pricing.Line{Price: item.ResolvedPrice(), Quantity: item.Quantity}
	}
	totals, err := s.reconcileTotals(ctx, pricing.Calculate(lines, shippingMethod), req.Totals)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.Dependency("get order user", fmt.Errorf("user %s: %w", userID, err))
	}

	products, err := s.loadProducts(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	items := make([]*model.OrderItem, len(req.Items))
	for i, item := range req.Items {
		product := products[item.ProductID]
		variant, err := s.resolveVariant(ctx, product, item)
		if err != nil {
			return nil, err
		}

		price := item.ResolvedPrice()
		orderItem := &model.OrderItem{
			ProductID: product.ID,
			Position:  i + 1,
			Quantity:  item.Quantity,
			Price:     price,
			Total:     price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			Size:      item.Size,
			Color:     item.Color,
		}
		if variant != nil {
			orderItem.ProductVariantID = &variant.ID
			if orderItem.Size == "" {
				orderItem.Size = variant.Size
			}
			if orderItem.Color == "" {
				orderItem.Color = variant.Color
			}
		}
		items[i] = orderItem
	}

	shipping := req.ShippingAddress
	address := &model.Address{
		UserID:       userID,
		Type:         "shipping",
		FirstName:    firstNonEmpty(shipping.FirstName, user.FirstName),
		LastName:     firstNonEmpty(shipping.LastName, user.LastName),
		Phone:        shipping.Phone,
		AddressLine1: shipping.PrimaryLine(),
		AddressLine2: shipping.SecondaryLine(),
		City:         shipping.City,
		State:        shipping.ResolvedState(),
		PostalCode:   shipping.PostalCode,
		Country:      shipping.ResolvedCountry(),
	}

	order := &model.Order{
		OrderNumber:    uuid.NewString(),
		UserID:         userID,
		Status:         model.OrderStatusPending,
		PaymentStatus:  model.PaymentStatusPending,
		Subtotal:       totals.Subtotal,
		ShippingCost:   totals.Shipping,
		TaxAmount:      totals.Tax,
		Total:          totals.Total,
		ShippingMethod: string(shippingMethod),
		PaymentMethod:  paymentMethod,
		Notes:          req.Notes,
		BillingAddress: billingSnapshot(req),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.addressRepo.Create(ctx, tx, address); err != nil {
			return fmt.Errorf("store shipping address: %w", err)
		}

		order.ShippingAddressID = &address.ID
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}

		for _, item := range items {
			item.OrderID = order.ID
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
			return fmt.Errorf("store order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, apperror.Dependency("create order", err)
	}

	order.User = user
	order.ShippingAddress = address
	order.Items = make([]model.OrderItem, len(items))
	for i, item := range items {
		item.Product = products[item.ProductID]
		order.Items[i] = *item
	}

	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"user_id", userID,
		"total", order.Total.String(),
	)
	s.publish(ctx, events.NewEvent(events.OrderCreated, order.ID, userID, map[string]string{
		"order_number": order.OrderNumber,
		"total":        order.Total.String(),
	}))

	return toOrderResponse(order), nil
}

func validateCreateOrder(req *dto.CreateOrderRequest) error {
	if req == nil || len(req.Items) == 0 {
		return apperror.Validation("order must contain at least one item")
	}
	for _, item := range req.Items {
		if item == nil || strings.TrimSpace(item.ProductID) == "" {
			return apperror.Validation("product_id is required for every item")
		}
		if item.Quantity < 1 {
			return apperror.Validation("quantity must be at least 1")
		}
		price := item.ResolvedPrice()
		if price.IsNegative() {
			return apperror.Validation("price must not be negative")
		}
		if !pricing.FitsScale(price, pricing.PriceScale) {
			return apperror.Validation(fmt.Sprintf("price must have at most %d decimal places", pricing.PriceScale))
		}
	}
	if req.ShippingAddress == nil || req.ShippingAddress.PrimaryLine() == "" {
		return apperror.Validation("shipping address is required")
	}
	if t := req.Totals; t != nil {
		fields := []struct {
			name   string
			amount *decimal.Decimal
		}{{"shipping", t.Shipping}, {"tax", t.Tax}, {"total", t.Total}}
		for _, f := range fields {
			if f.amount != nil && !pricing.FitsScale(*f.amount, pricing.StoredScale) {
				return apperror.Validation(fmt.Sprintf("totals.%s must have at most %d decimal places", f.name, pricing.StoredScale))
			}
		}
	}
	return nil
}

func (s *orderServiceImpl) reconcileTotals(ctx context.Context, server pricing.Totals, client *dto.TotalsRequest) (pricing.Totals, error) {
	if client == nil {
		return server, nil
	}

	accepted, discrepancies := pricing.Reconcile(server, &pricing.ClientTotals{
		Shipping: client.Shipping,
		Tax:      client.Tax,
		Total:    client.Total,
	})
	for _, d := range discrepancies {
		s.logger.WarnContext(ctx, "client totals differ from server calculation",
			"field", d.Field,
			"server", d.Server.String(),
			"client", d.Client.String(),
		)
	}

	if len(discrepancies) > 0 && s.strictTotals {
		return pricing.Totals{}, apperror.Unprocessable(
			fmt.Sprintf("%s does not match the server calculation", discrepancies[0].Field),
		)
	}
	return accepted, nil
}

func (s *orderServiceImpl) loadProducts(ctx context.Context, items []*dto.LineItemRequest) (map[string]*model.Product, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.productRepo.FindMany(ctx, ids)
	if err != nil {
		return nil, apperror.Dependency("get order products", err)
	}

	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, apperror.NotFound(fmt.Sprintf("product %s not found", id))
		}
	}
	return byID, nil
}

// resolveVariant picks the SKU for a line item. An explicit variant must belong
// to the product; size/color labels must match a variant when the product has
// any; without either the first variant on record is used.
func (s *orderServiceImpl) resolveVariant(ctx context.Context, product *model.Product, item *dto.LineItemRequest) (*model.ProductVariant, error) {
	if variantID := item.ResolvedVariantID(); variantID != "" {
		variant, err := s.productRepo.FindVariant(ctx, s.db, variantID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Validation(fmt.Sprintf("variant %s not found", variantID))
		}
		if err != nil {
			s.logger.WarnContext(ctx, "variant lookup failed", "variant_id", variantID, "error", err)
			return nil, nil
		}
		if variant.ProductID != product.ID {
			return nil, apperror.Validation(fmt.Sprintf("variant %s does not belong to product %s", variantID, product.ID))
		}
		return variant, nil
	}

	variants, err := s.productRepo.FindVariants(ctx, s.db, product.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "variant lookup failed", "product_id", product.ID, "error", err)
		return nil, nil
	}
	if len(variants) == 0 {
		return nil, nil
	}

	if item.Size == "" && item.Color == "" {
		s.logger.DebugContext(ctx, "defaulting to first variant", "product_id", product.ID, "variant_id", variants[0].ID)
		return variants[0], nil
	}

	for _, v := range variants {
		if labelMatches(v.Size, item.Size) && labelMatches(v.Color, item.Color) {
			return v, nil
		}
	}
	return nil, apperror.Validation(fmt.Sprintf(
		"no variant of %s matches size %q color %q", product.Name, item.Size, item.Color,
	))
}

func labelMatches(have, want string) bool {
	return want == "" || strings.EqualFold(strings.TrimSpace(have), strings.TrimSpace(want))
}

func billingSnapshot(req *dto.CreateOrderRequest) model.AddressSnapshot {
	if b := req.BillingAddress; b != nil {
		return model.AddressSnapshot{
			Street:     b.Street,
			Number:     b.Number,
			City:       b.City,
			State:      b.State,
			PostalCode: b.PostalCode,
			Country:    b.Country,
		}
	}

	a := req.ShippingAddress
	return model.AddressSnapshot{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Email:      a.Email,
		Phone:      a.Phone,
		Street:     a.PrimaryLine(),
		Number:     a.SecondaryLine(),
		City:       a.City,
		State:      a.ResolvedState(),
		PostalCode: a.PostalCode,
		Country:    a.ResolvedCountry(),
	}
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID string) (*dto.OrderResponse, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

func (s *orderServiceImpl) GetOrderForUser(ctx context.Context, orderID string, identity *Identity) (*dto.OrderResponse, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !identity.CanAccess(order) {
		return nil, apperror.Forbidden("you do not have access to this order")
	}
	return toOrderResponse(order), nil
}

func (s *orderServiceImpl) ListUserOrders(ctx context.Context, userID string, page, limit int) (*dto.OrderPage, error) {
	return s.listOrders(ctx, repository.OrderFilter{UserID: userID}, page, limit)
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, query dto.OrderListQuery) (*dto.OrderPage, error) {
	return s.listOrders(ctx, repository.OrderFilter{
		Status:        model.OrderStatus(query.Status),
		PaymentStatus: model.PaymentStatus(query.PaymentStatus),
	}, query.Page, query.Limit)
}

func (s *orderServiceImpl) listOrders(ctx context.Context, filter repository.OrderFilter, page, limit int) (*dto.OrderPage, error) {
	page, limit = normalizePage(page, limit)
	filter.Offset = (page - 1) * limit
	filter.Limit = limit

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Dependency("list orders", err)
	}

	resp := &dto.OrderPage{
		Orders:     make([]*dto.OrderResponse, len(orders)),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}
	for i, o := range orders {
		resp.Orders[i] = toOrderResponse(o)
	}
	return resp, nil
}

func (s *orderServiceImpl) CancelOrder(ctx context.Context, orderID string, identity *Identity, reason string) (*dto.OrderResponse, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !identity.CanAccess(order) {
		return nil, apperror.Forbidden("you do not have access to this order")
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultCancelReason
	}
	notes := "Cancelled: " + reason

	return s.transition(ctx, order, model.OrderStatusCancelled, &notes)
}

func (s *orderServiceImpl) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*dto.OrderResponse, error) {
	if !status.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("invalid order status %q", status))
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, order, status, nil)
}

func (s *orderServiceImpl) transition(ctx context.Context, order *model.Order, to model.OrderStatus, notes *string) (*dto.OrderResponse, error) {
	from := order.Status
	if !from.CanTransitionTo(to) {
		return nil, apperror.Conflict(fmt.Sprintf("order cannot move from %s to %s", from, to))
	}

	err := s.orderRepo.UpdateStatus(ctx, s.db, order.ID, from, to, notes)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Conflict("order was modified concurrently, retry")
	}
	if err != nil {
		return nil, apperror.Dependency("update order status", err)
	}

	s.logger.InfoContext(ctx, "order status changed", "order_id", order.ID, "from", from, "to", to)
	s.publish(ctx, events.NewEvent(events.OrderStatusChanged, order.ID, order.UserID, map[string]string{
		"from": string(from),
		"to":   string(to),
	}))

	return s.GetOrder(ctx, order.ID)
}

func (s *orderServiceImpl) Stats(ctx context.Context) (*dto.OrderStatsResponse, error) {
	stats, err := s.orderRepo.Stats(ctx)
	if err != nil {
		return nil, apperror.Dependency("get order stats", err)
	}

	return &dto.OrderStatsResponse{
		TotalOrders:     stats.TotalOrders,
		CompletedOrders: stats.CompletedOrders,
		PendingOrders:   stats.PendingOrders,
		TotalRevenue:    stats.TotalRevenue,
	}, nil
}

func (s *orderServiceImpl) findOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("order not found")
	}
	if err != nil {
		return nil, apperror.Dependency("get order", err)
	}
	return order, nil
}

func (s *orderServiceImpl) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish order event failed", "type", event.Type, "order_id", event.OrderID, "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

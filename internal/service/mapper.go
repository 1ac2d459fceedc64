package service

import (
	"storefront-api/internal/dto"
	"storefront-api/internal/model"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func toOrderResponse(order *model.Order) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		UserID:            order.UserID,
		Status:            string(order.Status),
		PaymentStatus:     string(order.PaymentStatus),
		Subtotal:          order.Subtotal,
		ShippingCost:      order.ShippingCost,
		TaxAmount:         order.TaxAmount,
		Total:             order.Total,
		ShippingMethod:    order.ShippingMethod,
		PaymentMethod:     order.PaymentMethod,
		PaymentID:         order.PaymentID,
		Notes:             order.Notes,
		ShippingAddressID: order.ShippingAddressID,
		BillingAddress:    order.BillingAddress,
		Items:             make([]*dto.OrderItemResponse, len(order.Items)),
		TotalItems:        order.TotalItems(),
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}

	for i := range order.Items {
		resp.Items[i] = toOrderItemResponse(&order.Items[i])
	}

	if a := order.ShippingAddress; a != nil {
		resp.ShippingAddress = &dto.AddressResponse{
			ID:           a.ID,
			FirstName:    a.FirstName,
			LastName:     a.LastName,
			Phone:        a.Phone,
			AddressLine1: a.AddressLine1,
			AddressLine2: a.AddressLine2,
			City:         a.City,
			State:        a.State,
			PostalCode:   a.PostalCode,
			Country:      a.Country,
		}
	}

	if u := order.User; u != nil {
		resp.User = &dto.OrderUserResponse{
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Name:      u.Name,
			Email:     u.Email,
			Phone:     u.Phone,
		}
	}

	return resp
}

func toOrderItemResponse(item *model.OrderItem) *dto.OrderItemResponse {
	resp := &dto.OrderItemResponse{
		ID:               item.ID,
		ProductID:        item.ProductID,
		ProductVariantID: item.ProductVariantID,
		ProductImages:    []string{},
		Quantity:         item.Quantity,
		Price:            item.Price,
		Total:            item.Total,
		Size:             item.Size,
		Color:            item.Color,
		CreatedAt:        item.CreatedAt,
	}
	if p := item.Product; p != nil {
		resp.ProductName = p.Name
		resp.ProductSKU = p.SKU
		if len(p.Images) > 0 {
			resp.ProductImages = []string(p.Images)
		}
	}
	return resp
}

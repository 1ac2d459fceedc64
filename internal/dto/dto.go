package dto

import (
	"strings"

	"github.com/shopspring/decimal"
)

type LineItemRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	VariantID *string          `json:"variant_id,omitempty"`
	Quantity  int              `json:"quantity" validate:"min=1"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Size      string           `json:"size,omitempty"`
	Color     string           `json:"color,omitempty"`
}

// ResolvedPrice picks price, then unit_price, then zero.
func (i *LineItemRequest) ResolvedPrice() decimal.Decimal {
	if i.Price != nil {
		return *i.Price
	}
	if i.UnitPrice != nil {
		return *i.UnitPrice
	}
	return decimal.Zero
}

func (i *LineItemRequest) ResolvedVariantID() string {
	if i.VariantID == nil {
		return ""
	}
	return strings.TrimSpace(*i.VariantID)
}

type ShippingAddressRequest struct {
	Address       string `json:"address"`
	AddressNumber string `json:"address_number,omitempty"`
	Street        string `json:"street,omitempty"` // legacy clients; never replaces address
	Number        string `json:"number,omitempty"`
	City          string `json:"city"`
	State         string `json:"state,omitempty"`
	Province      string `json:"province,omitempty"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	Notes         string `json:"notes,omitempty"`
	Floor         string `json:"floor,omitempty"`
	Apartment     string `json:"apartment,omitempty"`
}

// PrimaryLine is the trimmed address line. An empty result makes the request invalid.
func (a *ShippingAddressRequest) PrimaryLine() string {
	return strings.TrimSpace(a.Address)
}

func (a *ShippingAddressRequest) SecondaryLine() string {
	if a.AddressNumber != "" {
		return a.AddressNumber
	}
	return a.Number
}

// ResolvedState prefers province over state.
func (a *ShippingAddressRequest) ResolvedState() string {
	if a.Province != "" {
		return a.Province
	}
	return a.State
}

func (a *ShippingAddressRequest) ResolvedCountry() string {
	if a.Country != "" {
		return a.Country
	}
	return "AR"
}

type BillingAddressRequest struct {
	Street     string `json:"street"`
	Number     string `json:"number,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// TotalsRequest carries the figures the client computed. Every field is optional.
type TotalsRequest struct {
	Subtotal   *decimal.Decimal `json:"subtotal,omitempty"`
	Shipping   *decimal.Decimal `json:"shipping,omitempty"`
	Tax        *decimal.Decimal `json:"tax,omitempty"`
	PaymentFee *decimal.Decimal `json:"payment_fee,omitempty"`
	Total      *decimal.Decimal `json:"total,omitempty"`
}

type CreateOrderRequest struct {
	Items           []*LineItemRequest      `json:"items" validate:"required,min=1,dive,required"`
	ShippingAddress *ShippingAddressRequest `json:"shipping_address" validate:"required"`
	BillingAddress  *BillingAddressRequest  `json:"billing_address,omitempty"`
	ShippingMethod  string                  `json:"shipping_method,omitempty" validate:"omitempty,oneof=standard express overnight"`
	PaymentMethod   string                  `json:"payment_method,omitempty" validate:"omitempty,oneof=mercadopago cash transfer"`
	Notes           string                  `json:"notes,omitempty"`
	Totals          *TotalsRequest          `json:"totals,omitempty"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled"`
}

type PageQuery struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

type OrderListQuery struct {
	PageQuery
	Status        string `query:"status" validate:"omitempty,oneof=pending confirmed processing shipped delivered cancelled"`
	PaymentStatus string `query:"payment_status" validate:"omitempty,oneof=pending paid failed refunded"`
}

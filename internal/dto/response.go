package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type OrderItemResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	ProductVariantID *string         `json:"product_variant_id"`
	ProductName      string          `json:"product_name"`
	ProductImages    []string        `json:"product_images"`
	ProductSKU       string          `json:"product_sku,omitempty"`
	Quantity         int             `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
	Total            decimal.Decimal `json:"total"`
	Size             string          `json:"size,omitempty"`
	Color            string          `json:"color,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type OrderUserResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

type AddressResponse struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone,omitempty"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

type OrderResponse struct {
	ID                string               `json:"id"`
	OrderNumber       string               `json:"order_number"`
	UserID            string               `json:"user_id"`
	Status            string               `json:"status"`
	PaymentStatus     string               `json:"payment_status"`
	Subtotal          decimal.Decimal      `json:"subtotal"`
	ShippingCost      decimal.Decimal      `json:"shipping_cost"`
	TaxAmount         decimal.Decimal      `json:"tax_amount"`
	Total             decimal.Decimal      `json:"total"`
	ShippingMethod    string               `json:"shipping_method"`
	PaymentMethod     string               `json:"payment_method"`
	PaymentID         string               `json:"payment_id,omitempty"`
	Notes             string               `json:"notes,omitempty"`
	ShippingAddressID *string              `json:"shipping_address_id"`
	ShippingAddress   *AddressResponse     `json:"shipping_address,omitempty"`
	BillingAddress    interface{}          `json:"billing_address"`
	Items             []*OrderItemResponse `json:"items"`
	User              *OrderUserResponse   `json:"user,omitempty"`
	TotalItems        int                  `json:"total_items"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

type OrderPage struct {
	Orders     []*OrderResponse `json:"orders"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

type OrderStatsResponse struct {
	TotalOrders     int64           `json:"total_orders"`
	CompletedOrders int64           `json:"completed_orders"`
	PendingOrders   int64           `json:"pending_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
}

type PaymentPreferenceResponse struct {
	PreferenceID     string `json:"preference_id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type ProductVariantResponse struct {
	ID            string `json:"id"`
	SKU           string `json:"sku,omitempty"`
	Size          string `json:"size,omitempty"`
	Color         string `json:"color,omitempty"`
	StockQuantity int    `json:"stock_quantity"`
}

type ProductResponse struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	Description string                    `json:"description,omitempty"`
	Price       decimal.Decimal           `json:"price"`
	SalePrice   *decimal.Decimal          `json:"sale_price,omitempty"`
	SKU         string                    `json:"sku,omitempty"`
	Images      []string                  `json:"images"`
	Variants    []*ProductVariantResponse `json:"variants,omitempty"`
}

type ProductPage struct {
	Products   []*ProductResponse `json:"products"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"totalPages"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	IsAdmin   bool   `json:"is_admin"`
}

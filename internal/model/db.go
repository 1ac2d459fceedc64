package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	ID        string `gorm:"primaryKey;size:36;not null"` // identity provider subject
	Email     string `gorm:"size:255;index;not null"`
	Name      string `gorm:"size:255"`
	FirstName string `gorm:"size:128"`
	LastName  string `gorm:"size:128"`
	Phone     string `gorm:"size:32"`
	AvatarURL string `gorm:"size:512"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Address struct {
	ID           string `gorm:"primaryKey;size:36;not null"`
	UserID       string `gorm:"size:36;index;not null"`
	Type         string `gorm:"size:16;not null"` // shipping, billing
	FirstName    string `gorm:"size:128"`
	LastName     string `gorm:"size:128"`
	Phone        string `gorm:"size:32"`
	AddressLine1 string `gorm:"column:address_line_1;size:255;not null"`
	AddressLine2 string `gorm:"column:address_line_2;size:255"`
	City         string `gorm:"size:128"`
	State        string `gorm:"size:128"`
	PostalCode   string `gorm:"size:16"`
	Country      string `gorm:"size:64;not null"`
	CreatedAt    time.Time
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type Product struct {
	ID          string              `gorm:"primaryKey;size:36;not null"`
	Name        string              `gorm:"size:255;not null"`
	Description string              `gorm:"type:text"`
	Price       decimal.Decimal     `gorm:"type:numeric(18,4);not null"`
	SalePrice   decimal.NullDecimal `gorm:"type:numeric(18,4)"`
	SKU         string              `gorm:"column:sku;size:64;index"`
	Images      StringList          `gorm:"type:text"`
	IsActive    bool                `gorm:"index;not null"`
	Variants    []ProductVariant    `gorm:"foreignKey:ProductID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type ProductVariant struct {
	ID            string `gorm:"primaryKey;size:36;not null"`
	ProductID     string `gorm:"size:36;index;not null"`
	SKU           string `gorm:"column:sku;size:64"`
	Size          string `gorm:"size:32"`
	Color         string `gorm:"size:32"`
	StockQuantity int    `gorm:"not null"`
	CreatedAt     time.Time
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

type Order struct {
	ID                string          `gorm:"primaryKey;size:36;not null"`
	OrderNumber       string          `gorm:"size:36;uniqueIndex;not null"`
	UserID            string          `gorm:"size:36;index;not null"`
	Status            OrderStatus     `gorm:"size:16;index;not null"`
	PaymentStatus     PaymentStatus   `gorm:"size:16;index;not null"`
	Subtotal          decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	ShippingCost      decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	TaxAmount         decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Total             decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	ShippingMethod    string          `gorm:"size:16;not null"`
	PaymentMethod     string          `gorm:"size:16;not null"`
	Notes             string          `gorm:"type:text"`
	ShippingAddressID *string         `gorm:"size:36"`
	BillingAddress    AddressSnapshot `gorm:"type:text"` // captured at creation, never updated
	PaymentID         string          `gorm:"size:64"`   // current gateway payment reference

	User            *User       `gorm:"foreignKey:UserID"`
	ShippingAddress *Address    `gorm:"foreignKey:ShippingAddressID"`
	Items           []OrderItem `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

func (o *Order) TotalItems() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

type OrderItem struct {
	ID string `gorm:"primaryKey;size:36;not null"`
	// FK → orders.id
	OrderID string `gorm:"size:36;index;not null"`
	// FK → products.id
	ProductID        string          `gorm:"size:36;index;not null"`
	ProductVariantID *string         `gorm:"size:36"`
	Position         int             `gorm:"not null"` // 1-based line number within the order
	Quantity         int             `gorm:"not null"`
	Price            decimal.Decimal `gorm:"type:numeric(18,4);not null"` // unit price locked at order time
	Total            decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Size             string          `gorm:"size:32"`
	Color            string          `gorm:"size:32"`

	Product *Product `gorm:"foreignKey:ProductID"`

	CreatedAt time.Time
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"` // <payment id>:<gateway status>
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

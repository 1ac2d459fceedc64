// Package pricing derives order totals from line items and a shipping method
// and reconciles them against totals computed by the checkout client.
package pricing

import "github.com/shopspring/decimal"

type ShippingMethod string

const (
	// PriceScale is the number of decimal places a unit price may carry.
	PriceScale int32 = 2
	// StoredScale matches the money columns. Tax on a PriceScale subtotal never exceeds it.
	StoredScale int32 = 4
)

const (
	ShippingStandard  ShippingMethod = "standard"
	ShippingExpress   ShippingMethod = "express"
	ShippingOvernight ShippingMethod = "overnight"
)

var (
	FreeShippingThreshold = decimal.NewFromInt(50000)
	TaxRate               = decimal.RequireFromString("0.21")
	// Tolerance is the absolute difference accepted between client and server tax/total.
	Tolerance = decimal.RequireFromString("0.01")

	shippingFees = map[ShippingMethod]decimal.Decimal{
		ShippingStandard:  decimal.NewFromInt(2500),
		ShippingExpress:   decimal.NewFromInt(4500),
		ShippingOvernight: decimal.NewFromInt(8000),
	}
)

type Line struct {
	Price    decimal.Decimal
	Quantity int
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping_cost"`
	Tax      decimal.Decimal `json:"tax_amount"`
	Total    decimal.Decimal `json:"total"`
}

func Subtotal(lines []Line) decimal.Decimal {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return subtotal
}

// ShippingCost is zero at or above the free shipping threshold, otherwise the
// flat fee of the method. Unknown methods pay the standard fee.
func ShippingCost(method ShippingMethod, subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	if fee, ok := shippingFees[method]; ok {
		return fee
	}
	return shippingFees[ShippingStandard]
}

func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate)
}

func Calculate(lines []Line, method ShippingMethod) Totals {
	subtotal := Subtotal(lines)
	shipping := ShippingCost(method, subtotal)
	tax := Tax(subtotal)

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

func IsKnownShippingMethod(method ShippingMethod) bool {
	_, ok := shippingFees[method]
	return ok
}

// FitsScale reports whether amount has at most scale decimal places.
func FitsScale(amount decimal.Decimal, scale int32) bool {
	return amount.Equal(amount.Truncate(scale))
}

package pricing

import "github.com/shopspring/decimal"

// ClientTotals are the figures the checkout client computed on its own.
// Every field is optional; the client subtotal is never trusted.
type ClientTotals struct {
	Shipping *decimal.Decimal
	Tax      *decimal.Decimal
	Total    *decimal.Decimal
}

type Discrepancy struct {
	Field  string          `json:"field"`
	Server decimal.Decimal `json:"server"`
	Client decimal.Decimal `json:"client"`
}

// Reconcile accepts client shipping, tax and total over the server figures and
// reports every place where they diverge. Shipping must match exactly, tax and
// total within Tolerance. The total check runs against the accepted shipping and tax.
func Reconcile(server Totals, client *ClientTotals) (Totals, []Discrepancy) {
	if client == nil {
		return server, nil
	}

	result := server
	var discrepancies []Discrepancy

	if client.Shipping != nil && !client.Shipping.Equal(server.Shipping) {
		discrepancies = append(discrepancies, Discrepancy{Field: "shipping_cost", Server: server.Shipping, Client: *client.Shipping})
		result.Shipping = *client.Shipping
	}

	if client.Tax != nil && client.Tax.Sub(server.Tax).Abs().GreaterThan(Tolerance) {
		discrepancies = append(discrepancies, Discrepancy{Field: "tax_amount", Server: server.Tax, Client: *client.Tax})
		result.Tax = *client.Tax
	}

	expected := result.Subtotal.Add(result.Shipping).Add(result.Tax)
	result.Total = expected
	if client.Total != nil && client.Total.Sub(expected).Abs().GreaterThan(Tolerance) {
		discrepancies = append(discrepancies, Discrepancy{Field: "total", Server: expected, Client: *client.Total})
		result.Total = *client.Total
	}

	return result, discrepancies
}

package model

import (
	"encoding/json"
	"time"
)

type PreferenceItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	PictureURL  string  `json:"picture_url,omitempty"`
	Quantity    int     `json:"quantity"`
	CurrencyID  string  `json:"currency_id"`
	UnitPrice   float64 `json:"unit_price"`
}

type PayerPhone struct {
	AreaCode string `json:"area_code"`
	Number   string `json:"number"`
}

type PreferencePayer struct {
	Name    string      `json:"name"`
	Surname string      `json:"surname"`
	Email   string      `json:"email"`
	Phone   *PayerPhone `json:"phone,omitempty"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type PreferenceRequest struct {
	Items               []PreferenceItem  `json:"items"`
	Payer               PreferencePayer   `json:"payer"`
	ExternalReference   string            `json:"external_reference"`
	NotificationURL     string            `json:"notification_url"`
	BackURLs            BackURLs          `json:"back_urls"`
	AutoReturn          string            `json:"auto_return"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	StatementDescriptor string            `json:"statement_descriptor"`
	Expires             bool              `json:"expires"`
	ExpirationDateFrom  time.Time         `json:"expiration_date_from"`
	ExpirationDateTo    time.Time         `json:"expiration_date_to"`
}

type Preference struct {
	ID                string `json:"id"`
	InitPoint         string `json:"init_point"`
	SandboxInitPoint  string `json:"sandbox_init_point"`
	ExternalReference string `json:"external_reference"`
}

type Payment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"`
}

// FlexibleID accepts identifiers sent either as JSON strings or numbers.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

type WebhookData struct {
	ID FlexibleID `json:"id"`
}

// WebhookNotification is the body MercadoPago posts to the notification URL.
type WebhookNotification struct {
	ID     FlexibleID  `json:"id"`
	Type   string      `json:"type"`
	Action string      `json:"action"`
	Data   WebhookData `json:"data"`
}

const (
	NotificationTypePayment       = "payment"
	NotificationTypeMerchantOrder = "merchant_order"
)

// PaymentStatusFromGateway maps a MercadoPago payment status onto the order payment status.
func PaymentStatusFromGateway(status string) PaymentStatus {
	switch status {
	case "approved":
		return PaymentStatusPaid
	case "rejected", "cancelled":
		return PaymentStatusFailed
	case "refunded":
		return PaymentStatusRefunded
	default:
		return PaymentStatusPending
	}
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"storefront-api/internal/config"
	"storefront-api/internal/model"
	"time"

	"github.com/google/uuid"
)

type MercadoPagoClient interface {
	CreatePreference(ctx context.Context, preference *model.PreferenceRequest) (*model.Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*model.Payment, error)
}

type mercadoPagoClientImpl struct {
	httpClient  *http.Client
	baseApiURL  string
	accessToken string
}

func NewMercadoPagoClient(mpCfg *config.MercadoPago) MercadoPagoClient {
	return &mercadoPagoClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:  mpCfg.BaseApiURL,
		accessToken: mpCfg.AccessToken,
	}
}

func (c *mercadoPagoClientImpl) CreatePreference(ctx context.Context, preference *model.PreferenceRequest) (*model.Preference, error) {
	body, err := json.Marshal(preference)
	if err != nil {
		return nil, fmt.Errorf("marshal preference payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseApiURL+"/checkout/preferences",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return nil, fmt.Errorf("create preference request: %w", err)
	}
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	var result model.Preference
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("mercadopago create preference: %w", err)
	}

	return &result, nil
}

func (c *mercadoPagoClientImpl) GetPayment(ctx context.Context, paymentID string) (*model.Payment, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/v1/payments/%s", c.baseApiURL, url.PathEscape(paymentID)),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create payment request: %w", err)
	}

	var result model.Payment
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("mercadopago get payment %s: %w", paymentID, err)
	}

	return &result, nil
}

func (c *mercadoPagoClientImpl) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mercadopago error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode mercadopago response: %w", err)
	}

	return nil
}

package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"storefront-api/internal/apperror"
	"storefront-api/internal/client"
	"storefront-api/internal/config"
	"storefront-api/internal/dto"
	"storefront-api/internal/events"
	"storefront-api/internal/model"
	"storefront-api/internal/repository"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	preferenceTTL        = 30 * time.Minute
	defaultPayerAreaCode = "11"
	defaultPayerPhone    = "1234567890"
	defaultItemTitle     = "Producto"
)

var ErrInvalidWebhookSignature = errors.New("invalid webhook signature")

type PaymentService interface {
	CreatePaymentPreference(ctx context.Context, orderID string, identity *Identity) (*dto.PaymentPreferenceResponse, error)
	HandleWebhook(ctx context.Context, headers http.Header, query url.Values, body []byte) error
}

type paymentServiceImpl struct {
	db                *gorm.DB
	mercadoPagoClient client.MercadoPagoClient
	orderRepo         repository.OrderRepository
	webhookEventRepo  repository.WebhookEventRepository
	publisher         events.Publisher
	cfg               *config.Config
	logger            *slog.Logger
	now               func() time.Time
}

func NewPaymentService(
	db *gorm.DB,
	mercadoPagoClient client.MercadoPagoClient,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
	publisher events.Publisher,
	cfg *config.Config,
	logger *slog.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:                db,
		mercadoPagoClient: mercadoPagoClient,
		orderRepo:         orderRepo,
		webhookEventRepo:  webhookEventRepo,
		publisher:         publisher,
		cfg:               cfg,
		logger:            logger,
		now:               time.Now,
	}
}

func (s *paymentServiceImpl) CreatePaymentPreference(ctx context.Context, orderID string, identity *Identity) (*dto.PaymentPreferenceResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("order not found")
	}
	if err != nil {
		return nil, apperror.Dependency("get order", err)
	}

	if !identity.Owns(order) {
		return nil, apperror.Forbidden("you do not have permission to pay this order")
	}
	if order.Status == model.OrderStatusCancelled {
		return nil, apperror.Conflict("order is cancelled")
	}
	if order.PaymentStatus == model.PaymentStatusPaid || order.PaymentStatus == model.PaymentStatusRefunded {
		return nil, apperror.Conflict(fmt.Sprintf("order payment is already %s", order.PaymentStatus))
	}

	pref, err := s.mercadoPagoClient.CreatePreference(ctx, s.buildPreference(order))
	if err != nil {
		return nil, apperror.Dependency("create payment preference", err)
	}

	s.logger.InfoContext(ctx, "payment preference created", "order_id", order.ID, "preference_id", pref.ID)

	return &dto.PaymentPreferenceResponse{
		PreferenceID:     pref.ID,
		InitPoint:        pref.InitPoint,
		SandboxInitPoint: pref.SandboxInitPoint,
	}, nil
}

func (s *paymentServiceImpl) buildPreference(order *model.Order) *model.PreferenceRequest {
	items := make([]model.PreferenceItem, len(order.Items))
	for i, item := range order.Items {
		title := defaultItemTitle
		picture := ""
		if item.Product != nil {
			if item.Product.Name != "" {
				title = item.Product.Name
			}
			if len(item.Product.Images) > 0 {
				picture = item.Product.Images[0]
			}
		}

		items[i] = model.PreferenceItem{
			ID:          item.ProductID,
			Title:       title,
			Description: strings.TrimSpace(fmt.Sprintf("%s - %s %s", title, item.Size, item.Color)),
			PictureURL:  picture,
			Quantity:    item.Quantity,
			CurrencyID:  s.cfg.MercadoPago.CurrencyID,
			UnitPrice:   item.Price.InexactFloat64(),
		}
	}

	payer := model.PreferencePayer{
		Phone: &model.PayerPhone{AreaCode: defaultPayerAreaCode, Number: defaultPayerPhone},
	}
	if u := order.User; u != nil {
		payer.Name, payer.Surname = u.FirstName, u.LastName
		if payer.Name == "" && payer.Surname == "" {
			payer.Name, payer.Surname = splitName(u.Name)
		}
		payer.Email = u.Email
		if u.Phone != "" {
			payer.Phone.Number = u.Phone
		}
	}

	now := s.now()
	return &model.PreferenceRequest{
		Items:             items,
		Payer:             payer,
		ExternalReference: order.ID,
		NotificationURL:   s.cfg.WebhookURL(),
		BackURLs: model.BackURLs{
			Success: s.cfg.CheckoutURL("success"),
			Failure: s.cfg.CheckoutURL("failure"),
			Pending: s.cfg.CheckoutURL("pending"),
		},
		AutoReturn:          "approved",
		Metadata:            map[string]string{"order_id": order.ID},
		StatementDescriptor: s.cfg.MercadoPago.StatementDescriptor,
		Expires:             true,
		ExpirationDateFrom:  now,
		ExpirationDateTo:    now.Add(preferenceTTL),
	}
}

// HandleWebhook applies a MercadoPago notification. Notifications that do not
// concern a known order are acknowledged without changes.
func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, query url.Values, body []byte) error {
	var notification model.WebhookNotification
	if len(body) > 0 {
		if err := json.Unmarshal(body, &notification); err != nil {
			return fmt.Errorf("decode webhook payload: %w", err)
		}
	}
	if notification.Type == "" {
		notification.Type = firstNonEmpty(query.Get("type"), query.Get("topic"))
	}
	dataID := string(notification.Data.ID)
	if dataID == "" {
		dataID = firstNonEmpty(query.Get("data.id"), query.Get("id"))
	}

	if err := s.verifySignature(headers, dataID); err != nil {
		return err
	}

	if notification.Type != model.NotificationTypePayment {
		s.logger.InfoContext(ctx, "ignoring webhook notification", "type", notification.Type, "data_id", dataID)
		return nil
	}
	if dataID == "" {
		return fmt.Errorf("payment notification without data.id")
	}

	payment, err := s.mercadoPagoClient.GetPayment(ctx, dataID)
	if err != nil {
		return fmt.Errorf("get payment: %w", err)
	}

	return s.applyPayment(ctx, payment)
}

func (s *paymentServiceImpl) applyPayment(ctx context.Context, payment *model.Payment) error {
	orderID := payment.ExternalReference
	if orderID == "" {
		s.logger.WarnContext(ctx, "payment without external reference", "payment_id", payment.ID)
		return nil
	}

	paymentID := strconv.FormatInt(payment.ID, 10)
	eventID := paymentID + ":" + payment.Status

	processed, err := s.webhookEventRepo.Exists(ctx, eventID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if processed {
		s.logger.InfoContext(ctx, "duplicate payment notification", "event_id", eventID)
		return nil
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.WarnContext(ctx, "payment for unknown order", "order_id", orderID, "payment_id", paymentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}

	from := order.PaymentStatus
	to := model.PaymentStatusFromGateway(payment.Status)
	if from != to && !from.CanReach(to) {
		s.logger.WarnContext(ctx, "ignoring unreachable payment status",
			"order_id", order.ID, "from", from, "to", to, "gateway_status", payment.Status)
		return nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdatePaymentStatus(ctx, tx, order.ID, from, to, paymentID); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		if err := s.webhookEventRepo.MarkProcessed(ctx, tx, eventID, model.NotificationTypePayment); err != nil {
			return fmt.Errorf("mark webhook event processed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "payment status updated", "order_id", order.ID, "from", from, "to", to, "payment_id", paymentID)
	if from != to {
		event := events.NewEvent(events.OrderPaymentStatusChanged, order.ID, order.UserID, map[string]string{
			"from":       string(from),
			"to":         string(to),
			"payment_id": paymentID,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "publish order event failed", "type", event.Type, "order_id", order.ID, "error", err)
		}
	}

	return nil
}

// verifySignature checks the x-signature header ("ts=...,v1=...") when a webhook secret is configured.
func (s *paymentServiceImpl) verifySignature(headers http.Header, dataID string) error {
	secret := s.cfg.MercadoPago.WebhookSecret
	if secret == "" {
		return nil
	}

	var ts, v1 string
	for _, part := range strings.Split(headers.Get("x-signature"), ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return ErrInvalidWebhookSignature
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", strings.ToLower(dataID), headers.Get("x-request-id"), ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return ErrInvalidWebhookSignature
	}
	return nil
}

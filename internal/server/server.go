package server

import (
	"context"
	"log/slog"
	"net/http"
	"storefront-api/internal/config"
	"storefront-api/internal/handler"
	appmiddleware "storefront-api/internal/middleware"
	"storefront-api/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type Services struct {
	Order   service.OrderService
	Payment service.PaymentService
	User    service.UserService
	Catalog service.CatalogService
}

type Server struct {
	echo           *echo.Echo
	cfg            *config.Config
	orderHandler   *handler.OrderHandler
	paymentHandler *handler.PaymentHandler
	userHandler    *handler.UserHandler
	productHandler *handler.ProductHandler
	userService    service.UserService
}

func NewServer(cfg *config.Config, services Services, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.HTTP.WriteTimeout
	e.JSONSerializer = handler.StrictJSONSerializer{}
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(logger)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				logger.WarnContext(c.Request().Context(), "request", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.Gzip())
	e.Use(middleware.BodyLimit(cfg.HTTP.BodyLimit))

	s := &Server{
		echo:           e,
		cfg:            cfg,
		orderHandler:   handler.NewOrderHandler(services.Order),
		paymentHandler: handler.NewPaymentHandler(services.Payment, logger),
		userHandler:    handler.NewUserHandler(services.User),
		productHandler: handler.NewProductHandler(services.Catalog),
		userService:    services.User,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api", s.rateLimiter())

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":     true,
			"status":      "ok",
			"environment": s.cfg.Environment.Name,
		})
	})

	api.GET("/products", s.productHandler.ListProducts)
	api.GET("/products/:id", s.productHandler.GetProduct)

	auth := appmiddleware.Auth(s.cfg.Auth.JWTSecret, s.userService)
	admin := appmiddleware.RequireAdmin()

	api.GET("/users/me", s.userHandler.GetMe, auth)

	// -------- orders --------
	orders := api.Group("/orders")
	orders.POST("/webhook/mercadopago", s.paymentHandler.MercadoPagoWebhook)

	orders.POST("", s.orderHandler.CreateOrder, auth)
	orders.GET("/my-orders", s.orderHandler.GetMyOrders, auth)
	orders.GET("/:id", s.orderHandler.GetOrder, auth)
	orders.PATCH("/:id/cancel", s.orderHandler.CancelOrder, auth)
	orders.POST("/:id/payment", s.paymentHandler.CreatePreference, auth)

	// -------- admin --------
	orders.GET("", s.orderHandler.ListOrders, auth, admin)
	orders.GET("/admin/stats", s.orderHandler.Stats, auth, admin)
	orders.PATCH("/:id/status", s.orderHandler.UpdateOrderStatus, auth, admin)
}

func (s *Server) rateLimiter() echo.MiddlewareFunc {
	window := s.cfg.HTTP.RateWindow
	limit := s.cfg.HTTP.RateLimit
	if window <= 0 || limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(limit) / window.Seconds()),
		Burst:     limit,
		ExpiresIn: window,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/api/orders/webhook/mercadopago"
		},
	})
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	Database    Database    `envPrefix:"DATABASE_"`
	MercadoPago MercadoPago `envPrefix:"MERCADOPAGO_"`
	Auth        Auth        `envPrefix:"AUTH_"`
	Pricing     Pricing     `envPrefix:"PRICING_"`
	RabbitMQ    RabbitMQ    `envPrefix:"RABBITMQ_"`
}

type Database struct {
	Driver          string        `env:"DRIVER" envDefault:"postgres"` // postgres, mysql, sqlite
	URL             string        `env:"URL"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"50"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
	AutoMigrate     bool          `env:"AUTO_MIGRATE" envDefault:"true"`
	SeedCatalog     bool          `env:"SEED_CATALOG" envDefault:"false"`
}

type MercadoPago struct {
	BaseApiURL          string `env:"BASE_API_URL" envDefault:"https://api.mercadopago.com"`
	AccessToken         string `env:"ACCESS_TOKEN"`
	PublicKey           string `env:"PUBLIC_KEY"`
	WebhookSecret       string `env:"WEBHOOK_SECRET"`
	StatementDescriptor string `env:"STATEMENT_DESCRIPTOR" envDefault:"LAZO STORE"`
	CurrencyID          string `env:"CURRENCY_ID" envDefault:"ARS"`
}

type Auth struct {
	JWTSecret  string `env:"JWT_SECRET"`
	AdminEmail string `env:"ADMIN_EMAIL" envDefault:"admin@lazo.com"`
}

type Pricing struct {
	// StrictTotals rejects orders whose client totals diverge from the server figures.
	StrictTotals bool `env:"STRICT_TOTALS" envDefault:"false"`
}

type RabbitMQ struct {
	URL         string        `env:"URL"`
	Exchange    string        `env:"EXCHANGE" envDefault:"storefront.events"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host           string        `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port           string        `env:"HTTP_PORT" envDefault:"8080"`
	ReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	BodyLimit      string        `env:"HTTP_BODY_LIMIT" envDefault:"10M"`
	AllowedOrigins []string      `env:"HTTP_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	RateLimit      int           `env:"HTTP_RATE_LIMIT" envDefault:"100"`
	RateWindow     time.Duration `env:"HTTP_RATE_WINDOW" envDefault:"15m"`
}

func (c *Config) IsProduction() bool {
	return c.Environment.Name == "production"
}

func (c *Config) CheckoutURL(outcome string) string {
	return c.FrontendURL + "/checkout/" + outcome
}

func (c *Config) WebhookURL() string {
	return c.BaseURL + "/api/orders/webhook/mercadopago"
}

// Package config loads the service configuration from .env, an optional
// lyrion.yaml and the process environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Server struct {
	Port           string
	AllowedOrigins []string
}

type Database struct {
	Driver     string // postgres | sqlite
	URL        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// DSN builds the postgres connection string the same way whether it comes
// from DATABASE_URL or from the DB_* parts.
func (d Database) DSN() string {
	if d.Driver == "sqlite" {
		return d.SQLitePath
	}
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type Stripe struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

type Printful struct {
	APIKey       string
	BaseURL      string
	StoreID      string
	Confirm      bool   // submit orders for fulfillment instead of leaving drafts
	WebhookToken string // required as ?token= on the status webhook when set
}

// Gelato and Printify are optional; lines routed to an unconfigured provider
// are left for manual handling.
type Gelato struct {
	APIKey         string
	BaseURL        string
	ShipmentMethod string
	Confirm        bool
}

type Printify struct {
	APIKey  string
	BaseURL string
	ShopID  string
}

type Email struct {
	APIKey  string
	BaseURL string
	From    string
	Admin   string
	Studio  string
	Mock    bool
}

type References struct {
	CatalogPath    string
	RoutingURL     string
	AccessCodesURL string
}

type GitHub struct {
	APIURL string
	Token  string
	Owner  string
	Repo   string
	Path   string
	Branch string
}

type Auth struct {
	JWTSecret   string
	AdminAPIKey string
}

type Pricing struct {
	ShippingFee           decimal.Decimal
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

type RateLimit struct {
	RPS   float64
	Burst int
}

type Config struct {
	Server            Server
	Database          Database
	Stripe            Stripe
	Printful          Printful
	Gelato            Gelato
	Printify          Printify
	Email             Email
	References        References
	AccessCodeBackend string // github | database | http (validate only)
	GitHub            GitHub
	Auth              Auth
	Pricing           Pricing
	RateLimit         RateLimit
	HTTPTimeout       time.Duration
}

// Load reads .env (if present), lyrion.yaml (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("lyrion")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read lyrion.yaml: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an existing viper instance. Environment
// variables always win over file values.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	shipping, err := decimalKey(v, "shipping_fee")
	if err != nil {
		return nil, err
	}
	taxRate, err := decimalKey(v, "tax_rate")
	if err != nil {
		return nil, err
	}
	threshold, err := decimalKey(v, "free_shipping_threshold")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: Server{
			Port:           v.GetString("port"),
			AllowedOrigins: splitList(v.GetString("allowed_origins")),
		},
		Database: Database{
			Driver:     strings.ToLower(v.GetString("db_driver")),
			URL:        v.GetString("database_url"),
			Host:       v.GetString("db_host"),
			Port:       v.GetString("db_port"),
			User:       v.GetString("db_user"),
			Password:   v.GetString("db_password"),
			Name:       v.GetString("db_name"),
			SSLMode:    v.GetString("db_sslmode"),
			SQLitePath: v.GetString("sqlite_path"),
		},
		Stripe: Stripe{
			SecretKey:     v.GetString("stripe_secret_key"),
			WebhookSecret: v.GetString("stripe_webhook_secret"),
			Currency:      strings.ToLower(v.GetString("stripe_currency")),
			SuccessURL:    v.GetString("stripe_success_url"),
			CancelURL:     v.GetString("stripe_cancel_url"),
		},
		Printful: Printful{
			APIKey:       v.GetString("printful_api_key"),
			BaseURL:      strings.TrimRight(v.GetString("printful_base_url"), "/"),
			StoreID:      v.GetString("printful_store_id"),
			Confirm:      v.GetBool("printful_confirm"),
			WebhookToken: v.GetString("printful_webhook_token"),
		},
		Gelato: Gelato{
			APIKey:         v.GetString("gelato_api_key"),
			BaseURL:        strings.TrimRight(v.GetString("gelato_base_url"), "/"),
			ShipmentMethod: v.GetString("gelato_shipment_method"),
			Confirm:        v.GetBool("gelato_confirm"),
		},
		Printify: Printify{
			APIKey:  v.GetString("printify_api_key"),
			BaseURL: strings.TrimRight(v.GetString("printify_base_url"), "/"),
			ShopID:  v.GetString("printify_shop_id"),
		},
		Email: Email{
			APIKey:  v.GetString("email_api_key"),
			BaseURL: strings.TrimRight(v.GetString("email_base_url"), "/"),
			From:    v.GetString("email_from"),
			Admin:   v.GetString("email_admin"),
			Studio:  v.GetString("email_studio"),
			Mock:    v.GetBool("email_mock"),
		},
		References: References{
			CatalogPath:    v.GetString("catalog_path"),
			RoutingURL:     v.GetString("routing_url"),
			AccessCodesURL: v.GetString("access_codes_url"),
		},
		AccessCodeBackend: strings.ToLower(v.GetString("access_code_backend")),
		GitHub: GitHub{
			APIURL: strings.TrimRight(v.GetString("github_api_url"), "/"),
			Token:  v.GetString("github_token"),
			Owner:  v.GetString("github_owner"),
			Repo:   v.GetString("github_repo"),
			Path:   v.GetString("github_path"),
			Branch: v.GetString("github_branch"),
		},
		Auth: Auth{
			JWTSecret:   v.GetString("jwt_secret"),
			AdminAPIKey: v.GetString("admin_api_key"),
		},
		Pricing: Pricing{
			ShippingFee:           shipping,
			TaxRate:               taxRate,
			FreeShippingThreshold: threshold,
		},
		RateLimit: RateLimit{
			RPS:   v.GetFloat64("rate_limit_rps"),
			Burst: v.GetInt("rate_limit_burst"),
		},
		HTTPTimeout: time.Duration(v.GetInt("http_timeout_seconds")) * time.Second,
	}
	return cfg, nil
}

// Validate checks the settings `lyrion serve` cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.Stripe.SecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.Stripe.WebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Auth.AdminAPIKey == "" {
		missing = append(missing, "ADMIN_API_KEY")
	}
	if c.Printify.APIKey != "" && c.Printify.ShopID == "" {
		missing = append(missing, "PRINTIFY_SHOP_ID")
	}
	switch c.AccessCodeBackend {
	case "database":
	case "http":
		if c.References.AccessCodesURL == "" {
			missing = append(missing, "ACCESS_CODES_URL")
		}
	case "github":
		if c.GitHub.Token == "" || c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			missing = append(missing, "GITHUB_TOKEN/GITHUB_OWNER/GITHUB_REPO")
		}
	default:
		return fmt.Errorf("unknown ACCESS_CODE_BACKEND %q", c.AccessCodeBackend)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func decimalKey(v *viper.Viper, key string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", strings.ToUpper(key), err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

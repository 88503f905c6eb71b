package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/lyrion-studio/lyrion-api/accesscode"
	"github.com/lyrion-studio/lyrion-api/broker"
	"github.com/lyrion-studio/lyrion-api/catalog"
	"github.com/lyrion-studio/lyrion-api/config"
	orderControllers "github.com/lyrion-studio/lyrion-api/controllers/order"
	"github.com/lyrion-studio/lyrion-api/database"
	"github.com/lyrion-studio/lyrion-api/email"
	"github.com/lyrion-studio/lyrion-api/fulfillment"
	"github.com/lyrion-studio/lyrion-api/middleware"
	"github.com/lyrion-studio/lyrion-api/payment"
	"github.com/lyrion-studio/lyrion-api/pricing"
	"github.com/lyrion-studio/lyrion-api/routes"
	"github.com/lyrion-studio/lyrion-api/routing"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func serveCmd() *cobra.Command {
	var dev bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the storefront API and the payment webhook receiver.

Examples:
  lyrion serve
  lyrion serve --dev   # in-memory sqlite, emails logged instead of sent`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dev)
		},
	}
	cmd.Flags().BoolVar(&dev, "dev", false, "in-memory database, mocked email and placeholder secrets")
	return cmd
}

func runServe(dev bool) error {
	log.Println("✅ Starting application...")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var db *gorm.DB
	if dev {
		applyDevDefaults(cfg)
		db, err = database.OpenMemory()
	} else {
		if err := cfg.Validate(); err != nil {
			return err
		}
		db, err = openMigrated(cfg)
	}
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, limiter, err := buildDependencies(ctx, cfg, db, dev)
	if err != nil {
		return err
	}
	go limiter.Run(ctx.Done())

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			log.Printf("❌ Shutdown failed: %v", err)
		}
	}()

	log.Printf("🚀 Server running on port %s...", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	log.Println("✅ Server stopped")
	return nil
}

func openMigrated(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("AutoMigrate failed: %w", err)
	}
	return db, nil
}

func applyDevDefaults(cfg *config.Config) {
	log.Println("⚠️ Dev mode: in-memory database, emails are logged only")
	cfg.Email.Mock = true
	if cfg.AccessCodeBackend == "github" && cfg.GitHub.Token == "" {
		cfg.AccessCodeBackend = "database"
	}
	if cfg.Stripe.WebhookSecret == "" {
		cfg.Stripe.WebhookSecret = "whsec_dev"
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "dev-jwt-secret"
	}
	if cfg.Auth.AdminAPIKey == "" {
		cfg.Auth.AdminAPIKey = "dev-admin-key"
	}
}

// accessCodes picks the reader used for validation and the store used for
// redemption. The http backend validates only.
func accessCodes(cfg *config.Config, db *gorm.DB, client *http.Client) (accesscode.Reader, accesscode.Store, *accesscode.DBStore) {
	switch cfg.AccessCodeBackend {
	case "github":
		store := accesscode.NewGitHubStore(client, accesscode.GitHubConfig{
			BaseURL: cfg.GitHub.APIURL,
			Token:   cfg.GitHub.Token,
			Owner:   cfg.GitHub.Owner,
			Repo:    cfg.GitHub.Repo,
			Path:    cfg.GitHub.Path,
			Branch:  cfg.GitHub.Branch,
		})
		return store, store, nil
	case "http":
		return accesscode.NewHTTPSource(client, cfg.References.AccessCodesURL), nil, nil
	default:
		store := accesscode.NewDBStore(db)
		return store, store, store
	}
}

func buildDependencies(ctx context.Context, cfg *config.Config, db *gorm.DB, dev bool) (routes.Dependencies, *middleware.RateLimiter, error) {
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	products, err := catalog.Load(ctx, client, cfg.References.CatalogPath)
	if err != nil {
		if !dev {
			return routes.Dependencies{}, nil, err
		}
		log.Printf("⚠️ Catalog unavailable, serving an empty one: %v", err)
		products = catalog.New(nil)
	}

	reader, store, dbStore := accessCodes(cfg, db, client)
	validator := accesscode.NewValidator(reader, store)

	creator := payment.NewCreator(payment.NewStripeAPI(cfg.Stripe.SecretKey), payment.Config{
		Currency:   cfg.Stripe.Currency,
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
		Policy: pricing.Policy{
			ShippingFee:           cfg.Pricing.ShippingFee,
			TaxRate:               cfg.Pricing.TaxRate,
			FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		},
	})

	notifier := email.NewNotifier(
		email.NewClient(client, email.ClientConfig{
			BaseURL: cfg.Email.BaseURL,
			APIKey:  cfg.Email.APIKey,
			Mock:    cfg.Email.Mock,
		}),
		email.Addresses{From: cfg.Email.From, Admin: cfg.Email.Admin, Studio: cfg.Email.Studio},
	)

	fulfillers := map[string]broker.Fulfiller{
		routing.ProviderPrintful: fulfillment.NewPrintfulClient(client, fulfillment.PrintfulConfig{
			BaseURL: cfg.Printful.BaseURL,
			APIKey:  cfg.Printful.APIKey,
			StoreID: cfg.Printful.StoreID,
			Confirm: cfg.Printful.Confirm,
		}),
	}
	if cfg.Gelato.APIKey != "" {
		fulfillers[routing.ProviderGelato] = fulfillment.NewGelatoClient(client, fulfillment.GelatoConfig{
			BaseURL:        cfg.Gelato.BaseURL,
			APIKey:         cfg.Gelato.APIKey,
			Currency:       cfg.Stripe.Currency,
			ShipmentMethod: cfg.Gelato.ShipmentMethod,
			Confirm:        cfg.Gelato.Confirm,
		})
	}
	if cfg.Printify.APIKey != "" {
		fulfillers[routing.ProviderPrintify] = fulfillment.NewPrintifyClient(client, fulfillment.PrintifyConfig{
			BaseURL: cfg.Printify.BaseURL,
			APIKey:  cfg.Printify.APIKey,
			ShopID:  cfg.Printify.ShopID,
		})
	}

	hub := orderControllers.NewHub()
	opts := broker.Options{
		Routes: func(ctx context.Context) (*routing.Table, error) {
			return routing.Load(ctx, client, cfg.References.RoutingURL)
		},
		Fulfillers: fulfillers,
		Notifier:   notifier,
		Catalog:    products,
		Publisher:  hub,
	}
	if store != nil {
		opts.Redeemer = validator
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	deps := routes.Dependencies{
		DB:                   db,
		Catalog:              products,
		Creator:              creator,
		Codes:                validator,
		CodeReader:           reader,
		Dispatcher:           broker.NewDispatcher(db, opts),
		Contact:              notifier,
		Hub:                  hub,
		Limiter:              limiter,
		JWTSecret:            cfg.Auth.JWTSecret,
		AdminAPIKey:          cfg.Auth.AdminAPIKey,
		StripeWebhookSecret:  cfg.Stripe.WebhookSecret,
		PrintfulWebhookToken: cfg.Printful.WebhookToken,
		AllowedOrigins:       cfg.Server.AllowedOrigins,
	}
	if dbStore != nil {
		deps.CodeWriter = dbStore
	}
	log.Printf("✅ Loaded %d products, access codes via %s", len(products.All("")), cfg.AccessCodeBackend)
	return deps, limiter, nil
}

package config

import "github.com/spf13/viper"

// setDefaults registers every non-secret default. Secrets (API keys, webhook
// secrets, tokens) deliberately have none.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("allowed_origins", "*")

	v.SetDefault("db_driver", "postgres")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("sqlite_path", "lyrion.db")

	v.SetDefault("stripe_currency", "gbp")
	v.SetDefault("stripe_success_url", "https://lyrion.co.uk/checkout-success.html?session_id={CHECKOUT_SESSION_ID}")
	v.SetDefault("stripe_cancel_url", "https://lyrion.co.uk/checkout.html")

	v.SetDefault("printful_base_url", "https://api.printful.com")
	v.SetDefault("printful_confirm", false)

	v.SetDefault("gelato_base_url", "https://order.gelatoapis.com")
	v.SetDefault("gelato_confirm", false)
	v.SetDefault("printify_base_url", "https://api.printify.com")

	v.SetDefault("email_base_url", "https://api.resend.com")
	v.SetDefault("email_from", "LYRĪON <orders@lyrion.co.uk>")
	v.SetDefault("email_admin", "hello@lyrion.co.uk")
	v.SetDefault("email_studio", "studio@lyrion.co.uk")
	v.SetDefault("email_mock", false)

	v.SetDefault("catalog_path", "data/products.json")
	v.SetDefault("routing_url", "https://lyrion.co.uk/data/routing.json")
	v.SetDefault("access_codes_url", "https://lyrion.co.uk/data/access-codes.json")

	v.SetDefault("access_code_backend", "database")
	v.SetDefault("github_api_url", "https://api.github.com")
	v.SetDefault("github_branch", "main")
	v.SetDefault("github_path", "data/access-codes.json")

	v.SetDefault("shipping_fee", "4.95")
	v.SetDefault("tax_rate", "0.20")
	v.SetDefault("free_shipping_threshold", "0")

	v.SetDefault("rate_limit_rps", 1.0)
	v.SetDefault("rate_limit_burst", 5)

	v.SetDefault("http_timeout_seconds", 15)
}

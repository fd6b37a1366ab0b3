// Package config loads typed configuration structs from the environment.
//
// Values come from process environment variables, optionally seeded from
// `.env` files via github.com/joho/godotenv, and are decoded with
// github.com/caarlos0/env/v11 using `env` and `envDefault` struct tags.
//
//	type AppConfig struct {
//		Env       string `env:"APP_ENV" envDefault:"development"`
//		SecretKey string `env:"PAYSTACK_SECRET_KEY,required"`
//	}
//
//	var cfg AppConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// A loaded struct is cached per type and prefix, so packages can call Load
// for the same type repeatedly without re-parsing. Types that implement
// Validator are checked after decoding and the result is cached only when
// validation passes. Reset clears the cache; it is meant for tests.
package config

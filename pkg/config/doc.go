// Package config loads typed configuration from the environment.
//
// Values come from process environment variables, optionally seeded from
// .env files through github.com/joho/godotenv, and are parsed into structs
// with github.com/caarlos0/env/v11 tags. Parsed structs are cached per type
// so every package can call Load for its own settings without re-parsing.
//
//	var cfg auth.Config
//	config.MustLoad(&cfg)
package config

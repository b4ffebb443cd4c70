// Package config loads application configuration from environment
// variables into tagged structs, wrapping github.com/caarlos0/env and
// github.com/joho/godotenv.
//
//	type ServerConfig struct {
//		Addr      string `env:"NOTIFY_ADDR" envDefault:":8080"`
//		JWTSecret string `env:"NOTIFY_JWT_SECRET,required"`
//	}
//
//	var cfg ServerConfig
//	config.MustLoad(&cfg)
//
// Each config type is parsed once per process and cached; use
// ResetCache in tests that change the environment.
package config

package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Конфигурация читается из окружения один раз на старте и передаётся вниз
// явно — ниже этого пакета os.Getenv не встречается.
type Config struct {
	DBDSN         string
	ServerPort    string
	SessionSecret string

	// учётка дефолтного админа для первичного сида
	AdminEmail    string
	AdminPassword string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		ServerPort:    os.Getenv("SERVER_PORT"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = "admin@compass.local"
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "Admin123!"
	}

	return cfg
}

package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	ClientURL   string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`

	// Un secreto por propósito: un token de un flujo nunca valida en otro.
	ActivationSecret string        `env:"JWT_ACCOUNT_ACTIVATION,required"`
	SessionSecret    string        `env:"JWT_SECRET,required"`
	ResetSecret      string        `env:"JWT_RESET_PASSWORD,required"`
	FederatedSecret  string        `env:"FEDERATED_SECRET,required"`
	ActivationTTL    time.Duration `env:"ACTIVATION_TTL" envDefault:"5m"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	ResetTTL         time.Duration `env:"RESET_TTL" envDefault:"10m"`
	RoleCacheTTL     time.Duration `env:"ROLE_CACHE_TTL" envDefault:"1m"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"EMAIL_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	GoogleClientID    string `env:"GOOGLE_CLIENT"`
	GoogleJWKSURL     string `env:"GOOGLE_JWKS_URL" envDefault:"https://www.googleapis.com/oauth2/v3/certs"`
	FacebookAppID     string `env:"FACEBOOK_APP_ID"`
	FacebookAppSecret string `env:"FACEBOOK_APP_SECRET"`
	FacebookGraphURL  string `env:"FACEBOOK_GRAPH_URL" envDefault:"https://graph.facebook.com/v19.0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"authgate/internal/config"
	"authgate/internal/db"
	"authgate/internal/email"
	apihttp "authgate/internal/http"
	"authgate/internal/oauth"
	"authgate/internal/repository"
	"authgate/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	accountRepo := repository.NewPgAccountRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	roleCache := service.NewMemoryRoleCache()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory role cache", zap.Error(err))
		} else {
			roleCache = service.NewRedisRoleCache(redisClient)
		}
		cancel()
	}

	tokens := service.NewTokenService(cfg.ActivationSecret, cfg.SessionSecret, cfg.ResetSecret)

	var verifiers []oauth.Verifier
	if cfg.GoogleClientID != "" {
		jwks, err := oauth.NewGoogleKeyfunc(cfg.GoogleJWKSURL, func(err error) {
			logger.Warn("google jwks refresh failed", zap.Error(err))
		})
		if err != nil {
			logger.Warn("google jwks init failed, google login disabled", zap.Error(err))
		} else {
			defer jwks.EndBackground()
			verifiers = append(verifiers, oauth.NewGoogleVerifier(cfg.GoogleClientID, jwks.Keyfunc))
		}
	}
	if cfg.FacebookAppID != "" && cfg.FacebookAppSecret != "" {
		verifiers = append(verifiers, oauth.NewFacebookVerifier(
			cfg.FacebookGraphURL,
			cfg.FacebookAppID,
			cfg.FacebookAppSecret,
			&http.Client{Timeout: 10 * time.Second},
		))
	}

	registrationSvc := service.NewRegistrationService(logger, accountRepo, tokens, emailSender, cfg.ClientURL, cfg.ActivationTTL)
	sessionSvc := service.NewSessionService(logger, accountRepo, tokens, cfg.SessionTTL)
	resetSvc := service.NewPasswordResetService(logger, accountRepo, tokens, emailSender, cfg.ClientURL, cfg.ResetTTL)
	federatedSvc := service.NewFederatedService(logger, accountRepo, sessionSvc, cfg.FederatedSecret, verifiers...)
	profileSvc := service.NewProfileService(logger, accountRepo, roleCache)
	guard := service.NewGuard(logger, tokens, accountRepo, roleCache, cfg.RoleCacheTTL)

	authHandler := apihttp.NewAuthHandler(logger, registrationSvc, sessionSvc, resetSvc, federatedSvc)
	profileHandler := apihttp.NewProfileHandler(logger, profileSvc)
	router := apihttp.NewRouter(logger, authHandler, profileHandler, guard)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

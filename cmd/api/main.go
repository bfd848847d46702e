package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ask-io/internal/config"
	"ask-io/internal/db"
	"ask-io/internal/email"
	apihttp "ask-io/internal/http"
	"ask-io/internal/llm"
	"ask-io/internal/repository"
	"ask-io/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	chatHistory := repository.NewDisabledChatHistory()
	if cfg.MongoURI != "" {
		mongoClient, err := db.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			logger.Warn("mongo connect failed, chat history disabled", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = mongoClient.Disconnect(shutdownCtx)
			}()
			coll := mongoClient.Database(cfg.MongoDatabase).Collection(repository.ChatHistoryCollection)
			chatHistory = repository.NewMongoChatHistoryRepository(coll)
		}
	}

	otpRepo := repository.NewPgOTPRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)
	creditRepo := repository.NewPgCreditRepository(pool)
	usageRepo := repository.NewPgCreditUsageRepository(pool)
	notificationRepo := repository.NewPgNotificationRepository(pool)
	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	emailSender := newEmailSender(cfg, logger)

	var (
		otpLimiter  = service.NewOTPRateLimiter(cfg.OTPRateWindow, cfg.OTPRateMax)
		tokenStore  service.RefreshTokenStore
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			otpLimiter = service.NewRedisOTPRateLimiter(redisClient, cfg.OTPRateWindow, cfg.OTPRateMax, logger)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	otpSvc := service.NewOTPService(logger, otpRepo, emailSender, otpLimiter, cfg.OTPTTL)
	creditSvc := service.NewCreditService(logger, creditRepo, usageRepo, cfg.CreditsDefaultGrant)
	profileSvc := service.NewProfileService(logger, profileRepo, creditSvc, emailSender, cfg.AppURL)
	jwtSvc, err := service.NewJWTService(service.JWTConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  time.Duration(cfg.JWTAccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(cfg.JWTRefreshTTLMinutes) * time.Minute,
		Store:      tokenStore,
		Profiles:   profileSvc,
	})
	if err != nil {
		logger.Fatal("jwt setup", zap.Error(err))
	}
	notificationSvc := service.NewNotificationService(logger, notificationRepo, profileRepo, emailSender)
	askSvc := service.NewAskService(logger, creditSvc, llmClient, chatHistory, notificationSvc, profileRepo, emailSender, service.AskOptions{
		LowCreditThreshold: cfg.CreditsLowThreshold,
		AtomicCharge:       cfg.CreditsAtomicCharge,
		AppURL:             cfg.AppURL,
	})

	router := apihttp.NewRouter(logger, jwtSvc, cfg.AdminToken, apihttp.Handlers{
		Health:        apihttp.NewHealthHandler(logger, pool),
		Auth:          apihttp.NewAuthHandler(logger, otpSvc, profileSvc, jwtSvc),
		Profile:       apihttp.NewProfileHandler(logger, profileSvc),
		Credits:       apihttp.NewCreditHandler(logger, creditSvc),
		Ask:           apihttp.NewAskHandler(logger, askSvc),
		Notifications: apihttp.NewNotificationHandler(logger, notificationSvc),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newEmailSender(cfg *config.Config, logger *zap.Logger) email.Sender {
	if cfg.SendGridAPIKey != "" {
		sender, err := email.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName)
		if err == nil {
			return sender
		}
		logger.Warn("sendgrid sender init failed", zap.Error(err))
	}
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom, cfg.EmailFromName, cfg.SMTPUseTLS)
		if err == nil {
			return sender
		}
		logger.Warn("smtp sender init failed", zap.Error(err))
	}
	logger.Warn("no email provider configured")
	return email.NewDisabledSender("email sender not configured")
}

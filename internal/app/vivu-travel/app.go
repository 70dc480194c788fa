package vivutravel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/vivu-travel/internal/cache"
	"github.com/magabrotheeeer/vivu-travel/internal/config"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/jwt"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/vivu-travel/internal/llm"
	"github.com/magabrotheeeer/vivu-travel/internal/migrations"
	"github.com/magabrotheeeer/vivu-travel/internal/paymentprovider"
	"github.com/magabrotheeeer/vivu-travel/internal/places"
	adminservice "github.com/magabrotheeeer/vivu-travel/internal/services/admin"
	authservice "github.com/magabrotheeeer/vivu-travel/internal/services/auth"
	blogservice "github.com/magabrotheeeer/vivu-travel/internal/services/blog"
	chatservice "github.com/magabrotheeeer/vivu-travel/internal/services/chat"
	paymentservice "github.com/magabrotheeeer/vivu-travel/internal/services/payment"
	promoservice "github.com/magabrotheeeer/vivu-travel/internal/services/promo"
	subservice "github.com/magabrotheeeer/vivu-travel/internal/services/subscription"
	"github.com/magabrotheeeer/vivu-travel/internal/storage"
	"github.com/magabrotheeeer/vivu-travel/internal/uploads"
)

// App основное приложение Vivu Travel: HTTP API, сервисы и их зависимости.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *storage.Storage
	rabbitConn *amqp.Connection
	rabbitCh   *amqp.Channel
}

// New собирает приложение: хранилище, кеш, очередь, внешние клиенты и роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.RabbitURL, cfg.RabbitMaxRetries, cfg.RabbitRetryDelay)
	if err != nil {
		return nil, err
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetNotificationQueues())
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(rabbitCh)

	googleVerifier, err := authservice.NewGoogleVerifier(ctx, cfg.GoogleOAuth.IssuerURL, cfg.GoogleOAuth.ClientID)
	if err != nil {
		return nil, err
	}
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	geminiClient, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Gemini.Model,
		int(cfg.Gemini.MaxTokens), float64(cfg.Gemini.Temperature))
	if err != nil {
		return nil, err
	}
	placesClient := places.NewClient(cfg.PlacesAPIKey, "", cfg.Places.Language,
		cfg.Places.DefaultRadius, cfg.PlacesTimeout)
	providerClient := paymentprovider.NewClient(cfg.PayOSClientID, cfg.PayOSAPIKey,
		cfg.ChecksumKey, cfg.PayOSAPIURL)
	uploader, err := uploads.New(cfg.Cloudinary)
	if err != nil {
		return nil, err
	}

	authService := authservice.New(db, googleVerifier, jwtMaker, logger)
	subscriptionService := subservice.New(db, db, cacheRedis, publisher, logger)
	promoService := promoservice.New(db, logger)
	paymentService := paymentservice.New(db, db, subscriptionService, providerClient,
		publisher, cfg.ClientURL+"/payment/success", cfg.ClientURL+"/payment/cancel", logger)
	blogService := blogservice.New(db, cacheRedis, logger)
	chatService := chatservice.New(subscriptionService, geminiClient, placesClient,
		cacheRedis, cfg.Gemini.SessionTTL, logger)
	adminService := adminservice.New(db, logger)

	limiter := rate.NewLimiter(rate.Limit(10), 30)

	router := chi.NewRouter()
	RegisterRoutes(router, logger,
		authService, subscriptionService, promoService, paymentService,
		blogService, chatService, adminService, uploader, limiter)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		rabbitConn: rabbitConn,
		rabbitCh:   rabbitCh,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до остановки контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.rabbitCh.Close(); cerr != nil {
			a.logger.Error("failed to close rabbit channel", slog.String("error", cerr.Error()))
		}
		if cerr := a.rabbitConn.Close(); cerr != nil {
			a.logger.Error("failed to close rabbit connection", slog.String("error", cerr.Error()))
		}
		a.db.DB.Close()
		return err
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"keepsake-backend-go/internal/api"
	"keepsake-backend-go/internal/config"
	"keepsake-backend-go/internal/core"
	"keepsake-backend-go/internal/db"
	"keepsake-backend-go/internal/middleware"
	"keepsake-backend-go/pkg/eventbus"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	defer logger.Sync()

	appConfig, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	gin.SetMode(appConfig.GinMode)

	ctx := context.Background()

	clients, err := db.InitFirebase(ctx, appConfig)
	if err != nil {
		logger.Fatal("failed to initialize Firebase", zap.Error(err))
	}
	defer clients.Firestore.Close()

	store := db.NewFirestoreStore(clients.Firestore)

	var events eventbus.Publisher = eventbus.NopPublisher{}
	if appConfig.AMQPURL != "" {
		publisher, err := eventbus.NewAMQPPublisher(eventbus.AMQPConfig{
			URL:      appConfig.AMQPURL,
			Exchange: appConfig.AMQPExchange,
		})
		if err != nil {
			logger.Fatal("failed to connect to AMQP broker", zap.Error(err))
		}
		events = publisher
	}
	defer events.Close()

	resolver := core.NewResolver(store)
	auditService := core.NewAuditService(store.AuditLogs(), logger)

	userService := core.NewUserService(store)
	vaultService := core.NewVaultService(store, resolver, auditService, events, logger)
	collectionService := core.NewCollectionService(store, resolver, auditService, events, logger)
	assetService := core.NewAssetService(store, resolver, auditService, events, logger)
	accessService := core.NewAccessService(store, resolver, auditService, events, logger)
	readService := core.NewReadService(store, resolver)

	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORSMiddleware(appConfig))

	api.RegisterRoutes(router, api.Handlers{
		User:       api.NewUserHandler(userService, logger),
		Vault:      api.NewVaultHandler(vaultService, readService, logger),
		Collection: api.NewCollectionHandler(collectionService, readService, logger),
		Asset:      api.NewAssetHandler(assetService, readService, logger),
		Access:     api.NewAccessHandler(accessService, logger),
		Auth:       middleware.NewAuthMiddleware(clients.Auth, logger),
	})

	srv := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: router,
	}

	go func() {
		logger.Info("starting server", zap.String("port", appConfig.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}

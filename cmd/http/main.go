package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"schoolpay-service/cmd/migration"
	"schoolpay-service/internal/app/config"
	"schoolpay-service/internal/app/delivery/http/controllers"
	"schoolpay-service/internal/app/delivery/http/middlewares"
	"schoolpay-service/internal/app/delivery/http/routers"
	"schoolpay-service/internal/app/drivers/database"
	"schoolpay-service/internal/app/drivers/logger"
	"schoolpay-service/internal/app/drivers/messaging"
	"schoolpay-service/internal/app/services/core/institutions"
	"schoolpay-service/internal/app/services/core/ledger"
	"schoolpay-service/internal/app/services/core/payments"
	"schoolpay-service/internal/app/services/core/webhook"
	"schoolpay-service/internal/app/services/shared/auditqueue"
	"schoolpay-service/internal/app/services/shared/payment_gateway"
	"schoolpay-service/internal/app/services/shared/redis"
	"schoolpay-service/internal/pkg/utils"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	log := logger.NewZapLogger(driverConfig, internalConfig)

	location, err := time.LoadLocation(internalConfig.App.Timezone)
	if err != nil {
		logrus.Fatalf("Error loading location: %v", err)
	}
	time.Local = location

	postgresDB := database.NewPostgresDB(driverConfig)
	if utils.GetEnvBool("APP_RUN_MIGRATION", false) {
		migration.Run(postgresDB)
	}
	redisClient := database.NewRedisClient(driverConfig)
	rabbitMQ := messaging.NewRabbitMQ(driverConfig)
	chiRouter := chi.NewRouter()

	bootstrap := config.Bootstrap{
		Router:         chiRouter,
		PostgresDB:     postgresDB,
		Redis:          redisClient,
		RabbitMQ:       rabbitMQ,
		Logger:         log,
		DriverConfig:   driverConfig,
		InternalConfig: internalConfig,
	}
	bootstrapingTheApp(bootstrap)

	server := &http.Server{
		Addr:    internalConfig.App.Port,
		Handler: chiRouter,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	logrus.Println("Waiting for pending requests that already received by server to be processed..")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeout),
	)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := bootstrap.Shutdown(shutdownCtx); err != nil {
		logrus.Printf("Error closing drivers: %v", err)
	}

	logrus.Println("Server exiting")
}

func bootstrapingTheApp(bootstrap config.Bootstrap) {
	// Redis
	redisRepository := redis.NewRedisRepository(bootstrap.Redis)

	// Middlewares
	middlewares := middlewares.NewMiddlewares(bootstrap.Logger, bootstrap.InternalConfig)

	// Audit trail queue
	auditQueue, err := auditqueue.NewService(bootstrap.RabbitMQ, bootstrap.Logger, bootstrap.InternalConfig.Audit)
	if err != nil {
		logrus.Fatalf("Failed to initialize audit queue: %v", err)
	}

	// Institutions
	institutionRepository := institutions.NewInstitutionPostgresRepository(bootstrap.PostgresDB)
	settingsProvider := institutions.NewCachedSettingsProvider(
		institutionRepository,
		redisRepository,
		bootstrap.InternalConfig.App.SettingsCacheTTLInMinutes,
		bootstrap.Logger,
	)

	// Ledger
	ledgerRepository := ledger.NewLedgerPostgresRepository(bootstrap.PostgresDB)

	// Gateway client
	gatewayService := payment_gateway.NewPaystackService(bootstrap.InternalConfig)

	// Payments
	paymentUsecase := payments.NewPaymentUsecase(
		ledgerRepository,
		institutionRepository,
		settingsProvider,
		gatewayService,
		auditQueue,
		bootstrap.InternalConfig,
		bootstrap.Logger,
	)
	paymentController := controllers.NewPaymentController(bootstrap.Logger, paymentUsecase)

	// Webhook
	webhookUsecase := webhook.NewWebhookUsecase(paymentUsecase, settingsProvider, bootstrap.Logger)
	webhookController := controllers.NewWebhookController(bootstrap.Logger, webhookUsecase)

	routers.SetupRoutes(bootstrap.Router, bootstrap.InternalConfig, middlewares, paymentController, webhookController)
}

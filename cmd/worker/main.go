package main

import (
	"context"
	"os"
	"os/signal"
	"schoolpay-service/internal/app/config"
	"schoolpay-service/internal/app/drivers/database"
	"schoolpay-service/internal/app/drivers/logger"
	"schoolpay-service/internal/app/drivers/messaging"
	"schoolpay-service/internal/app/services/core/audit"
	"schoolpay-service/internal/app/services/shared/auditqueue"
	"syscall"

	"github.com/sirupsen/logrus"
)

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	log := logger.NewZapLogger(driverConfig, internalConfig)

	mongoDB := database.NewMongoDB(driverConfig)
	rabbitMQ := messaging.NewRabbitMQ(driverConfig)

	auditQueue, err := auditqueue.NewService(rabbitMQ, log, internalConfig.Audit)
	if err != nil {
		logrus.Fatalf("Failed to initialize audit queue: %v", err)
	}

	auditRepository := audit.NewAuditMongoRepository(mongoDB, internalConfig.Audit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := audit.NewWorker(log, auditQueue, auditRepository, internalConfig.Audit.Prefetch)
	stop := worker.Start(ctx)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logrus.Println("Stopping audit worker..")
	stop()

	if err := rabbitMQ.Close(); err != nil {
		logrus.Printf("Error closing RabbitMQ: %v", err)
	}
	if err := mongoDB.Disconnect(ctx); err != nil {
		logrus.Printf("Error closing MongoDB: %v", err)
	}

	logrus.Println("Audit worker exiting")
}

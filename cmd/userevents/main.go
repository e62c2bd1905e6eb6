package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"user-registry-api/config"
	"user-registry-api/internal/infrastructure/logger"
	"user-registry-api/pkg/rmqconsumer"
)

// userevents prints user lifecycle events published by userregistry.
func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	l, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("cannot initialize zap logger: %v", err)
	}
	defer l.Sync()

	dsn, err := cfg.AMQPDSN()
	if err != nil {
		l.Fatal("RabbitMQ config error", zap.Error(err))
	}

	c := rmqconsumer.New(cfg.MQ, l)
	if err = c.Connect(dsn); err != nil {
		l.Fatal("failed to connect rabbitMQ consumer", zap.Error(err))
	}
	defer c.Close()

	if err = c.Init(); err != nil {
		l.Error("failed to init rabbitMQ consumer", zap.Error(err))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.DeliveryWorker(ctx)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"global-app/internal/config"
	appKafka "global-app/internal/kafka"
	kafkahandlers "global-app/internal/kafka/handlers"
	"global-app/internal/logger"
)

// activityworker consumes the activity topic and writes an audit log entry per event.
func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Build(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	logger.ReplaceGlobal(log)
	defer log.Sync()
	log = log.Named("activityworker")

	consumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		log.Fatal("create kafka consumer", zap.Error(err))
	}
	defer consumer.Close()

	handler := kafkahandlers.NewActivityAuditHandler(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		log.Info("consuming activity events",
			zap.String("topic", cfg.Kafka.ActivityTopic),
			zap.String("group", cfg.Kafka.ConsumerGroup))
		done <- consumer.Consume(ctx, []string{cfg.Kafka.ActivityTopic}, cfg.Kafka.ConsumerGroup, handler.HandleMessage)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
		if err := <-done; err != nil {
			log.Error("consumer stopped with error", zap.Error(err))
		}
	case err := <-done:
		if err != nil {
			log.Fatal("consumer stopped with error", zap.Error(err))
		}
	}
	log.Info("activity worker stopped")
}

package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/oksasatya/go-account-service/config"
	"github.com/oksasatya/go-account-service/internal/infrastructure/events"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/mailer"
)

// notify_worker consumes account events and emails the account owner.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-notify", cfg.Env, cfg.LogLevel)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; notify worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQAccountQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}
	if _, err := helpers.DeclareQueue(ch, cfg.RabbitMQAccountQueue); err != nil {
		log.Fatalf("queue declare: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQAccountQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	notifier := events.NewNotifier(mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender), cfg.AppName, logger)
	notifier.Sent = events.NewMemorySentLog(24 * time.Hour)
	if cfg.RedisAddr != "" {
		rdb, err := helpers.NewRedisClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, using in-process sent log")
		} else {
			defer func() { _ = rdb.Close() }()
			notifier.Sent = events.NewRedisSentLog(rdb, 24*time.Hour)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			err := notifier.Handle(ctx, msg.MessageId, msg.Body)
			switch {
			case err == nil:
				_ = msg.Ack(false)
			case errors.Is(err, events.ErrMalformedEvent):
				logger.WithError(err).WithField("message_id", msg.MessageId).Warn("dropping account event")
				_ = msg.Nack(false, false)
			default:
				logger.WithError(err).WithField("message_id", msg.MessageId).Error("notify failed, requeueing")
				_ = msg.Nack(false, true)
			}
		}
	}()

	logger.Infof("notify worker consuming %s", cfg.RabbitMQAccountQueue)
	select {
	case <-ctx.Done():
		logger.Info("shutting down notify worker")
	case <-done:
		logger.Warn("delivery channel closed")
	}
}

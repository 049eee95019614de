// Command notifier consumes booking notifications from RabbitMQ and
// delivers them through the email API.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/email"
	"github.com/iliyamo/slot-booking/internal/logger"
	"github.com/iliyamo/slot-booking/internal/queue"
)

func main() {
	_ = godotenv.Load()

	var (
		cfg config.Config
		err error
	)
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, closer, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closer.Close()

	sender := email.NewSender(cfg.Email, cfg.Notify.Timeout)
	if sender == nil {
		lg.Error("RESEND_API_KEY and EMAIL_FROM are required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := queue.NewConsumer(cfg.Notify.RabbitURL, cfg.Notify.Queue, sender, cfg.Notify.Timeout, lg.With("component", "notifier"))
	lg.Info("consuming notifications", "queue", cfg.Notify.Queue)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("consumer stopped", "err", err)
		os.Exit(1)
	}
	lg.Info("notifier stopped")
}

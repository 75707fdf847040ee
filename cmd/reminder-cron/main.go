// Command reminder-cron periodically asks the server to send due
// reservation reminders.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/medialab/equipment-booking/internal/cronclient"
	"github.com/medialab/equipment-booking/internal/logger"
)

func main() {
	_ = godotenv.Load()

	var (
		url      = flag.String("url", envOr("REMINDER_URL", "http://localhost:8080/v1/reminders/send"), "reminder trigger endpoint")
		secret   = flag.String("secret", os.Getenv("CRON_SECRET"), "shared cron secret (default $CRON_SECRET)")
		interval = flag.Duration("interval", envDuration("REMINDER_INTERVAL", 5*time.Minute), "time between sweeps")
		timeout  = flag.Duration("timeout", 30*time.Second, "HTTP timeout per sweep")
		once     = flag.Bool("once", false, "trigger a single sweep and exit")
	)
	flag.Parse()

	log := logger.New(envOr("APP_ENV", "dev")).Named("reminder-cron")
	defer func() { _ = log.Sync() }()
	if *secret == "" {
		log.Fatal("missing cron secret (-secret or CRON_SECRET)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := cronclient.New(*url, *secret, *timeout, log)
	if *once {
		res, err := client.Trigger(ctx)
		if err != nil {
			log.Fatal("reminder sweep failed", zap.Error(err))
		}
		log.Info("reminder sweep done", zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
		return
	}
	log.Info("reminder cron started", zap.String("url", *url), zap.Duration("interval", *interval))
	_ = client.Run(ctx, *interval)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envDuration(k string, d time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return d
}

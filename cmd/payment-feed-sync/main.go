// payment-feed-sync polls the external payment feed for every active
// property on a fixed interval and ingests new payments.
//
// Env:
//   PAYMENT_FEED_POLL_MINUTES (default 15)
//   PAYMENT_FEED_BASE_URL / PAYMENT_FEED_API_KEY (see paymentfeed package)
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"bitbucket.org/mmdatafocus/rentals_backend/paymentfeed"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	interval := time.Duration(intFromEnv("PAYMENT_FEED_POLL_MINUTES", 15)) * time.Minute

	ctx := utils.SetUserNameInContext(sigCtx, "PaymentFeedSync")

	// Run one pass immediately, then tick.
	runOnce(ctx, logger)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-sigCtx.Done():
			logger.WithFields(logrus.Fields{"field": "payment-feed-sync"}).Info("shutting down")
			return
		case <-ticker.C:
			runOnce(ctx, logger)
		}
	}
}

func runOnce(ctx context.Context, logger *logrus.Logger) {
	db := config.GetDB()
	if db == nil {
		logger.WithFields(logrus.Fields{"field": "payment-feed-sync"}).Warn("db not ready; skipping pass")
		return
	}

	var properties []*models.Property
	if err := db.WithContext(ctx).
		Where("status = ?", models.PropertyStatusActive).
		Find(&properties).Error; err != nil {
		config.LogError(logger, "main.go", "runOnce", "list properties", nil, err)
		return
	}

	for _, property := range properties {
		result, err := paymentfeed.PullPayments(ctx, property.Id)
		if err != nil {
			config.LogError(logger, "main.go", "runOnce", "PullPayments", property.Id, err)
			continue
		}
		logger.WithFields(logrus.Fields{
			"field":       "payment-feed-sync",
			"property_id": property.Id,
			"ingested":    result.Ingested,
			"skipped":     result.Skipped,
			"errors":      len(result.Errors),
		}).Info("feed pass complete")
	}
}

func intFromEnv(key string, def int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

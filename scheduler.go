package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"food-delivery/config"
	"food-delivery/metrics"
	"food-delivery/services"
)

const resetJobName = "reset_daily_km"

// newScheduler registers the daily courier km reset. An empty schedule
// disables it.
func newScheduler(cfg config.CronConfig, svc *services.Service, log logrus.FieldLogger) (*cron.Cron, error) {
	c := cron.New()
	if cfg.DailyResetSpec == "" {
		return c, nil
	}
	if _, err := c.AddFunc(cfg.DailyResetSpec, resetDailyJob(svc, log)); err != nil {
		return nil, fmt.Errorf("DAILY_RESET_CRON %q: %w", cfg.DailyResetSpec, err)
	}
	return c, nil
}

func resetDailyJob(svc *services.Service, log logrus.FieldLogger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := svc.ResetDailyKm(ctx)
		metrics.RecordCronRun(resetJobName, err == nil)
		if err != nil {
			log.WithError(err).WithField("job", resetJobName).Error("scheduled job failed")
			return
		}
		log.WithField("job", resetJobName).WithField("couriers", n).Info("scheduled job done")
	}
}

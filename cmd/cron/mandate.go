package main

import (
	"context"
	"log"
	"time"

	"bskmt/internal/services"

	"github.com/robfig/cron/v3"
	"github.com/samber/do"
)

const defaultMandateSchedule = "@daily"

// MandateJob demotes Leaders with lapsed mandates and clears elapsed
// re-application cool-downs. Expiry is applied here on schedule, never
// lazily on reads.
type MandateJob struct {
	container *do.Injector
}

func NewMandateJob(container *do.Injector) *MandateJob {
	return &MandateJob{container}
}

func (j *MandateJob) Start(cronRunner *cron.Cron) {
	schedule := defaultMandateSchedule

	serviceConfig, err := do.Invoke[*services.ServiceConfig](j.container)
	if err == nil {
		if configured, err := serviceConfig.GetStringConfig(context.Background(), services.CONFIG_CRONJOB_TIME_MANDATES, defaultMandateSchedule); err == nil && configured != "" {
			schedule = configured
		}
	}

	_, err = cronRunner.AddFunc(schedule, j.run)
	log.Println("Mandate cronjob start at:", time.Now().Format("2006-01-02 15:04:05"), "cron:", schedule, err)
}

func (j *MandateJob) run() {
	ctx := context.Background()

	serviceProgression, err := do.Invoke[*services.ServiceProgression](j.container)
	if err != nil {
		log.Println(err)
		return
	}

	demoted, err := serviceProgression.SweepMandates(ctx)
	if err != nil {
		log.Println(err)
	}
	if demoted > 0 {
		log.Println("Expired mandates applied:", demoted)
	}

	cleared, err := serviceProgression.SweepCooldowns(ctx)
	if err != nil {
		log.Println(err)
	}
	if cleared > 0 {
		log.Println("Cool-downs cleared:", cleared)
	}
}

package main

import (
	"context"
	"log"
	"time"

	"bskmt/internal/services"

	"github.com/robfig/cron/v3"
	"github.com/samber/do"
)

const defaultLeaderboardSchedule = "@every 10m"

type LeaderboardJob struct {
	container *do.Injector
}

func NewLeaderboardJob(container *do.Injector) *LeaderboardJob {
	return &LeaderboardJob{container}
}

func (j *LeaderboardJob) Start(cronRunner *cron.Cron) {
	schedule := defaultLeaderboardSchedule

	serviceConfig, err := do.Invoke[*services.ServiceConfig](j.container)
	if err == nil {
		if configured, err := serviceConfig.GetStringConfig(context.Background(), services.CONFIG_CRONJOB_TIME_LEADERBOARD, defaultLeaderboardSchedule); err == nil && configured != "" {
			schedule = configured
		}
	}

	_, err = cronRunner.AddFunc(schedule, j.run)
	log.Println("Leaderboard cronjob start at:", time.Now().Format("2006-01-02 15:04:05"), "cron:", schedule, err)

	// first snapshot right away, the schedule only keeps it fresh
	j.run()
}

func (j *LeaderboardJob) run() {
	ctx := context.Background()

	serviceLeaderboard, err := do.Invoke[*services.ServiceLeaderboard](j.container)
	if err != nil {
		log.Println(err)
		return
	}

	ranked, err := serviceLeaderboard.Rebuild(ctx)
	if err != nil {
		log.Println(err)
		return
	}

	log.Println("Leaderboard rebuilt, members ranked:", ranked)
}

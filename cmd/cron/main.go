package main

import (
	"database/sql"
	"log"
	"os"

	"bskmt/internal/interfaces"
	"bskmt/internal/pkg/caching"
	"bskmt/internal/pkg/collab"
	"bskmt/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "cronjob",
		Commands: []*cli.Command{
			commandCronjob(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandCronjob() *cli.Command {
	return &cli.Command{
		Name: "cron",
		Action: func(c *cli.Context) error {
			vs, err := env.EnvsRequired(
				"DB_DSN",
				"EVENTS_BASE_URL",
				"VOLUNTEERING_BASE_URL",
				"COMMITTEE_BASE_URL",
				"NOTIFICATIONS_BASE_URL",
			)
			if err != nil {
				return err
			}

			container := NewContainer(vs)
			cronRunner := cron.New()

			leaderboardJob := NewLeaderboardJob(container)
			leaderboardJob.Start(cronRunner)

			mandateJob := NewMandateJob(container)
			mandateJob.Start(cronRunner)

			log.Println("Start cronjob")
			cronRunner.Run()
			return nil
		},
	}
}

func NewContainer(vs map[string]string) *do.Injector {
	injector := do.New()
	do.ProvideNamedValue(injector, "envs", vs)

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(os.Getenv("DB_DSN")),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
		))

		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	do.ProvideNamed(injector, "db-readonly", func(i *do.Injector) (*bun.DB, error) {
		dsn := os.Getenv("DB_DSN_READONLY")
		if dsn == "" {
			dsn = os.Getenv("DB_DSN")
		}
		password := os.Getenv("DB_PASSWORD_READONLY")
		if password == "" {
			password = os.Getenv("DB_PASSWORD")
		}

		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(dsn),
			pgdriver.WithPassword(password),
		))

		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	do.ProvideNamed(injector, "redis-db", func(i *do.Injector) (redis.UniversalClient, error) {
		return getRedis("CLUSTER_REDIS_DB", "REDIS_DB")
	})

	do.ProvideNamed(injector, "redis-cache", func(i *do.Injector) (redis.UniversalClient, error) {
		return getRedis("CLUSTER_REDIS_CACHE", "REDIS_CACHE")
	})

	do.ProvideNamed(injector, "redis-cache-readonly", func(i *do.Injector) (redis.UniversalClient, error) {
		if os.Getenv("REDIS_CACHE_READONLY") != "" || os.Getenv("CLUSTER_REDIS_CACHE_READONLY") != "" {
			return getRedis("CLUSTER_REDIS_CACHE_READONLY", "REDIS_CACHE_READONLY")
		}
		return getRedis("CLUSTER_REDIS_CACHE", "REDIS_CACHE")
	})

	do.ProvideNamed(injector, "redis-mutex", func(i *do.Injector) (redis.UniversalClient, error) {
		return getRedis("CLUSTER_REDIS_MUTEX", "REDIS_MUTEX")
	})

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (caching.ReadOnlyCache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache-readonly")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}

		pool := goredis.NewPool(dbRedis)
		return redsync.New(pool), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.EventStats, error) {
		return collab.NewEventStatsHTTP(vs["EVENTS_BASE_URL"]), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.VolunteerStats, error) {
		return collab.NewVolunteerStatsHTTP(vs["VOLUNTEERING_BASE_URL"]), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.EvaluationCommittee, error) {
		return collab.NewCommitteeHTTP(vs["COMMITTEE_BASE_URL"]), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Notifier, error) {
		return collab.NewNotifierHTTP(vs["NOTIFICATIONS_BASE_URL"]), nil
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceConfig, error) {
		return services.NewServiceConfig(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceMember, error) {
		return services.NewServiceMember(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceRequirements, error) {
		return services.NewServiceRequirements(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceProgression, error) {
		return services.NewServiceProgression(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceLeaderboard, error) {
		return services.NewServiceLeaderboard(injector)
	})

	return injector
}

func getRedis(clusterEnv, urlEnv string) (redis.UniversalClient, error) {
	clusterURL := os.Getenv(clusterEnv)
	if clusterURL != "" {
		clusterOpts, err := redis.ParseClusterURL(clusterURL)
		if err != nil {
			return nil, err
		}
		return redis.NewClusterClient(clusterOpts), nil
	}

	return db.InitRedis(&db.RedisConfig{
		URL: os.Getenv(urlEnv),
	})
}

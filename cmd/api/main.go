package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"bskmt/internal/api/handler"
	"bskmt/internal/interfaces"
	"bskmt/internal/pkg/caching"
	"bskmt/internal/pkg/collab"
	"bskmt/internal/pkg/limiter"
	"bskmt/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
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
	vs, err := env.EnvsRequired(
		"JWT_SECRET",
		"DB_DSN",
		"ADMIN_API_KEY",
		"EVENTS_BASE_URL",
		"VOLUNTEERING_BASE_URL",
		"COMMITTEE_BASE_URL",
		"NOTIFICATIONS_BASE_URL",
	)
	if err != nil {
		log.Fatal(err)
	}

	container := NewContainer(vs)

	app := &cli.App{
		Name: "api",
		Commands: []*cli.Command{
			commandServer(container),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandServer(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "start the web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: "0.0.0.0:8080",
				Usage: "serve address",
			},
		},
		Action: func(c *cli.Context) error {
			vs := do.MustInvokeNamed[map[string]string](container, "envs")

			adminRate, err := strconv.Atoi(vs["ADMIN_RATE_LIMIT"])
			if err != nil || adminRate <= 0 {
				adminRate = services.ADMIN_RATE_LIMIT_DEFAULT
			}

			router, err := handler.New(&handler.Config{
				Container:   container,
				Mode:        vs["API_MODE"],
				Origins:     strings.Split(vs["API_ORIGINS"], ","),
				AdminAPIKey: vs["ADMIN_API_KEY"],
				AdminRate:   adminRate,
			})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:    c.String("addr"),
				Handler: router,
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errWg, errCtx := errgroup.WithContext(ctx)

			errWg.Go(func() error {
				log.Printf("ListenAndServe: %s (%s)\n", c.String("addr"), vs["API_MODE"])
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})

			errWg.Go(func() error {
				<-errCtx.Done()
				return srv.Shutdown(context.TODO())
			})

			return errWg.Wait()
		},
	}
}

func NewContainer(vs map[string]string) *do.Injector {
	injector := do.New()
	vs["API_MODE"] = os.Getenv("API_MODE")
	vs["API_ORIGINS"] = os.Getenv("API_ORIGINS")
	vs["ADMIN_RATE_LIMIT"] = os.Getenv("ADMIN_RATE_LIMIT")

	if vs["API_MODE"] == "" {
		vs["API_MODE"] = "production"
	}
	if vs["API_ORIGINS"] == "" {
		vs["API_ORIGINS"] = "*"
	}

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
		clusterURL := os.Getenv("CLUSTER_REDIS_DB")
		if clusterURL != "" {
			clusterOpts, err := redis.ParseClusterURL(clusterURL)
			if err != nil {
				return nil, err
			}
			return redis.NewClusterClient(clusterOpts), nil
		}
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_DB"),
		})
	})

	do.ProvideNamed(injector, "redis-cache", func(i *do.Injector) (redis.UniversalClient, error) {
		clusterURL := os.Getenv("CLUSTER_REDIS_CACHE")
		if clusterURL != "" {
			clusterOpts, err := redis.ParseClusterURL(clusterURL)
			if err != nil {
				return nil, err
			}
			return redis.NewClusterClient(clusterOpts), nil
		}
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_CACHE"),
		})
	})

	do.ProvideNamed(injector, "redis-cache-readonly", func(i *do.Injector) (redis.UniversalClient, error) {
		var clusterOpts *redis.ClusterOptions
		var err error
		clusterReadOnlyURL := os.Getenv("CLUSTER_REDIS_CACHE_READONLY")
		if clusterReadOnlyURL != "" {
			clusterOpts, err = redis.ParseClusterURL(clusterReadOnlyURL)
		} else {
			clusterURL := os.Getenv("CLUSTER_REDIS_CACHE")
			if clusterURL != "" {
				clusterOpts, err = redis.ParseClusterURL(clusterURL)
			}
		}

		if err != nil {
			return nil, err
		}
		if clusterOpts != nil {
			clusterOpts.ReadOnly = true
			return redis.NewClusterClient(clusterOpts), nil
		}

		url := os.Getenv("REDIS_CACHE_READONLY")
		if url == "" {
			url = os.Getenv("REDIS_CACHE")
		}
		return db.InitRedis(&db.RedisConfig{URL: url})
	})

	do.ProvideNamed(injector, "redis-limiter", func(i *do.Injector) (redis.UniversalClient, error) {
		clusterURL := os.Getenv("CLUSTER_REDIS_LIMITER")
		if clusterURL != "" {
			clusterOpts, err := redis.ParseClusterURL(clusterURL)
			if err != nil {
				return nil, err
			}
			return redis.NewClusterClient(clusterOpts), nil
		}
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_LIMITER"),
		})
	})

	do.ProvideNamed(injector, "redis-mutex", func(i *do.Injector) (redis.UniversalClient, error) {
		clusterURL := os.Getenv("CLUSTER_REDIS_MUTEX")
		if clusterURL != "" {
			clusterOpts, err := redis.ParseClusterURL(clusterURL)
			if err != nil {
				return nil, err
			}
			return redis.NewClusterClient(clusterOpts), nil
		}
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_MUTEX"),
		})
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

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-limiter")
		if err != nil {
			return nil, err
		}

		return limiter.NewLimiter(dbRedis)
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

	do.Provide(injector, func(i *do.Injector) (*services.Authentication, error) {
		return services.NewAuthentication(vs["JWT_SECRET"])
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceConfig, error) {
		return services.NewServiceConfig(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceMember, error) {
		return services.NewServiceMember(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServicePoints, error) {
		return services.NewServicePoints(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceRequirements, error) {
		return services.NewServiceRequirements(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceProgression, error) {
		return services.NewServiceProgression(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceReward, error) {
		return services.NewServiceReward(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceLeaderboard, error) {
		return services.NewServiceLeaderboard(injector)
	})

	return injector
}

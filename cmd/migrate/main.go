package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"bskmt/internal/datastore"
	"bskmt/internal/models"
	"bskmt/internal/services"

	"github.com/joho/godotenv"
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
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandConfigMigration(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func getDb() *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	return bun.NewDB(sqldb, pgdialect.New())
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name:  "tables",
		Usage: "create the tables and indexes",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db := getDb()

			if err := datastore.CreateTableConfig(ctx, db); err != nil {
				return err
			}
			if err := datastore.CreateTableMember(ctx, db); err != nil {
				return err
			}
			if err := datastore.CreateTableMembershipEvent(ctx, db); err != nil {
				return err
			}
			if err := datastore.CreateTablePointsTransaction(ctx, db); err != nil {
				return err
			}
			if err := datastore.CreateTableReward(ctx, db); err != nil {
				return err
			}
			if err := datastore.CreateTableRedemption(ctx, db); err != nil {
				return err
			}
			if err := datastore.CreateTableLeaderApplication(ctx, db); err != nil {
				return err
			}

			log.Println("tables created")
			return nil
		},
	}
}

func commandConfigMigration() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "seed the default config rows",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db := getDb()

			defaults := map[string]string{
				services.CONFIG_UPGRADE_EVENT_PERCENTAGE: "50",
				services.CONFIG_UPGRADE_MINIMUM_DAYS:     "365",
				services.CONFIG_LAST_YEAR_POINTS:         "1000",
				services.CONFIG_LEADER_ENDORSE_LEADERS:   "3",
				services.CONFIG_LEADER_ENDORSE_MASTERS:   "5",
				services.CONFIG_LEADER_COOLDOWN_DAYS:     "90",
				services.CONFIG_LEADER_MANDATE_MONTHS:    "12",
				services.CONFIG_LEADER_MAX_SEATS:         "7",
				services.CONFIG_ADMIN_RATE_LIMIT:         "120",
				services.CONFIG_CRONJOB_TIME_LEADERBOARD: "@every 10m",
				services.CONFIG_CRONJOB_TIME_MANDATES:    "@daily",
			}

			for key, value := range defaults {
				if err := datastore.InsertConfig(ctx, db, models.Config{Key: key, Value: value}); err != nil {
					return err
				}
			}

			log.Println("config seeded")
			return nil
		},
	}
}

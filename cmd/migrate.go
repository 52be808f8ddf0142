package cmd

import (
	"context"
	"log"

	"github.com/frahmantamala/dealership-crm/internal/store/local"
	"github.com/frahmantamala/dealership-crm/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files under db/migrations directory on the cloud database",
	}
	migrateRollback bool
	migrateStatus   bool
	migrateLocal    bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print the applied migrations")
	migrateCmd.Flags().BoolVar(&migrateLocal, "local", false, "upgrade the local SQLite cache instead of the cloud")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "sql migrations directory")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configDir)
	if err != nil {
		log.Fatal(err)
	}
	initLogger(cfg.Observability.Logging)

	if migrateLocal {
		db, err := local.Open(cfg.Local)
		if err != nil {
			log.Fatalf("local: failed to open DB: %v\n", err)
		}
		return local.Migrate(db, logger.LoggerWrapper())
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.Cloud.GetDSN())
	if err != nil {
		log.Fatalf("goose: failed to open DB: %v\n", err)
	}
	defer db.Close()
	goose.SetTableName("schema_migrations")

	command := "up"
	switch {
	case migrateRollback:
		command = "down"
	case migrateStatus:
		command = "status"
	}

	if err := goose.RunContext(ctx, command, db, migrateDir); err != nil {
		log.Fatalf("goose %s: %v", command, err)
	}

	return nil
}

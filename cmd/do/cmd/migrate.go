package cmd

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/templui/spaces/internal/db"
)

type dbFlags struct {
	driver     string
	connection string
}

func (f *dbFlags) bind(cmd *cobra.Command) {
	_ = godotenv.Load()

	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	connection := os.Getenv("DB_CONNECTION")
	if connection == "" {
		connection = "./data/spaces.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	}

	cmd.PersistentFlags().StringVar(&f.driver, "driver", driver, "database driver (sqlite or pgx)")
	cmd.PersistentFlags().StringVar(&f.connection, "db", connection, "database connection string")
}

func (f *dbFlags) open() (*sqlx.DB, error) {
	return db.Open(f.driver, f.connection)
}

func MigrateCmd() *cobra.Command {
	flags := &dbFlags{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect database migrations",
	}
	flags.bind(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(flags, func(database *sqlx.DB) error {
				err := db.Migrate(database.DB, flags.driver)
				if err != nil {
					return err
				}
				return printVersion(database, flags.driver)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(flags, func(database *sqlx.DB) error {
				err := db.Rollback(database.DB, flags.driver)
				if err != nil {
					return err
				}
				return printVersion(database, flags.driver)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(flags, func(database *sqlx.DB) error {
				return printVersion(database, flags.driver)
			})
		},
	})

	return cmd
}

func withDB(flags *dbFlags, fn func(*sqlx.DB) error) error {
	database, err := flags.open()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(database) }()
	return fn(database)
}

func printVersion(database *sqlx.DB, driver string) error {
	version, err := db.Version(database.DB, driver)
	if err != nil {
		return err
	}
	fmt.Println("schema version:", version)
	return nil
}

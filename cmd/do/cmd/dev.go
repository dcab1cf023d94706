package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/templui/spaces/internal/db"
)

func DevCmd() *cobra.Command {
	flags := &dbFlags{}
	var port string

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Migrate the dev database and run the server under air",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withDB(flags, func(database *sqlx.DB) error {
				return db.Migrate(database.DB, flags.driver)
			})
			if err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			return runDev(port)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&port, "port", "8090", "port the server listens on behind the air proxy")

	return cmd
}

func runDev(port string) error {
	airPath, err := exec.LookPath("air")
	if err != nil {
		fmt.Println("Missing binary: air")
		fmt.Println("Install with:")
		fmt.Println("  go install github.com/air-verse/air@latest")
		return fmt.Errorf("air not found")
	}

	airArgs := []string{
		"air",
		"-c", "/dev/null",
		"-root", ".",
		"-build.cmd", "go build -o ./tmp/server ./cmd/server",
		"-build.bin", "./tmp/server",
		"-build.delay", "100",
		"-build.exclude_dir", "bin,tmp,data,_examples",
		"-build.exclude_regex", "_test.go$",
		"-build.include_ext", "go,html,sql",
		"-build.send_interrupt", "true",
		"-proxy.enabled", "true",
		"-proxy.proxy_port", "8080",
		"-proxy.app_port", port,
	}

	env := os.Environ()
	env = append(env, "PORT="+port)
	if os.Getenv("APP_ENV") == "" {
		env = append(env, "APP_ENV=development")
	}

	return syscall.Exec(airPath, airArgs, env)
}

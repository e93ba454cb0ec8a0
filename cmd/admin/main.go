// Command admin runs operator tasks against the campusfin database:
// schema migrations, rule-set import/export and cache maintenance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"campusfin/internal/config"
	"campusfin/internal/database"
	"campusfin/internal/logger"
)

var flagMigrations string

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "campusfin operator tooling",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMigrations, "migrations", database.DefaultMigrationsSource, "Migration source URL")
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		logger.Get().Fatalf("admin: %v", err)
	}
}

// openManager loads configuration and connects to the database.
func openManager() (*config.Config, *database.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	dbConfig := database.NewConfig(cfg)
	dbConfig.MigrationsSource = flagMigrations

	m, err := database.NewManager(dbConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}
	return cfg, m, nil
}

func closeManager(m *database.Manager) {
	if err := m.Close(); err != nil {
		logger.Get().Warnf("failed to close database: %v", err)
	}
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"campusfin/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		_, m, err := openManager()
		if err != nil {
			return err
		}
		defer closeManager(m)
		return m.RunMigrations()
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [N]",
	Short: "Roll back the last N migrations (default 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count: %w", err)
			}
			steps = n
		}

		_, m, err := openManager()
		if err != nil {
			return err
		}
		defer closeManager(m)
		return m.RollbackMigrations(steps)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		_, m, err := openManager()
		if err != nil {
			return err
		}
		defer closeManager(m)

		version, dirty, err := m.MigrationVersion()
		if err != nil {
			return err
		}
		logger.Get().Infof("Version: %d, Dirty: %v", version, dirty)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/pantry/internal/config"
	"github.com/mmynk/pantry/internal/storage/sqlite"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
	Long: "Apply every pending migration, or move the schema by --steps migrations.\n" +
		"A negative --steps rolls back.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := dbPath
		if path == "" {
			var err error
			if path, err = config.DBPath(); err != nil {
				return err
			}
		}

		version, err := sqlite.Migrate(path, migrateSteps)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database %s at schema version %d\n", path, version)
		return nil
	},
}

func init() {
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 0, "Number of migrations to apply (negative rolls back, 0 applies all)")
	rootCmd.AddCommand(migrateCmd)
}

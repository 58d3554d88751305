package main

import (
	"fmt"

	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/config"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags(), cfgFile)
		if err != nil {
			return err
		}

		// Open migrates as a side effect.
		db, err := database.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		v, err := database.Version(db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", cfg.DBPath, v)
		return nil
	},
}

func init() {
	migrateCmd.Flags().String("db-path", "mcw.db", "SQLite database path")
}

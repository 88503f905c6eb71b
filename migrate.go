package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/lyrion-studio/lyrion-api/accesscode"
	"github.com/lyrion-studio/lyrion-api/config"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var seedCodes string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Run AutoMigrate for every table the service owns.

Examples:
  lyrion migrate
  lyrion migrate --seed-codes data/access-codes.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := openMigrated(cfg)
			if err != nil {
				return err
			}
			log.Println("✅ Schema migrated")

			if seedCodes == "" {
				return nil
			}
			raw, err := os.ReadFile(seedCodes)
			if err != nil {
				return fmt.Errorf("read %s: %w", seedCodes, err)
			}
			var doc accesscode.Document
			if err := json.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("parse %s: %w", seedCodes, err)
			}
			n, err := accesscode.NewDBStore(db).Import(cmd.Context(), doc)
			if err != nil {
				return err
			}
			log.Printf("🎟️ Imported %d access codes", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&seedCodes, "seed-codes", "", "import an access-code JSON document into the database")
	return cmd
}

package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/lyrion-studio/lyrion-api/accesscode"
	"github.com/lyrion-studio/lyrion-api/config"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func validateCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-code CODE",
		Short: "Check an access code against the configured backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			var db *gorm.DB
			if cfg.AccessCodeBackend == "database" {
				if db, err = openMigrated(cfg); err != nil {
					return err
				}
			}
			reader, _, _ := accessCodes(cfg, db, &http.Client{Timeout: cfg.HTTPTimeout})
			result := accesscode.NewValidator(reader, nil).Validate(cmd.Context(), args[0])

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

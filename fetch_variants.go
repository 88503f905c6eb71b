package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/lyrion-studio/lyrion-api/config"
	"github.com/lyrion-studio/lyrion-api/fulfillment"
	"github.com/lyrion-studio/lyrion-api/routing"
	"github.com/spf13/cobra"
)

func fetchVariantsCmd() *cobra.Command {
	var (
		output string
		format string
	)
	cmd := &cobra.Command{
		Use:   "fetch-variants",
		Short: "Build the routing table from the Printful store",
		Long: `List every synced product in the Printful store and write a routing
table mapping storefront SKUs (the product external id) and sizes to
Printful sync variant ids.

Examples:
  lyrion fetch-variants > data/routing.json
  lyrion fetch-variants --format yaml -o data/routing.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unknown format %q", format)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Printful.APIKey == "" {
				return fmt.Errorf("PRINTFUL_API_KEY is not set")
			}

			client := fulfillment.NewPrintfulClient(&http.Client{Timeout: cfg.HTTPTimeout}, fulfillment.PrintfulConfig{
				BaseURL: cfg.Printful.BaseURL,
				APIKey:  cfg.Printful.APIKey,
				StoreID: cfg.Printful.StoreID,
			})
			entries, err := fulfillment.RoutingEntries(cmd.Context(), client)
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := routing.NewTable(entries).Encode(w, format); err != nil {
				return err
			}
			log.Printf("✅ Routing table with %d products written", len(entries))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().StringVar(&format, "format", "json", "json or yaml")
	return cmd
}

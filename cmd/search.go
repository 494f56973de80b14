package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"unity/internal/media"
	"unity/internal/ui"
)

var flagSearchProvider string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalogs of every enabled site",
	Args:  cobra.MinimumNArgs(1),
	RunE:  searchRun,
}

func init() {
	searchCmd.Flags().StringVarP(&flagSearchProvider, "provider", "p", "", "Only search one provider: au | sc")
}

func searchRun(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	debugf("searching for: %s", query)

	reg, err := buildRegistry(cfg, log)
	if err != nil {
		return fmt.Errorf("building providers: %w", err)
	}
	if flagSearchProvider != "" && !lo.Contains(reg.Prefixes(), flagSearchProvider) {
		return fmt.Errorf("unknown provider %q (enabled: %s)", flagSearchProvider, strings.Join(reg.Prefixes(), ", "))
	}

	var records []media.CatalogRecord
	for _, res := range searchAll(cmd.Context(), reg, query) {
		if flagSearchProvider != "" && res.Provider.Prefix() != flagSearchProvider {
			continue
		}
		records = append(records, res.Records...)
	}

	if flagJSON {
		return printJSON(lo.Ternary(records == nil, []media.CatalogRecord{}, records))
	}
	ui.NewPrinter(os.Stdout).Catalog(records)
	return nil
}

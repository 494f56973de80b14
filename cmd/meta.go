package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"unity/internal/provider"
	"unity/internal/ui"
)

var metaCmd = &cobra.Command{
	Use:   "meta <id>",
	Short: "Show the details and episode list of a title",
	Example: `  unity meta sc8451-poirot
  unity meta au42-one-piece`,
	Args: cobra.ExactArgs(1),
	RunE: metaRun,
}

var streamsCmd = &cobra.Command{
	Use:   "streams <id>",
	Short: "Resolve the playable streams of a title or episode",
	Example: `  unity streams sc8451-poirot--1-2
  unity streams au42-one-piece--1-1000`,
	Args: cobra.ExactArgs(1),
	RunE: streamsRun,
}

func resolveProvider(id string) (provider.Provider, string, error) {
	reg, err := buildRegistry(cfg, log)
	if err != nil {
		return nil, "", fmt.Errorf("building providers: %w", err)
	}
	return reg.Lookup(id)
}

func metaRun(cmd *cobra.Command, args []string) error {
	p, bare, err := resolveProvider(args[0])
	if err != nil {
		return err
	}

	meta, err := p.GetMeta(cmd.Context(), bare)
	if err != nil {
		return fmt.Errorf("getting meta: %w", err)
	}

	if flagJSON {
		return printJSON(meta)
	}
	ui.NewPrinter(os.Stdout).Meta(meta)
	return nil
}

func streamsRun(cmd *cobra.Command, args []string) error {
	p, bare, err := resolveProvider(args[0])
	if err != nil {
		return err
	}

	streams, err := p.GetStreams(cmd.Context(), bare)
	if err != nil {
		return fmt.Errorf("resolving streams: %w", err)
	}

	if flagJSON {
		return printJSON(streams)
	}
	ui.NewPrinter(os.Stdout).Streams(streams)
	return nil
}

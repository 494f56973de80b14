// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"unity/internal/config"
	"unity/internal/httputil"
	"unity/internal/provider"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagPlayer string
	flagJSON   bool
	flagDebug  bool
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

// log is the root logger, configured by loadConfig.
var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "unity",
	Short: "Catalog, meta and stream resolver for AnimeUnity and StreamingCommunity",
	Long: `Unity resolves search results, episode lists and playable HLS URLs from
AnimeUnity and StreamingCommunity. Run it as a Stremio addon with "unity serve",
or query, play and download from the terminal.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | iina | celluloid")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(metaCmd)
	rootCmd.AddCommand(streamsCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < env < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagDebug {
		cfg.Debug = true
	}
	applyFlags(cmd)

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return setupLogging(log, cfg)
}

// applyFlags copies command-local flag overrides into cfg.
func applyFlags(cmd *cobra.Command) {
	for name, dst := range map[string]*string{
		"addr":       &cfg.Addr,
		"public-url": &cfg.PublicURL,
	} {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		*dst = f.Value.String()
	}
}

func setupLogging(l *logrus.Logger, c *config.Config) error {
	level, err := c.Level()
	if err != nil {
		return err
	}
	l.SetLevel(level)
	l.SetOutput(os.Stderr)
	if c.LogJSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// buildRegistry creates a provider for every enabled site.
func buildRegistry(c *config.Config, l logrus.FieldLogger) (*provider.Registry, error) {
	client := httputil.NewClient()

	var providers []provider.Provider
	if c.AnimeUnity.Enabled {
		providers = append(providers, provider.NewAnimeUnity(provider.Options{
			BaseURL: c.AnimeUnity.Base,
			Client:  client,
			Log:     l,
		}))
	}
	if c.StreamingCommunity.Enabled {
		sc := c.StreamingCommunity
		providers = append(providers, provider.NewStreamingCommunity(provider.StreamingCommunityOptions{
			Options: provider.Options{
				BaseURL: sc.Base,
				Client:  client,
				Log:     l,
			},
			CDN:       sc.CDN,
			EmbedBase: sc.EmbedBase,
			Locale:    sc.Locale,
		}))
	}

	return provider.NewRegistry(providers...)
}

// debugf logs a message if debug mode is enabled.
func debugf(format string, args ...any) {
	log.Debugf(format, args...)
}

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"unity/internal/download"
	"unity/internal/player"
)

var (
	flagStart     string
	flagOutputDir string
)

var playCmd = &cobra.Command{
	Use:   "play <id|query>",
	Short: "Play a title or episode with mpv, vlc, iina or celluloid",
	Long: `Play resolves a content ID directly, or searches every enabled site when
given a query and lets you pick the title and episode with fzf.`,
	Args: cobra.MinimumNArgs(1),
	RunE: playRun,
}

var downloadCmd = &cobra.Command{
	Use:   "download <id|query>",
	Short: "Download a title or episode with ffmpeg",
	Args:  cobra.MinimumNArgs(1),
	RunE:  downloadRun,
}

func init() {
	playCmd.Flags().StringVar(&flagStart, "start", "", "Start position, e.g. 12:30 or 1:02:03")
	downloadCmd.Flags().StringVarP(&flagOutputDir, "output", "o", "", "Output directory (default from config)")
}

func playRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p := player.New(cfg.Player)
	if !p.Available() {
		return fmt.Errorf("player %q not found in PATH", cfg.Player)
	}

	reg, err := buildRegistry(cfg, log)
	if err != nil {
		return fmt.Errorf("building providers: %w", err)
	}

	sel, err := choose(ctx, reg, strings.Join(args, " "))
	if err != nil {
		return err
	}
	stream, err := firstStream(ctx, sel)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(map[string]any{
			"title":  sel.Title,
			"stream": stream,
		})
	}

	lastPos, err := p.Play(ctx, player.Request{
		Stream:   stream,
		Title:    sel.Title,
		Referer:  refererFor(sel.Provider),
		StartPos: player.ParseDuration(flagStart),
	})
	if err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	if lastPos > 0 {
		fmt.Fprintf(os.Stderr, "Stopped at %s\n", player.FormatDuration(lastPos))
	}
	return nil
}

func downloadRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dir := flagOutputDir
	if dir == "" {
		var err error
		dir, err = cfg.ExpandDownloadDir()
		if err != nil {
			return fmt.Errorf("resolving download dir: %w", err)
		}
	}

	reg, err := buildRegistry(cfg, log)
	if err != nil {
		return fmt.Errorf("building providers: %w", err)
	}

	sel, err := choose(ctx, reg, strings.Join(args, " "))
	if err != nil {
		return err
	}
	stream, err := firstStream(ctx, sel)
	if err != nil {
		return err
	}

	outputPath, err := download.Download(ctx, download.Request{
		Stream:    stream,
		Title:     sel.Title,
		OutputDir: dir,
		Referer:   refererFor(sel.Provider),
	}, os.Stderr)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Downloaded: %s\n", outputPath)
	return nil
}

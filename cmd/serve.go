package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"unity/internal/addon"
	"unity/internal/httputil"
	"unity/internal/proxy"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Stremio addon HTTP server",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :7000)")
	serveCmd.Flags().String("public-url", "", "Externally reachable base URL used for proxied streams")
}

func serveRun(cmd *cobra.Command, args []string) error {
	reg, err := buildRegistry(cfg, log)
	if err != nil {
		return fmt.Errorf("building providers: %w", err)
	}

	opts := addon.Options{
		Version:   Version,
		PublicURL: cfg.PublicURL,
		Log:       log,
	}
	if cfg.Proxy.Enabled {
		// Relayed video must not be cut off by the resolver's request timeout.
		client := &http.Client{Transport: httputil.NewClient().Transport}
		opts.Proxy = proxy.New(client, cfg.Proxy.AllowedHosts, log)
	}
	addonServer := addon.NewServer(reg, opts)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           addonServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":     cfg.Addr,
			"manifest": cfg.PublicURL + "/manifest.json",
			"prefixes": reg.Prefixes(),
		}).Info("addon listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening on %s: %w", cfg.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/agent"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ranking API over HTTP",
	RunE: func(_ *cobra.Command, _ []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default is server.address from the config)")
	serveCmd.Flags().Bool("gmail", false, "allow the gmail method, using the configured Gmail credentials")

	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
	viper.BindPFlag("serve-gmail", serveCmd.Flags().Lookup("gmail"))
}

func serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	p, err := newPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer p.Close()

	// checked at startup so a missing OCR engine is reported before the first request
	if err := p.agent.Preflight(ctx); err != nil {
		return err
	}

	var source agent.DocumentSource
	if viper.GetBool("serve-gmail") {
		gh, err := newGmailSource(ctx, cfg.Gmail, log)
		if err != nil {
			return err
		}
		source = gh
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.NewServer(p.agent, source, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting the api", zap.String("address", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/prophecy-cli/internal/api"
	cfgpkg "github.com/KaramelBytes/prophecy-cli/internal/config"
	"github.com/KaramelBytes/prophecy-cli/internal/logger"
	"github.com/KaramelBytes/prophecy-cli/internal/valuation"
)

var (
	serveAddr     string
	serveProvider string
	serveModel    string
)

const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the regression and valuation endpoints over HTTP",
	Example: `  prophecy serve
  prophecy serve --addr 127.0.0.1:9090 --provider ollama --model qwen2.5:7b-instruct`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to config server_addr)")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "AI provider for valuations (defaults to config)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "model id for valuations (defaults to config)")
}

// serverPredictor builds a runtime per request so a key sent by the caller
// never leaks into another request.
func serverPredictor(c *cfgpkg.Global, providerFlag, modelFlag string, getenv func(string) string) api.Predictor {
	return api.PredictorFunc(func(ctx context.Context, h valuation.HouseInput, apiKey string) (*valuation.Prediction, error) {
		rt, provider, _, err := buildRuntime(c, runtimeOptions{ProviderFlag: providerFlag, APIKey: apiKey}, getenv)
		if err != nil {
			return nil, err
		}
		opts := valuation.Options{
			Provider:    provider,
			Model:       selectModel(c, modelFlag, provider),
			MaxTokens:   c.MaxTokens,
			Temperature: c.Temperature,
			Comparables: c.ComparablesCount,
			Currency:    c.Currency,
		}
		return valuation.NewService(rt, opts, *logger.L()).Predict(ctx, h)
	})
}

func newHTTPServer(addr string, c *cfgpkg.Global, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Valuations wait on the model, so writes get the request budget plus slack.
		WriteTimeout: time.Duration(c.RequestTimeoutSec)*time.Second + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfg == nil {
		return errors.New("no config loaded")
	}
	addr := serveAddr
	if addr == "" {
		addr = cfg.ServerAddr
	}
	log := logger.L()

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(serverPredictor(cfg, serveProvider, serveModel, os.Getenv))
	router := api.NewRouter(handler, api.Options{
		RequestTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		Version:        version,
		Logger:         log,
	})
	srv := newHTTPServer(addr, cfg, router)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Str("version", version).Msg("server listening")
		fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s (Ctrl+C to stop)\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

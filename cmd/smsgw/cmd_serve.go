package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"smsgw/internal/version"
	"smsgw/pkg/api"
	"smsgw/pkg/dispatch"
	"smsgw/pkg/gateway"
	"smsgw/pkg/hashgen"
	"smsgw/pkg/report"
	"smsgw/pkg/storage"
	"smsgw/pkg/terminal"
)

// newServeCmd creates the "smsgw serve" subcommand.
func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway",
		Long:  "Starts the pool socket server and the HTTP admin interface,\nserving until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			cfg, err := LoadConfig(paths.ConfigPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			return serve(cmd.Context(), paths, cfg)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP bind address (overrides config)")

	return cmd
}

func serve(parent context.Context, paths *Paths, cfg Config) error {
	if err := os.MkdirAll(paths.GwHome, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", paths.GwHome, err)
	}

	logger := log.New(os.Stderr, "smsgw ", log.LstdFlags)

	db, err := storage.Open(paths.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	store := storage.New(db)

	var operators *terminal.OperatorTable
	if cfg.Operators != "" {
		operators, err = terminal.LoadOperators(cfg.Operators)
		if err != nil {
			return err
		}
	}

	registry := terminal.NewRegistry(operators)
	pool := terminal.NewPool()
	disp := dispatch.New(store, registry, pool, hashgen.New(), logger)

	activity, err := gateway.OpenActivityLog(paths.LogPath)
	if err != nil {
		return err
	}
	defer func() { _ = activity.Close() }()

	srv := gateway.New(gateway.Config{
		SocketPath:       paths.SocketPath,
		HeartbeatTimeout: cfg.HeartbeatTimeout,
	}, store, registry, pool, disp, activity, logger)

	reader := report.NewReader(store, paths.LogPath)
	reader.SetOperatorLookup(registry.NetworkOperator)
	admin := api.New(store, reader, disp, registry, pool, version.String(), logger)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           admin.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.Run(ctx)
	}()
	go func() {
		logger.Printf("admin interface on http://%s", cfg.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			stop()
			shutdownHTTP(httpSrv)
			return err
		}
	}

	shutdownHTTP(httpSrv)
	return nil
}

func shutdownHTTP(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

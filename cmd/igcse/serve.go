package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhinavpachauri/igcse-estimator/internal/aggregate"
	"github.com/abhinavpachauri/igcse-estimator/internal/server"
)

var (
	serveAddr    string
	serveOrigins []string
	serveSeason  string
	serveWindow  int
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the estimate HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "allowed CORS origin (repeatable)")
	cmd.Flags().StringVar(&serveSeason, "season", defaultSeason, "season used when a request names none")
	cmd.Flags().IntVar(&serveWindow, "window", defaultWindow, "number of recent series to average")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Serve.Addr)
	applyStringsConfig(cmd, "origin", &serveOrigins, fileCfg.Serve.Origins)
	q, err := thresholdQuery(cmd, fileCfg, "", "", &serveSeason, &serveWindow)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	srv, err := server.New(st, aggregate.New(st, q.Window), server.Options{
		Origins: serveOrigins,
		Season:  q.Season,
		Logger:  slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}
	if len(serveOrigins) == 0 {
		logErrln("No CORS origins configured; browsers on other origins will be refused")
	}
	if err := srv.ListenAndServe(ctx, serveAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

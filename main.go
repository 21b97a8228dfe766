package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"riskserver/communication/client"
	"riskserver/communication/server"
	"riskserver/config"
	"riskserver/gamemaster"
	"riskserver/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	setupLogging(cfg.Log)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("game server stopped")
	}
}

func setupLogging(c config.Log) {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	options := []gamemaster.Option{gamemaster.WithMetrics(metrics.NewCollector(reg))}
	if cfg.ResultsDir != "" {
		w, err := metrics.NewWriter(cfg.ResultsDir)
		if err != nil {
			return err
		}
		options = append(options, gamemaster.WithResultsWriter(w))
	}
	dial := func(address string) gamemaster.Agent {
		return client.NewAgentClient(address)
	}
	gm := gamemaster.New(cfg.GameOptions(), dial, options...)
	defer gm.Close()

	api := server.NewServer(gm,
		server.WithStatusTTL(cfg.StatusCacheTTL),
		server.WithQueryRate(cfg.QueryRate.Limit, cfg.QueryRate.Burst),
		server.WithGatherer(reg),
	)
	httpServer := api.NewHTTPServer(cfg.Listen)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Msgf("game server listening on %s, %dx%d board, %d starting armies",
			cfg.Listen, cfg.Board.Height, cfg.Board.Width, cfg.StartingArmies)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		gm.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

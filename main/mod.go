// Command main runs the sample agent: it serves its strategy over HTTP and
// joins the game server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"riskserver/agent"
	"riskserver/communication"
	"riskserver/protocol"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	fs := pflag.NewFlagSet("risk-agent", pflag.ContinueOnError)
	name := fs.String("name", "sample", "player name")
	listen := fs.String("listen", ":5001", "address to serve the agent on")
	callback := fs.String("callback", "http://localhost:5001", "base address the game server calls back")
	serverURL := fs.String("server", "http://localhost:5000", "game server base address")
	seed := fs.Uint64("seed", 0, "seed for the strategy's coin flips, 0 for time based")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	strategy := agent.NewSampleStrategy(*name)
	if *seed != 0 {
		strategy = agent.NewSeededSampleStrategy(*name, *seed)
	}
	if err := run(*listen, *callback, *serverURL, strategy); err != nil {
		log.Fatal().Err(err).Msg("agent stopped")
	}
}

func run(listen, callback, serverURL string, strategy *agent.SampleStrategy) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// listen first so the liveness check during join finds us
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Handler:           agent.NewServer(strategy).Handler(),
		ReadHeaderTimeout: communication.ReadHeaderTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		joinCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		token, err := agent.Join(joinCtx, http.DefaultClient, serverURL, protocol.JoinRequest{
			Name:                strategy.Name,
			CallbackBaseAddress: callback,
		})
		if err != nil {
			return err
		}
		log.Info().Msgf("%s joined %s", strategy.Name, serverURL)
		log.Debug().Str("token", token).Msg("player token")
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/pinlog/internal/api"
	"github.com/hugo-lorenzo-mato/pinlog/internal/controller"
	"github.com/hugo-lorenzo-mato/pinlog/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/pinlog/internal/events"
	"github.com/hugo-lorenzo-mato/pinlog/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for the map front-end",
	Long: `Start the HTTP API the map front-end talks to.

Map clicks, geolocation results and form submissions arrive as requests; the
markers, list entries and notices to show are read back from /api/v1/markers
and /api/v1/notices, or streamed from /api/v1/events. Prometheus metrics are served on /metrics.

Examples:
  # Start with the configured address (default 127.0.0.1:8080)
  pinlog serve

  # Listen on all interfaces
  pinlog serve --host 0.0.0.0 --port 3000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveHost      string
	servePort      int
	serveHeartbeat time.Duration
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "",
		"host address to bind to (default from config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0,
		"port to listen on (default from config)")
	serveCmd.Flags().DurationVar(&serveHeartbeat, "heartbeat", 30*time.Second,
		"interval between store reachability checks, 0 to disable")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.New(100)
	defer bus.Close()
	board := api.NewBoard(api.WithBus(bus))
	return withApp(ctx, func(a *app) error {
		host, port := a.cfg.Server.Host, a.cfg.Server.Port
		if serveHost != "" {
			host = serveHost
		}
		if servePort != 0 {
			port = servePort
		}
		addr := net.JoinHostPort(host, strconv.Itoa(port))

		server := api.NewServer(a.ctl, board,
			api.WithLogger(a.logger.WithComponent("api")),
			api.WithMetrics(a.metrics, a.registry),
			api.WithCORSOrigins(a.cfg.Server.CORSOrigins),
		)

		fmt.Fprintf(cmd.OutOrStdout(), "pinlog listening on http://%s (%d workouts)\n", addr, a.report.Loaded)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.ListenAndServe(gctx, addr)
		})
		// Event streams only end when the bus closes, so close it before
		// the server waits for open connections.
		g.Go(func() error {
			<-gctx.Done()
			bus.Close()
			return nil
		})
		if serveHeartbeat > 0 {
			g.Go(func() error {
				heartbeat(gctx, a.kv, serveHeartbeat, a.logger.WithComponent("heartbeat"))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		a.logger.Info("server stopped")
		return nil
	}, controller.WithMap(board), controller.WithList(board), controller.WithNotifier(board))
}

// heartbeat pings the store every interval until ctx is done and logs when
// its reachability changes.
func heartbeat(ctx context.Context, store diagnostics.Pinger, interval time.Duration, logger *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pingCtx, cancel := context.WithTimeout(ctx, interval)
		err := store.Ping(pingCtx)
		cancel()

		switch {
		case err != nil && healthy:
			logger.Warn("store unreachable, saves will fail", slog.String("error", err.Error()))
		case err == nil && !healthy:
			logger.Info("store reachable again")
		}
		healthy = err == nil
	}
}

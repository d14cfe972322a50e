package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/koi/internal/server"
	"github.com/msto63/koi/internal/store"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		archive bool
	)

	c := &cobra.Command{
		Use:   "serve",
		Short: "Start the live parse server",
		Long: `Serves the parser over a websocket at /ws and a health report at
/healthz.

Send {"type":"parse","id":"1","payload":{"text":"#hello world"}} and the
server answers with one "command" or "error" frame per command line,
followed by a "done" frame.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := server.Config{
				Addr:         a.cfg.Server.Addr,
				ReadTimeout:  a.cfg.Server.ReadTimeout.Duration,
				WriteTimeout: a.cfg.Server.WriteTimeout.Duration,
				Parser:       a.cfg.ParserOptions(a.logger),
				CacheSize:    a.cfg.Server.CacheSize,
				CacheTTL:     a.cfg.Server.CacheTTL.Duration,
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if archive {
				s, err := store.NewSQLiteStore(a.cfg.Store.Path)
				if err != nil {
					return err
				}
				defer s.Close()
				cfg.Archive = s
			}

			srv, err := server.New(cfg, a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	c.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from config)")
	c.Flags().BoolVar(&archive, "archive", false, "allow clients to archive runs in the store")
	return c
}

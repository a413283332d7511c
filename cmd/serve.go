package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/tutorly/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tutoring sessions over HTTP",
	Long: `Serve runs the HTTP API: session creation, SSE turn streams and a
WebSocket chat endpoint. Sessions idle longer than the configured TTL are
saved and dropped from memory, and outline files are reloaded when they
change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)

		d, err := buildDeps(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		if d.factory == nil {
			return errors.New("serve needs an LLM provider: set ANTHROPIC_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY")
		}

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = d.cfg.HTTPAddr
		}

		srv := server.New(d.sessions, d.factory,
			server.WithLogger(d.logger.Named("http")),
			server.WithSessionRepo(d.store.SessionRepo()))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.ListenAndServe(gctx, addr)
		})
		g.Go(func() error {
			return d.sessions.Run(gctx)
		})
		if _, err := os.Stat(d.catalog.Dir()); err == nil {
			g.Go(func() error {
				if err := d.catalog.Watch(gctx); err != nil {
					// Serving continues with the outlines already loaded.
					d.logger.Error("outline watcher stopped", zap.Error(err))
				}
				return nil
			})
		} else {
			d.logger.Info("outline directory missing, not watching", zap.String("dir", d.catalog.Dir()))
		}

		if err := g.Wait(); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides http_addr)")
}

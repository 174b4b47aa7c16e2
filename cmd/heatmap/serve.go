package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luki/heatmap/internal/config"
	"github.com/luki/heatmap/internal/heatmap"
	"github.com/luki/heatmap/internal/log"
	"github.com/luki/heatmap/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the heatmap as JSON or MessagePack over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			src, err := openSource(cfg.Source)
			if err != nil {
				return err
			}
			defer src.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(heatmap.NewCard(cfg), src)
			if a.entity == "" && a.days == 0 {
				watchConfig(ctx, a.configPath, srv)
			}
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func watchConfig(ctx context.Context, path string, srv *server.Server) {
	err := config.Watch(ctx, path, func(cfg config.Config, err error) {
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			log.Warnf("ignoring config change: %v", err)
			return
		}
		log.Infow("config reloaded", "entity", cfg.Entity, "days", cfg.Days)
		srv.SetConfig(cfg)
	})
	if err != nil {
		log.Warnf("not watching %s: %v", path, err)
	}
}

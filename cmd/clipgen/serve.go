package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/snapetech/clipgen/internal/clipfs"
	"github.com/snapetech/clipgen/internal/content"
	"github.com/snapetech/clipgen/internal/server"
	"github.com/snapetech/clipgen/internal/watch"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr       string
		mount      bool
		allowOther bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve clips and generation control over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.ListenAddr = addr
			}
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()
			a.ensureReady(s.c)
			return a.serve(cmd.Context(), s, mount, allowOther)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&mount, "mount", false, "also mount the clips at the configured mount point")
	cmd.Flags().BoolVar(&allowOther, "allow-other", false, "let other users read the mount")
	return cmd
}

func (a *app) serve(ctx context.Context, s *session, mount, allowOther bool) error {
	srv := &server.Server{
		Addr:             a.cfg.ListenAddr,
		MaxConns:         a.cfg.MaxConns,
		GenerateInterval: a.cfg.GenerateInterval,
		Coordinator:      s.c,
		Gatherer:         a.reg,
		Log:              a.log.Named("server"),
	}
	if s.journal != nil {
		srv.Runs = s.journal
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	if a.cfg.Watch {
		w, err := watch.New(s.c, a.cfg.WatchDebounce, func() content.ProgressSink {
			return content.NewLogSink(a.log.Named("generate"), s.c.Catalog())
		}, a.log.Named("watch"))
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(ctx) })
	}
	if mount {
		g.Go(func() error {
			return clipfs.Serve(ctx, a.cfg.MountPoint, s.c, clipfs.Options{AllowOther: allowOther, Log: a.log.Named("clipfs")})
		})
	}
	start := time.Now()
	err := g.Wait()
	a.log.Info("stopped", zap.Duration("uptime", time.Since(start).Round(time.Second)), zap.Error(err))
	return err
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/table-booking/internal/application/form"
	"github.com/example/table-booking/internal/infrastructure/metrics"
	"github.com/example/table-booking/internal/interfaces/web"
)

func newServerCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the booking web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			cfg, log := a.cfg, a.log

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			m := metrics.New(reg)

			api, err := a.bookingClient(m)
			if err != nil {
				return err
			}

			hashKey, blockKey := cfg.SessionHashKey, cfg.SessionBlockKey
			if len(hashKey) == 0 {
				log.Warn("SESSION_HASH_KEY not set, using ephemeral session keys")
				hashKey, blockKey = web.EphemeralKeys()
			}

			forms := web.NewRegistry(func() *form.Controller {
				return form.New(api, form.WithLogger(log), form.WithRecorder(m))
			}, cfg.SessionIdleTTL, web.WithSizeHook(m.SetActiveSessions), web.WithRegistryLogger(log))

			opts := web.Options{
				Sessions:     web.NewSessionManager(hashKey, blockKey),
				Forms:        forms,
				Slots:        api,
				Logger:       log,
				AwaitTimeout: cfg.BookingAPITimeout,
			}
			if cfg.MetricsEnabled {
				opts.Metrics = m
				opts.Gatherer = reg
			}
			srv, err := web.New(opts)
			if err != nil {
				return err
			}

			log.Info("starting",
				zap.String("env", cfg.Env),
				zap.String("booking_api", cfg.BookingAPIURL),
				zap.Duration("session_ttl", cfg.SessionIdleTTL))

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return forms.Run(gctx, sweepInterval(cfg.SessionIdleTTL)) })
			g.Go(func() error { return web.Start(gctx, cfg.ListenAddr, srv.Routes(), log) })
			err = g.Wait()
			log.Info("stopped")
			return err
		},
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	d := ttl / 4
	if d < time.Second {
		d = time.Second
	}
	if d > time.Minute {
		d = time.Minute
	}
	return d
}

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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"onyxnet/internal/app"
	"onyxnet/internal/broadcast"
	"onyxnet/internal/discovery"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg         = broadcast.DefaultConfig()
		metricsAddr string
		advertise   string
		logLevel    string
		logFormat   string
	)

	cmd := &cobra.Command{
		Use:          "relay",
		Short:        "Fan out encrypted OnyxNet envelopes between connected participants",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.ConfigureLogging(cmd.ErrOrStderr(), logLevel, logFormat); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, metricsAddr, advertise)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Host, "host", broadcast.DefaultHost, "interface to bind")
	flags.IntVar(&cfg.Port, "port", broadcast.DefaultPort, "TCP port; WebSocket uses port+1")
	flags.DurationVar(&cfg.WriteTimeout, "write-timeout", broadcast.DefaultWriteTimeout, "deadline for each write to a client")
	flags.IntVar(&cfg.MaxMessageSize, "max-message-size", broadcast.DefaultMaxMessageSize, "largest accepted line or frame in bytes")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (empty disables)")
	flags.StringVar(&advertise, "advertise", "", "publish the relay over mDNS under this name")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "text", "log format (text or json)")
	return cmd
}

func run(ctx context.Context, cfg broadcast.Config, metricsAddr, advertise string) error {
	log := logrus.StandardLogger()

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		cfg.Registerer = reg

		ms := &http.Server{
			Addr:              metricsAddr,
			Handler:           broadcast.MetricsHandler(reg),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithFields(logrus.Fields{
					"function": "run",
					"addr":     metricsAddr,
					"error":    err.Error(),
				}).Error("Metrics server failed")
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = ms.Shutdown(sctx)
		}()
		log.WithFields(logrus.Fields{"function": "run", "addr": metricsAddr}).Info("Serving metrics")
	}

	if advertise != "" {
		adv, err := discovery.Advertise(advertise, cfg.Port)
		if err != nil {
			return fmt.Errorf("advertise: %w", err)
		}
		defer adv.Close()
	}

	srv := broadcast.New(cfg, log)
	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, broadcast.ErrServerClosed) {
		log.WithFields(logrus.Fields{"function": "run", "error": err.Error()}).Error("Relay failed")
		return err
	}
	return nil
}

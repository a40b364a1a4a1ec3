package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/duressd/duressd/internal/activity"
	"github.com/duressd/duressd/internal/auth"
	"github.com/duressd/duressd/internal/counter"
	"github.com/duressd/duressd/internal/dms"
	"github.com/duressd/duressd/internal/escalation"
	"github.com/duressd/duressd/internal/identity"
	"github.com/duressd/duressd/internal/server"
	"github.com/duressd/duressd/internal/wallet"
	"github.com/duressd/duressd/pkg/config"
	"github.com/duressd/duressd/pkg/logging"
	"github.com/duressd/duressd/pkg/metrics"
	"github.com/duressd/duressd/pkg/notify"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the duressd daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return runDaemon(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runDaemon(cfg *config.Config) error {
	log := logging.NewLogger(logging.Level(cfg.Logging.Level))
	logging.SetGlobal(log)

	reg := metrics.NewRegistry()

	var sink activity.Sink
	if cfg.Activity.LogPath != "" {
		sink = activity.NewFileSink(cfg.Activity.LogPath)
	}
	activityLog := activity.New(sink, log)

	var channels []notify.Channel
	for _, hook := range cfg.Alerts.Hooks {
		if !hook.Enabled {
			continue
		}
		channels = append(channels, notify.Channel{URL: hook.URL, Secret: hook.Secret})
	}
	dispatcher := notify.NewDispatcher(notify.Options{
		Channels:    channels,
		QueueSize:   cfg.Alerts.QueueSize,
		SendTimeout: cfg.Alerts.SendTimeoutDuration(),
		Logger:      log,
		Metrics:     reg,
	})
	defer dispatcher.Close()

	identities := identity.NewMemoryStore()
	wallets := wallet.NewMemoryProvider(log)
	counters := counter.New()

	authn := auth.New(auth.Options{
		Identities: identities,
		Wallets:    wallets,
		Counters:   counters,
		Policy:     escalation.Policy{DelayedDelay: cfg.Alerts.DelayedDelayDuration()},
		Dispatcher: dispatcher,
		Activity:   activityLog,
		Metrics:    reg,
		Logger:     log,
	})
	switches := dms.New(dms.Options{
		Dispatcher:      dispatcher,
		Activity:        activityLog,
		Wallets:         wallets,
		Metrics:         reg,
		Logger:          log,
		SweepInterval:   cfg.Safety.SweepIntervalDuration(),
		TransferAddress: cfg.Safety.TransferAddress,
	})

	srv := server.New(server.Options{
		Auth:       authn,
		Identities: identities,
		Wallets:    wallets,
		Switches:   switches,
		Activity:   activityLog,
		Metrics:    reg,
		Logger:     log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go switches.Run(ctx)

	httpSrv := &http.Server{
		Addr:    cfg.Listen,
		Handler: srv.Router(),
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("daemon listening", map[string]any{"addr": cfg.Listen})
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down", nil)
	return httpSrv.Shutdown(shutdownCtx)
}

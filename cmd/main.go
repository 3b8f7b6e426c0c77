// Command coinbase-sensor publishes Coinbase account balances as home
// automation sensor entities, served over a status page, a JSON state API
// and an SSE stream.
//
// Usage:
//
//	coinbase-sensor --config config.yaml
//	coinbase-sensor setup
//	coinbase-sensor (uses CLI arguments)
//
// Credentials come from the config file or from the COINBASE_API_KEY and
// COINBASE_API_SECRET environment variables.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hausmon/coinbase-sensor/config"
	"github.com/hausmon/coinbase-sensor/internal/clients"
	"github.com/hausmon/coinbase-sensor/internal/coinbase"
	"github.com/hausmon/coinbase-sensor/internal/hub"
	"github.com/hausmon/coinbase-sensor/internal/metrics"
	"github.com/hausmon/coinbase-sensor/internal/platform"
	"github.com/hausmon/coinbase-sensor/internal/services/pricer"
	"github.com/hausmon/coinbase-sensor/internal/setup"
	"github.com/hausmon/coinbase-sensor/internal/web"
	"github.com/hausmon/coinbase-sensor/pkg/retrier"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		// continue with the file the wizard just wrote
		os.Args = []string{os.Args[0], "--config", "config.gen.yaml"}
	}

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := platform.Deps{
		Clients: func() platform.WalletClient {
			return clients.NewCoinbaseClient(cfg.APIKey, cfg.APISecret, coinbase.WithBaseURL(cfg.APIBaseURL))
		},
		Quotes: pricer.NewCoinbasePricer(cfg.APIBaseURL, 10*time.Second),
		Logger: logger,
		Retry: retrier.New(
			retrier.WithMaxRetries(3),
			retrier.WithInitialInterval(2*time.Second),
			retrier.WithPermanent(coinbase.IsAuthenticationError),
		),
	}

	entityHub := hub.New(cfg.UpdateInterval, logger)
	recorder := metrics.NewRecorder()
	entityHub.OnPublish(recorder.Observe)

	err = platform.Setup(ctx, cfg, deps, func(sensors ...*platform.Sensor) {
		for _, sensor := range sensors {
			entityHub.Add(sensor)
		}
	})
	if err != nil {
		logger.Fatal("sensor setup failed", zap.Error(err))
	}

	server := web.NewServer(cfg.ListenAddress, entityHub, recorder.Handler())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return entityHub.Run(gctx)
	})
	g.Go(func() error {
		if len(cfg.TLSDomains) > 0 {
			return server.StartWithAutoTLS(gctx, cfg.TLSDomains, cfg.CertCacheDir)
		}
		return server.Start(gctx)
	})

	logger.Info("coinbase sensors running",
		zap.String("listen", cfg.ListenAddress),
		zap.Bool("native_balance", cfg.NativeBalance))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(err.Error())
	}
}

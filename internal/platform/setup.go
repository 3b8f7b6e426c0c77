package platform

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hausmon/coinbase-sensor/config"
	"github.com/hausmon/coinbase-sensor/internal/coinbase"
	"github.com/hausmon/coinbase-sensor/internal/services/poller"
	"github.com/hausmon/coinbase-sensor/pkg/retrier"
)

// WalletClient wallet API surface used by the platform.
type WalletClient interface {
	ListAccounts(ctx context.Context) ([]coinbase.Account, error)
	GetAccount(ctx context.Context, accountID string) (*coinbase.Account, error)
}

// ClientFactory builds a wallet client. Pollers call it once per refresh.
type ClientFactory func() WalletClient

// AddEntitiesFunc registers the assembled sensors with the host.
type AddEntitiesFunc func(sensors ...*Sensor)

// Deps collaborators needed to assemble the platform.
type Deps struct {
	Clients ClientFactory
	Quotes  poller.Quoter
	Logger  *zap.Logger
	Retry   *retrier.Retrier
}

// Setup lists the user's accounts and registers one sensor per account not
// excluded by name. Transient listing failures go through the retrier; an
// authentication error or exhausted retries abort the whole setup and
// nothing gets registered.
func Setup(ctx context.Context, cfg config.Config, deps Deps, add AddEntitiesFunc) error {
	retry := deps.Retry
	if retry == nil {
		retry = retrier.New(retrier.WithMaxRetries(0))
	}

	accounts, err := retrier.DoWithData(retry, ctx, func(ctx context.Context) ([]coinbase.Account, error) {
		return deps.Clients().ListAccounts(ctx)
	})
	if err != nil {
		if coinbase.IsAuthenticationError(err) {
			return errors.Wrap(err, "sensor setup: coinbase auth error")
		}

		return errors.Wrap(err, "sensor setup: list accounts")
	}
	deps.Logger.Debug("sensor setup: connection to coinbase established")

	sensors := make([]*Sensor, 0, len(accounts))
	for _, account := range accounts {
		if excluded(cfg.ExcludeWallets, account.Name) {
			deps.Logger.Debug("sensor setup: excluded account",
				zap.String("account", account.Name))
			continue
		}

		accountPoller := poller.New(
			account.ID,
			func() poller.WalletClient { return deps.Clients() },
			deps.Quotes,
			cfg.MinScanInterval,
			deps.Logger,
		)
		sensors = append(sensors, NewSensor(ctx, "Coinbase "+account.Name, accountPoller, cfg.NativeBalance))
		deps.Logger.Debug("sensor setup: added sensor for account",
			zap.String("account", account.Name))
	}

	add(sensors...)
	deps.Logger.Debug("sensor setup: complete")

	return nil
}

func excluded(exclude []string, name string) bool {
	for _, e := range exclude {
		if e == name {
			return true
		}
	}

	return false
}

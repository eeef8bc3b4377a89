package main

import (
	"context"
	"os"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/revops-cli/internal/channel"
	"github.com/sells-group/revops-cli/internal/fact"
	"github.com/sells-group/revops-cli/internal/report"
	"github.com/sells-group/revops-cli/internal/store"
	sfpkg "github.com/sells-group/revops-cli/pkg/salesforce"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "revops.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.MaxConns)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEngine opens the store and builds a report engine from config. Caller
// owns the returned store's lifetime.
func initEngine(ctx context.Context) (*report.Engine, store.Store, error) {
	mode := fact.WindowMode(cfg.Engine.WindowMode)
	if !mode.Valid() {
		return nil, nil, eris.Errorf("unsupported window mode: %s", cfg.Engine.WindowMode)
	}

	weights := channel.DefaultWeights()
	if cfg.Engine.WeightsFile != "" {
		w, err := channel.LoadWeights(cfg.Engine.WeightsFile)
		if err != nil {
			return nil, nil, err
		}
		weights = w
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, err
	}

	return report.NewEngine(st, mode, weights), st, nil
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (REVOPS_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf, sfpkg.WithRateLimit(cfg.Salesforce.RateLimit)), nil
}

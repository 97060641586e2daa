package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/email"
	"github.com/sells-group/outreach-cli/internal/job"
	"github.com/sells-group/outreach-cli/internal/profile"
	"github.com/sells-group/outreach-cli/internal/store"
	anthropicpkg "github.com/sells-group/outreach-cli/pkg/anthropic"
	"github.com/sells-group/outreach-cli/pkg/blob"
)

// env bundles the wired collaborators shared by the run and serve commands.
type env struct {
	Store store.Store
	Job   *job.Job
}

func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "outreach.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv wires the store, blob client, workflow, and job.
func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	blobClient, err := blob.NewClient(ctx, blob.Config{
		Bucket:    cfg.Blob.Bucket,
		Region:    cfg.Blob.Region,
		AccessKey: cfg.Blob.AccessKey,
		SecretKey: cfg.Blob.SecretKey,
		Endpoint:  cfg.Blob.Endpoint,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	fetcher := profile.NewFetcher(blobClient, cfg.Blob.KeyPrefix)

	executor := email.NewAnthropicExecutor(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic)
	workflow, err := email.NewWorkflow(executor)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &env{
		Store: st,
		Job:   job.New(st, fetcher, workflow, cfg),
	}, nil
}

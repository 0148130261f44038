package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/caarlos0/env/v10"
	"github.com/spf13/cobra"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/cache"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/repository"
)

// cliEnv is the subset of server configuration the CLI needs.
type cliEnv struct {
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
}

type rootOptions struct {
	databaseURL string
	redisURL    string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ucsbctl",
		Short: "Maintenance commands for the UCSB API",
		Long: `ucsbctl talks directly to the API database.

Available commands:
  migrate - apply or roll back schema migrations
  apikey  - issue API keys for existing users
  user    - grant or remove ROLE_ADMIN`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL URL (defaults to $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.redisURL, "redis-url", "", "Redis URL of the API's credential cache (defaults to $REDIS_URL)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newAPIKeyCmd(opts),
		newUserCmd(opts),
	)
	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	var w io.Writer = io.Discard
	if o.verbose {
		w = cmd.ErrOrStderr()
	}
	return slog.New(slog.NewTextHandler(w, nil))
}

func (o *rootOptions) env() (cliEnv, error) {
	var e cliEnv
	if err := env.Parse(&e); err != nil {
		return e, fmt.Errorf("read environment: %w", err)
	}
	if o.databaseURL != "" {
		e.DatabaseURL = o.databaseURL
	}
	if o.redisURL != "" {
		e.RedisURL = o.redisURL
	}
	return e, nil
}

// connect opens the repository from --database-url or DATABASE_URL.
func (o *rootOptions) connect(ctx context.Context) (*repository.Repository, error) {
	e, err := o.env()
	if err != nil {
		return nil, err
	}
	url := e.DatabaseURL
	if url == "" {
		return nil, fmt.Errorf("no database: pass --database-url or set DATABASE_URL")
	}
	return repository.New(ctx, url)
}

// openCache connects to the API's Redis from --redis-url or REDIS_URL.
// It returns nil when neither is set.
func (o *rootOptions) openCache(ctx context.Context) (*cache.Cache, error) {
	e, err := o.env()
	if err != nil {
		return nil, err
	}
	if e.RedisURL == "" {
		return nil, nil
	}
	return cache.New(ctx, e.RedisURL)
}

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/cache"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/service"
)

func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var demote bool
	promote := &cobra.Command{
		Use:   "promote EMAIL",
		Short: "Grant ROLE_ADMIN to a user",
		Long: `Grant ROLE_ADMIN to a user who has logged in at least once.
With --demote the flag is removed instead. Users listed in ADMIN_EMAILS
are promoted again at their next login.

Pass --redis-url (or set REDIS_URL) to the API's Redis so the user's
API keys pick up the change on their next request.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.ToLower(strings.TrimSpace(args[0]))

			repo, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close()

			cfg := service.AccountsConfig{Users: repo, Keys: repo, Logger: opts.logger(cmd)}
			keyCache, err := opts.openCache(cmd.Context())
			if err != nil {
				return err
			}
			if keyCache != nil {
				defer keyCache.Close()
				cfg.Cache = keyCache
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(),
					"warning: no Redis configured; API keys of %s keep their cached roles for up to %s\n",
					email, cache.PrincipalTTL)
			}

			err = service.NewAccounts(cfg).SetAdmin(cmd.Context(), email, !demote)
			if errors.Is(err, service.ErrUserNotFound) {
				return fmt.Errorf("no user with email %s", email)
			}
			if err != nil {
				return err
			}

			if demote {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is no longer an admin\n", email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", email)
			}
			return nil
		},
	}
	promote.Flags().BoolVar(&demote, "demote", false, "remove ROLE_ADMIN instead")

	var admin bool
	create := &cobra.Command{
		Use:   "create EMAIL",
		Short: "Create a user without a Google login",
		Long: `Create a user record so that API keys can be issued before the
user signs in. Their Google profile fills in at first login.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.ToLower(strings.TrimSpace(args[0]))
			user := &model.User{Email: email, Admin: admin}
			if err := user.Validate(); err != nil {
				return err
			}

			repo, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close()

			saved, err := repo.UpsertUser(cmd.Context(), user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d: %s %s\n", saved.ID, saved.Email, strings.Join(saved.Roles(), ","))
			return nil
		},
	}
	create.Flags().BoolVar(&admin, "admin", false, "grant ROLE_ADMIN")

	cmd.AddCommand(promote, create)
	return cmd
}

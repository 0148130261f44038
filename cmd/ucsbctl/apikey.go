package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/auth"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/repository"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/service"
)

func newAPIKeyCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}

	var (
		email string
		name  string
		roles []string
		env   string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Issue an API key for an existing user",
		Long: `Issue an API key for a user who has logged in at least once.

The key is printed once and cannot be recovered. Roles may not exceed
the user's own.

Example:
  ucsbctl apikey create --email cgaucho@ucsb.edu --name ci --role ROLE_USER`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if env != auth.EnvLive && env != auth.EnvTest {
				return fmt.Errorf("--env must be %q or %q", auth.EnvLive, auth.EnvTest)
			}

			repo, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close()

			user, err := repo.GetUserByEmail(cmd.Context(), strings.ToLower(email))
			if errors.Is(err, repository.ErrUserNotFound) {
				return fmt.Errorf("no user with email %s; they must log in once first", email)
			}
			if err != nil {
				return err
			}

			accounts := service.NewAccounts(service.AccountsConfig{
				Users:  repo,
				Keys:   repo,
				Logger: opts.logger(cmd),
				KeyEnv: env,
			})
			caller := &model.Principal{UserID: user.ID, Email: user.Email, Roles: user.Roles()}
			created, err := accounts.CreateAPIKey(cmd.Context(), caller, model.APIKeyCreateRequest{Name: name, Roles: roles})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:    %s\n", created.ID)
			fmt.Fprintf(out, "roles: %s\n", strings.Join(created.Roles, ","))
			fmt.Fprintf(out, "key:   %s\n", created.Key)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "owner email (required)")
	create.Flags().StringVar(&name, "name", "", "label shown in key listings")
	create.Flags().StringSliceVar(&roles, "role", nil, "role to grant, repeatable (default ROLE_USER)")
	create.Flags().StringVar(&env, "env", auth.EnvLive, "key environment tag: live or test")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}

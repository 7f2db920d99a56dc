package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/recipeapp/recipe-server/internal/service"
)

// superuserPasswordEnv lets scripts avoid putting the password on the command line.
const superuserPasswordEnv = "RECIPE_SUPERUSER_PASSWORD"

func newCreateSuperuserCmd(g *globalFlags) *cobra.Command {
	var req service.RegisterRequest

	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create a staff account with full privileges",
		Long: `Create an active staff superuser.

The password is read from --password or the ` + superuserPasswordEnv + ` environment variable.

Examples:
  recipectl create-superuser --email admin@example.com --password s3cretpass
  ` + superuserPasswordEnv + `=s3cretpass recipectl create-superuser --email admin@example.com`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Password == "" {
				req.Password = os.Getenv(superuserPasswordEnv)
			}
			if req.Password == "" {
				return errors.New("a password is required (--password or " + superuserPasswordEnv + ")")
			}

			injector := g.container()
			defer injector.Shutdown()

			authService, err := do.Invoke[*service.AuthService](injector)
			if err != nil {
				return err
			}

			user, err := authService.CreateSuperuser(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created superuser %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password, at least 8 characters")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newDeleteUserCmd(g *globalFlags) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "delete-user",
		Short: "Delete an account with its tags, ingredients, recipes and images",
		RunE: func(cmd *cobra.Command, _ []string) error {
			injector := g.container()
			defer injector.Shutdown()

			users, err := do.Invoke[*service.UserService](injector)
			if err != nil {
				return err
			}

			user, err := users.GetUserByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("look up %s: %w", email, err)
			}
			if err := users.DeleteUser(cmd.Context(), user.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address of the account (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

package command

import (
	"errors"
	"fmt"

	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/router"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	superUsername string
	superEmail    string
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an administrator account",
	Long: `Create an account with the admin role and the superuser flag, then print a
confirmation code. Exchange it for an access token with POST /api/v1/auth/token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if superUsername == "" || superEmail == "" {
			return errors.New("--username and --email are required")
		}

		e, err := connect()
		if err != nil {
			return err
		}
		defer e.close()

		services, err := router.NewServices(e.cfg, e.db, nil, mailer.New(e.cfg, e.logger), e.logger)
		if err != nil {
			return err
		}

		user, err := services.Users.CreateSuperuser(cmd.Context(), superUsername, superEmail)
		if err != nil {
			return fmt.Errorf("failed to create superuser: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintln(out, "✓ Superuser created successfully!")
		fmt.Fprintf(out, "Username: %s\n", user.Username)
		fmt.Fprintf(out, "Email: %s\n", user.Email)
		fmt.Fprint(out, "Confirmation code: ")
		color.New(color.FgCyan, color.Bold).Fprintln(out, services.Auth.ConfirmationCode(user))
		return nil
	},
}

func init() {
	createSuperuserCmd.Flags().StringVar(&superUsername, "username", "", "account username")
	createSuperuserCmd.Flags().StringVar(&superEmail, "email", "", "account email")
}

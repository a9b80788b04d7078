package commands

import (
	"github.com/spf13/cobra"

	"github.com/milkrun/storefront/internal/backend"
)

func signupCmd() *cobra.Command {
	var req backend.SignupRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a customer account",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := client.Signup(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, sess)
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "login email")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (8+ characters)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

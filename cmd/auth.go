package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/grnsync/internal/google"
)

func newAuthCmd() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Gmail, Drive and Sheets access for an account",
		Long: `Print the Google consent URL for the account and store the resulting token.
The authorization code is read from --code or, when absent, from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.close()

			auth := a.sc.Authenticator()
			if auth == nil {
				return fmt.Errorf("%w: set google.client_id and google.client_secret, or google.credentials_file", google.ErrNoCredentials)
			}
			account := a.cfg.Account
			out := cmd.OutOrStdout()

			if code == "" {
				if auth.HasToken(account) {
					fmt.Fprintf(out, "Account %q already has a token (%s); continuing replaces it.\n", account, auth.TokenFile(account))
				}
				fmt.Fprintf(out, "Visit this URL to authorize account %q:\n\n  %s\n\nAuthorization code: ", account, auth.AuthURL(account))
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read authorization code: %w", err)
				}
				code = strings.TrimSpace(line)
			}
			if code == "" {
				return fmt.Errorf("authorization code is empty")
			}

			if err := auth.SaveToken(cmd.Context(), account, code); err != nil {
				return err
			}
			fmt.Fprintf(out, "Token for account %q saved to %s\n", account, auth.TokenFile(account))
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the consent page")
	return cmd
}

package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/ordo/cmd/ordo/cmdutil"
	"github.com/marmos91/ordo/pkg/api"
)

var (
	tokenSubject string
	tokenOutput  string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin API token",
	Long: `Issue a bearer token for the mutating routes of the admin API, signed
with the configured api.jwt.secret.

Examples:
  # Print a token
  ordo token

  # Use it against a running 'ordo serve'
  curl -X POST -H "Authorization: Bearer $(ordo token -o raw)" \
    localhost:8080/api/v1/instance/initialize`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Token subject (default: current user)")
	tokenCmd.Flags().StringVarP(&tokenOutput, "output", "o", "table", "Output format (raw|table|json|yaml)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	jwtService, err := api.NewJWTService(cfg.API)
	if err != nil {
		return err
	}

	subject := tokenSubject
	if subject == "" {
		subject = cmdutil.EmptyOr(os.Getenv("USER"), "admin")
	}
	tok, err := jwtService.Issue(subject)
	if err != nil {
		return err
	}

	if tokenOutput == "raw" {
		_, err := cmd.OutOrStdout().Write([]byte(tok.AccessToken + "\n"))
		return err
	}

	printer, err := cmdutil.NewPrinter(cmd.OutOrStdout(), tokenOutput)
	if err != nil {
		return err
	}
	return printer.Print(tok)
}

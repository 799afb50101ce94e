package cmd

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/donedone/donedone-cli/internal/config"
	"github.com/donedone/donedone-cli/internal/outfmt"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage DoneDone credentials",
		Long: `Manage stored credentials.

Credentials are kept as named profiles in the OS keyring. The
DONEDONE_SUBDOMAIN, DONEDONE_USERNAME and DONEDONE_API_TOKEN (or
DONEDONE_SECRET / DONEDONE_PASSWORD) environment variables take precedence
over any stored profile.`,
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthProfilesCmd())
	cmd.AddCommand(newAuthUseCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		account  config.Account
		envFile  string
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store credentials in a profile",
		Long: `Store credentials in a profile and make it current.

--secret takes a password or an API token. Accounts that sign requests
also need --signing-token, and --secret must then be the password.
Pass '-' as the secret to read it from stdin.`,
		Example: `  donedone auth login --subdomain acme --username ana --secret "$TOKEN"
  donedone auth login --profile work --env-file ./donedone.env
  echo "$TOKEN" | donedone auth login --subdomain acme --username ana --secret -`,
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if envFile != "" {
				values, err := godotenv.Read(envFile)
				if err != nil {
					return fmt.Errorf("failed to read env file: %w", err)
				}
				fillFromEnvFile(cmd, &account, values)
			}

			secret, err := readTextValue(cmd, account.Secret)
			if err != nil {
				return err
			}
			account.Secret = strings.TrimSpace(secret)
			account = account.Normalize()
			if err := account.Validate(); err != nil {
				return fmt.Errorf("invalid credentials: %w", err)
			}

			if !noVerify {
				client := newClientFactory().newClient(cmd, account)
				if _, err := client.Projects().List(cmd.Context(), false); err != nil {
					return fmt.Errorf("credential check failed: %w", err)
				}
			}

			profile := profileName()
			if err := config.SaveProfile(profile, account); err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{
					"profile":   profile,
					"subdomain": account.Subdomain,
					"username":  account.Username,
					"signed":    account.Signed(),
					"verified":  !noVerify,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s (profile %q)\n", account.Subdomain, account.Username, profile)
			return nil
		}),
	}
	cmd.Flags().StringVar(&account.Subdomain, "subdomain", "", "Account subdomain, e.g. 'acme' for acme.mydonedone.com")
	cmd.Flags().StringVar(&account.Username, "username", "", "DoneDone username")
	cmd.Flags().StringVar(&account.Secret, "secret", "", "Password or API token ('-' reads stdin)")
	cmd.Flags().StringVar(&account.SigningToken, "signing-token", "", "Request signing token")
	cmd.Flags().StringVar(&account.BaseURL, "base-url", "", "Override the API base URL")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Read DONEDONE_* credentials from a dotenv file")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Save without checking the credentials against the API")
	flagAlias(cmd.Flags(), "secret", "api-token")
	flagAlias(cmd.Flags(), "secret", "password")
	return cmd
}

// fillFromEnvFile copies dotenv values into fields not set by flags.
func fillFromEnvFile(cmd *cobra.Command, account *config.Account, values map[string]string) {
	pick := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(values[k]); v != "" {
				return v
			}
		}
		return ""
	}
	if !cmd.Flags().Changed("subdomain") {
		account.Subdomain = pick(config.EnvSubdomain)
	}
	if !cmd.Flags().Changed("username") {
		account.Username = pick(config.EnvUsername)
	}
	if !flagOrAliasChanged(cmd, "secret") {
		account.Secret = pick(config.EnvSecret, config.EnvAPIToken, config.EnvPassword)
	}
	if !cmd.Flags().Changed("signing-token") {
		account.SigningToken = pick(config.EnvSigningToken)
	}
	if !cmd.Flags().Changed("base-url") {
		account.BaseURL = pick(config.EnvBaseURL)
	}
}

// profileName is the profile named by --profile, or "default".
func profileName() string {
	if p := strings.TrimSpace(flags.Profile); p != "" {
		return p
	}
	return "default"
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove a stored profile",
		Long:  "Remove the profile named by --profile, or the current profile.",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profile := strings.TrimSpace(flags.Profile)
			if profile == "" {
				current, err := config.CurrentProfile()
				if err != nil {
					return err
				}
				profile = current
			}
			if _, err := config.LoadProfile(profile); err != nil {
				return err
			}
			if err := config.DeleteProfile(profile); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"profile": profile, "removed": true})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed profile %q\n", profile)
			return nil
		}),
	}
}

func newAuthStatusCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active account",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			resolved, err := config.ResolveAccount(flags.Profile)
			if err != nil {
				return err
			}

			status := map[string]any{
				"source":  resolved.Source,
				"account": resolved.Account.Redacted(),
				"signed":  resolved.Account.Signed(),
			}
			if resolved.Profile != "" {
				status["profile"] = resolved.Profile
			}
			if check {
				client := newClientFactory().newClient(cmd, resolved.Account)
				_, err := client.Projects().List(cmd.Context(), false)
				status["valid"] = err == nil
				if err != nil {
					status["error"] = err.Error()
				}
			}

			if outfmt.IsText(cmd.Context()) {
				out := cmd.OutOrStdout()
				acct := resolved.Account.Redacted()
				_, _ = fmt.Fprintf(out, "Subdomain: %s\n", acct.Subdomain)
				_, _ = fmt.Fprintf(out, "Username:  %s\n", acct.Username)
				_, _ = fmt.Fprintf(out, "Secret:    %s\n", acct.Secret)
				if acct.Signed() {
					_, _ = fmt.Fprintf(out, "Signing:   %s\n", acct.SigningToken)
				}
				if acct.BaseURL != "" {
					_, _ = fmt.Fprintf(out, "Base URL:  %s\n", acct.BaseURL)
				}
				source := string(resolved.Source)
				if resolved.Profile != "" {
					source += " (" + resolved.Profile + ")"
				}
				_, _ = fmt.Fprintf(out, "Source:    %s\n", source)
				if v, ok := status["valid"].(bool); ok {
					_, _ = fmt.Fprintf(out, "Valid:     %t\n", v)
				}
				return nil
			}
			return printJSON(cmd, status)
		}),
	}
	cmd.Flags().BoolVar(&check, "check", false, "Verify the credentials against the API")
	return cmd
}

func newAuthProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"list"},
		Short:   "List stored profiles",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			current, err := config.CurrentProfile()
			if err != nil {
				return err
			}

			if outfmt.IsText(cmd.Context()) {
				if len(profiles) == 0 {
					formatterFor(cmd).Empty("No profiles stored")
					return nil
				}
				for _, p := range profiles {
					marker := "  "
					if p == current {
						marker = "* "
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), marker+p)
				}
				return nil
			}
			return printJSON(cmd, map[string]any{"profiles": profiles, "current": current})
		}),
	}
}

func newAuthUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <profile>",
		Short: "Switch the current profile",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if err := config.UseProfile(args[0]); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"current": args[0]})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Now using profile %q\n", args[0])
			return nil
		}),
	}
}

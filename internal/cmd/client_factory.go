package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/donedone/donedone-cli/internal/config"
	"github.com/donedone/donedone-cli/internal/dryrun"
	"github.com/donedone/donedone-cli/internal/outfmt"
	"github.com/donedone/donedone-cli/pkg/donedone"
)

type clientFactory struct {
	timeout   time.Duration
	userAgent string
	debug     bool
	profile   string
}

func newClientFactory() *clientFactory {
	return &clientFactory{
		timeout:   flags.Timeout,
		userAgent: fmt.Sprintf("donedone-cli/%s", version),
		debug:     flags.Debug,
		profile:   flags.Profile,
	}
}

// client resolves the active account and builds a client for it. In
// dry-run mode writes are previewed on the command's stdout.
func (f *clientFactory) client(cmd *cobra.Command) (*donedone.Client, error) {
	resolved, err := config.ResolveAccount(f.profile)
	if err != nil {
		return nil, err
	}
	return f.newClient(cmd, resolved.Account), nil
}

func (f *clientFactory) newClient(cmd *cobra.Command, account config.Account) *donedone.Client {
	client := account.Client()
	if f.timeout > 0 {
		client.HTTP.Timeout = f.timeout
	}
	client.UserAgent = f.userAgent
	client.Debug = f.debug

	if dryrun.IsEnabled(cmd.Context()) {
		client.HTTP.Transport = &dryrun.Transport{
			Base:            client.HTTP.Transport,
			Out:             cmd.OutOrStdout(),
			JSON:            !outfmt.IsText(cmd.Context()),
			SignatureHeader: donedone.SignatureHeader,
		}
	}
	return client
}

func getClient(cmd *cobra.Command) (*donedone.Client, error) {
	return newClientFactory().client(cmd)
}

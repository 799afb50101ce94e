package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/donedone/donedone-cli/pkg/donedone"
)

func newAPICmd() *cobra.Command {
	var (
		rawFields []string
		attach    []string
		update    bool
		post      bool
	)

	cmd := &cobra.Command{
		Use:   "api <path>",
		Short: "Make a raw API call",
		Long: `Make a raw call to any IssueTracker API method and print the response.

The path is relative to https://<subdomain>.mydonedone.com/IssueTracker/API/.
Without fields or attachments the call is a GET; fields make it a POST, or a
PUT with --update. Fields are sent in the order given.`,
		Example: `  donedone api Projects/true
  donedone api Issue/12 -f title="Login broken" -f priority_level_id=2 -f resolver_id=5 -f tester_id=7
  donedone api Issue/12/42 --update -f state_id=5
  donedone api Comment/12/42 -f comment="see log" --attach log.txt`,
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(args[0])
			if path == "" {
				return fmt.Errorf("path is required")
			}

			fields, err := parseFieldArgs(rawFields)
			if err != nil {
				return err
			}
			if fields == nil && (post || update) {
				fields = donedone.Fields{}
			}
			if len(attach) == 0 {
				attach = nil
			}
			if update && fields == nil && attach == nil {
				return fmt.Errorf("--update requires fields or attachments")
			}

			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			body, err := client.Do(cmd.Context(), path, fields, attach, update)
			if err != nil {
				return err
			}
			return printBody(cmd, body)
		}),
	}
	cmd.Flags().StringArrayVarP(&rawFields, "field", "f", nil, "Form field name=value (repeatable, order kept)")
	cmd.Flags().StringArrayVar(&attach, "attach", nil, "File to attach (repeatable)")
	cmd.Flags().BoolVar(&update, "update", false, "Send as PUT")
	cmd.Flags().BoolVar(&post, "post", false, "Send as POST even with no fields")
	flagAlias(cmd.Flags(), "attach", "file")
	flagAlias(cmd.Flags(), "update", "put")
	return cmd
}

// parseFieldArgs turns name=value pairs into fields, nil for none.
func parseFieldArgs(raw []string) (donedone.Fields, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	fields := make(donedone.Fields, 0, len(raw))
	for _, pair := range raw {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid field %q: must be name=value", pair)
		}
		fields = fields.Add(strings.TrimSpace(name), value)
	}
	return fields, nil
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/donedone/donedone-cli/internal/outfmt"
)

var projectColumns = []outfmt.Column{
	{Header: "ID", Keys: []string{"id"}},
	{Header: "NAME", Keys: []string{"name", "title"}},
	{Header: "ISSUES", Keys: []string{"number_of_issues", "issue_count"}},
}

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "proj"},
		Short:   "List projects you can access",
	}
	cmd.AddCommand(newProjectsListCmd())
	return cmd
}

func newProjectsListCmd() *cobra.Command {
	var withIssues bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects with API access enabled",
		Example: `  donedone projects list
  donedone projects list --with-issues -o text`,
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			body, err := client.Projects().List(cmd.Context(), withIssues)
			if err != nil {
				return err
			}
			return printList(cmd, body, projectColumns)
		}),
	}
	cmd.Flags().BoolVar(&withIssues, "with-issues", false, "Include each project's issues")
	flagAlias(cmd.Flags(), "with-issues", "wi")
	return cmd
}

var priorityColumns = []outfmt.Column{
	{Header: "ID", Keys: []string{"id"}},
	{Header: "NAME", Keys: []string{"value", "name"}},
}

func newPriorityLevelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "priority-levels",
		Aliases: []string{"priorities", "priority"},
		Short:   "List issue priority levels",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List priority levels",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			body, err := client.PriorityLevels().List(cmd.Context())
			if err != nil {
				return err
			}
			return printList(cmd, body, priorityColumns)
		}),
	})
	return cmd
}

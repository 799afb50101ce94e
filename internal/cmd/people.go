package cmd

import (
	"github.com/spf13/cobra"

	"github.com/donedone/donedone-cli/internal/outfmt"
)

var peopleColumns = []outfmt.Column{
	{Header: "ID", Keys: []string{"id"}},
	{Header: "NAME", Keys: []string{"value", "name", "fullname"}},
}

func newPeopleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "people",
		Aliases: []string{"person", "users"},
		Short:   "List people in a project",
	}
	cmd.AddCommand(newPeopleListCmd())
	cmd.AddCommand(newPeopleAssignableCmd())
	return cmd
}

func newPeopleListCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List everyone in a project",
		Example: `  donedone people list --project 12
  donedone people list --project "Web site"`,
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			projectID, err := resolveProject(cmd.Context(), client, project)
			if err != nil {
				return err
			}
			body, err := client.People().InProject(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			return printList(cmd, body, peopleColumns)
		}),
	}
	addProjectFlag(cmd, &project)
	return cmd
}

func newPeopleAssignableCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "assignable <issue-id|url>",
		Short: "List people an issue can be assigned to",
		Long: `List the people who can be set as resolver or tester on an issue.

Admins see everyone in the project; other users see only the issue's
tester and resolver.`,
		Example: `  donedone people assignable 42 --project 12`,
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			project, issueID, err := issueRef(project, args[0])
			if err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			projectID, err := resolveProject(cmd.Context(), client, project)
			if err != nil {
				return err
			}
			body, err := client.People().ForIssueAssignment(cmd.Context(), projectID, issueID)
			if err != nil {
				return err
			}
			return printList(cmd, body, peopleColumns)
		}),
	}
	addIssueProjectFlag(cmd, &project)
	return cmd
}

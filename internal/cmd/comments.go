package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/donedone/donedone-cli/internal/validation"
	"github.com/donedone/donedone-cli/pkg/donedone"
)

func newCommentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"comment"},
		Short:   "Comment on issues",
	}
	cmd.AddCommand(newCommentsCreateCmd())
	return cmd
}

func newCommentsCreateCmd() *cobra.Command {
	var (
		project string
		comment string
		cc      []string
		attach  []string
	)

	cmd := &cobra.Command{
		Use:     "create <issue-id|url> [comment]",
		Aliases: []string{"add"},
		Short:   "Add a comment to an issue",
		Long: `Add a comment to an issue. The text comes from the second argument,
--comment, or stdin when either is '-'.`,
		Example: `  donedone comments create 42 "Fixed in build 311" --project 12
  donedone comments create 42 --project 12 --comment - --cc Ana --attach log.txt < notes.txt`,
		Args: cobra.RangeArgs(1, 2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project, issueID, err := issueRef(project, args[0])
			if err != nil {
				return err
			}
			if len(args) == 2 {
				if cmd.Flags().Changed("comment") {
					return fmt.Errorf("pass the comment as an argument or with --comment, not both")
				}
				comment = args[1]
			}
			text, err := readTextValue(cmd, comment)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" && len(attach) == 0 {
				return fmt.Errorf("comment text is required")
			}
			if err := validation.ValidateText("comment", text); err != nil {
				return err
			}

			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			projectID, err := resolveProject(ctx, client, project)
			if err != nil {
				return err
			}
			ccIDs, err := newPeopleResolver(ctx, client, projectID).many(cc)
			if err != nil {
				return err
			}

			body, err := client.Comments().Create(ctx, projectID, issueID, donedone.CreateCommentInput{
				Comment:       text,
				PeopleToCCIDs: ccIDs,
				Attachments:   attach,
			})
			if err != nil {
				return err
			}
			return printBody(cmd, body)
		}),
	}
	addIssueProjectFlag(cmd, &project)
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Comment text ('-' reads stdin)")
	cmd.Flags().StringSliceVar(&cc, "cc", nil, "People to notify, by ID or name")
	cmd.Flags().StringArrayVar(&attach, "attach", nil, "File to attach (repeatable)")
	flagAlias(cmd.Flags(), "attach", "file")
	return cmd
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/donedone/donedone-cli/internal/cli"
	"github.com/donedone/donedone-cli/internal/outfmt"
	"github.com/donedone/donedone-cli/internal/validation"
	"github.com/donedone/donedone-cli/pkg/donedone"
)

var issueColumns = []outfmt.Column{
	{Header: "ID", Keys: []string{"order_number", "id"}},
	{Header: "TITLE", Keys: []string{"title"}},
	{Header: "STATUS", Keys: []string{"status"}},
	{Header: "PRIORITY", Keys: []string{"priority", "priority_level"}},
	{Header: "RESOLVER", Keys: []string{"resolver"}},
}

var statusColumns = []outfmt.Column{
	{Header: "ID", Keys: []string{"id"}},
	{Header: "STATUS", Keys: []string{"value", "name"}},
}

func newIssuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issues",
		Aliases: []string{"issue", "i"},
		Short:   "Work with issues",
	}
	cmd.AddCommand(newIssuesListCmd())
	cmd.AddCommand(newIssuesGetCmd())
	cmd.AddCommand(newIssuesExistsCmd())
	cmd.AddCommand(newIssuesStatusesCmd())
	cmd.AddCommand(newIssuesCreateCmd())
	cmd.AddCommand(newIssuesUpdateCmd())
	return cmd
}

func addProjectFlag(cmd *cobra.Command, project *string) {
	cmd.Flags().StringVar(project, "project", "", "Project ID or name (required)")
	flagAlias(cmd.Flags(), "project", "proj")
	_ = cmd.MarkFlagRequired("project")
}

// addIssueProjectFlag is addProjectFlag for commands that take an issue
// argument, where an issue URL can supply the project instead.
func addIssueProjectFlag(cmd *cobra.Command, project *string) {
	cmd.Flags().StringVar(project, "project", "", "Project ID or name (required unless the issue is a URL)")
	flagAlias(cmd.Flags(), "project", "proj")
}

func newIssuesListCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all issues in a project",
		Example: `  donedone issues list --project 12 -o text
  donedone issues list --project "Web site" -q '.[] | select(.status == "Open") | .title'`,
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
			body, err := client.Issues().List(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			return printList(cmd, body, issueColumns)
		}),
	}
	addProjectFlag(cmd, &project)
	return cmd
}

func newIssuesGetCmd() *cobra.Command {
	var (
		project     string
		concurrency int64
		progress    bool
	)

	cmd := &cobra.Command{
		Use:   "get <issue-id|url>...",
		Short: "Show issue details",
		Long: `Show one or more issues.

With several IDs the issues are fetched concurrently and printed as a JSON
array in the order given. Issues that fail are reported after the rest are
printed.`,
		Example: `  donedone issues get 42 --project 12
  donedone issues get 42 43 44 --project 12 --concurrency 3
  donedone issues get https://acme.mydonedone.com/issuetracker/projects/12/issues/42`,
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			project, ids, err := issueRefs(project, args)
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

			if len(ids) == 1 {
				body, err := client.Issues().Get(cmd.Context(), projectID, ids[0])
				if err != nil {
					return err
				}
				return printBody(cmd, body)
			}

			results := runBulkOperation(cmd.Context(), ids, concurrency, progress, cmd.ErrOrStderr(),
				func(ctx context.Context, id int) (json.RawMessage, error) {
					body, err := client.Issues().Get(ctx, projectID, id)
					if err != nil {
						return nil, err
					}
					if !json.Valid(body) {
						return nil, fmt.Errorf("response is not JSON")
					}
					return body, nil
				})

			issues := make([]json.RawMessage, 0, len(results))
			for _, r := range results {
				if r.Success {
					issues = append(issues, r.Data.(json.RawMessage))
				}
			}
			if len(issues) > 0 {
				combined, err := json.Marshal(issues)
				if err != nil {
					return err
				}
				if err := printBody(cmd, combined); err != nil {
					return err
				}
			}

			success, failure := countResults(results)
			if failure > 0 {
				printIfNotQuiet(cmd, "Fetched %d of %d issues\n", success, success+failure)
			}
			return bulkErrors(results)
		}),
	}
	addIssueProjectFlag(cmd, &project)
	cmd.Flags().Int64Var(&concurrency, "concurrency", DefaultConcurrency, "Maximum parallel requests")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show progress on stderr")
	return cmd
}

func newIssuesExistsCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:     "exists <issue-id|url>",
		Short:   "Check whether an issue exists",
		Example: `  donedone issues exists 42 --project 12`,
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
			body, err := client.Issues().Exists(cmd.Context(), projectID, issueID)
			if err != nil {
				return err
			}
			return printBody(cmd, body)
		}),
	}
	addIssueProjectFlag(cmd, &project)
	return cmd
}

func newIssuesStatusesCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:     "statuses <issue-id|url>",
		Aliases: []string{"potential-statuses"},
		Short:   "List the statuses an issue can move to",
		Example: `  donedone issues statuses 42 --project 12 -o text`,
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
			body, err := client.Issues().PotentialStatuses(cmd.Context(), projectID, issueID)
			if err != nil {
				return err
			}
			return printList(cmd, body, statusColumns)
		}),
	}
	addIssueProjectFlag(cmd, &project)
	return cmd
}

func newIssuesCreateCmd() *cobra.Command {
	var (
		project     string
		title       string
		priority    string
		resolver    string
		tester      string
		description string
		tags        []string
		watchers    []string
		cc          []string
		due         string
		attach      []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an issue",
		Long: `Create an issue in a project.

People and the priority level can be given by ID or by name. Names are
matched against the project's people and the priority levels the service
lists. Attachments switch the request to multipart.`,
		Example: `  donedone issues create --project 12 --title "Login broken" \
    --priority High --resolver "Ana" --tester 7 --due 2024-03-01
  echo "Steps to reproduce..." | donedone issues create --project 12 --title Bug \
    --priority 2 --resolver 5 --tester 7 --description - --attach shot.png`,
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := validation.ValidateTitle(title); err != nil {
				return err
			}
			dueDate, err := parseDueDate(due)
			if err != nil {
				return err
			}
			desc, err := readTextValue(cmd, description)
			if err != nil {
				return err
			}
			if err := validation.ValidateText("description", desc); err != nil {
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
			priorityID, err := resolvePriority(ctx, client, priority)
			if err != nil {
				return err
			}
			people := newPeopleResolver(ctx, client, projectID)
			resolverID, err := people.one(resolver)
			if err != nil {
				return err
			}
			testerID, err := people.one(tester)
			if err != nil {
				return err
			}
			watcherIDs, err := people.many(watchers)
			if err != nil {
				return err
			}
			ccIDs, err := people.many(cc)
			if err != nil {
				return err
			}

			body, err := client.Issues().Create(ctx, projectID, donedone.CreateIssueInput{
				Title:           title,
				PriorityLevelID: priorityID,
				ResolverID:      resolverID,
				TesterID:        testerID,
				Description:     desc,
				Tags:            cleanTags(tags),
				WatcherIDs:      watcherIDs,
				PeopleToCCIDs:   ccIDs,
				DueDate:         dueDate,
				Attachments:     attach,
			})
			if err != nil {
				return err
			}
			return printBody(cmd, body)
		}),
	}
	addProjectFlag(cmd, &project)
	cmd.Flags().StringVar(&title, "title", "", "Issue title (required)")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority level ID or name (required)")
	cmd.Flags().StringVar(&resolver, "resolver", "", "Resolver ID or name (required)")
	cmd.Flags().StringVar(&tester, "tester", "", "Tester ID or name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Description ('-' reads stdin)")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags (comma-separated or repeated)")
	cmd.Flags().StringSliceVar(&watchers, "watcher", nil, "Watcher IDs or names")
	cmd.Flags().StringSliceVar(&cc, "cc", nil, "People to notify, by ID or name")
	cmd.Flags().StringVar(&due, "due", "", "Due date: YYYY-MM-DD, today, tomorrow, a weekday or an offset like 3d")
	cmd.Flags().StringArrayVar(&attach, "attach", nil, "File to attach (repeatable)")
	for _, name := range []string{"title", "priority", "resolver", "tester"} {
		_ = cmd.MarkFlagRequired(name)
	}
	flagAlias(cmd.Flags(), "description", "desc")
	flagAlias(cmd.Flags(), "watcher", "watchers")
	flagAlias(cmd.Flags(), "attach", "file")
	return cmd
}

func newIssuesUpdateCmd() *cobra.Command {
	var (
		project     string
		title       string
		priority    string
		resolver    string
		tester      string
		description string
		tags        []string
		clearTags   bool
		state       int
		due         string
		attach      []string
	)

	cmd := &cobra.Command{
		Use:   "update <issue-id|url>",
		Short: "Update an issue",
		Long: `Update an existing issue. Only the flags you pass are sent.

--tags replaces the whole tag list; --clear-tags removes every tag. Use
'donedone issues statuses' to find valid --state values.`,
		Example: `  donedone issues update 42 --project 12 --state 5
  donedone issues update 42 --project 12 --title "Login broken on Safari" --clear-tags`,
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project, issueID, err := issueRef(project, args[0])
			if err != nil {
				return err
			}
			if clearTags && cmd.Flags().Changed("tags") {
				return fmt.Errorf("--tags and --clear-tags cannot be used together")
			}

			var in donedone.UpdateIssueInput
			if cmd.Flags().Changed("title") {
				if err := validation.ValidateTitle(title); err != nil {
					return err
				}
				in.Title = &title
			}
			if flagOrAliasChanged(cmd, "description") {
				desc, err := readTextValue(cmd, description)
				if err != nil {
					return err
				}
				if err := validation.ValidateText("description", desc); err != nil {
					return err
				}
				in.Description = &desc
			}
			if cmd.Flags().Changed("tags") {
				cleaned := cleanTags(tags)
				in.Tags = &cleaned
			}
			if clearTags {
				in.Tags = &[]string{}
			}
			if cmd.Flags().Changed("state") {
				if state <= 0 {
					return fmt.Errorf("--state must be a positive status ID")
				}
				in.StateID = &state
			}
			if cmd.Flags().Changed("due") {
				if in.DueDate, err = parseDueDate(due); err != nil {
					return err
				}
			}
			in.Attachments = attach

			needsLookup := cmd.Flags().Changed("priority") || cmd.Flags().Changed("resolver") || cmd.Flags().Changed("tester")
			if in.IsEmpty() && !needsLookup {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}

			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			projectID, err := resolveProject(ctx, client, project)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("priority") {
				id, err := resolvePriority(ctx, client, priority)
				if err != nil {
					return err
				}
				in.PriorityLevelID = &id
			}
			people := newPeopleResolver(ctx, client, projectID)
			if cmd.Flags().Changed("resolver") {
				id, err := people.one(resolver)
				if err != nil {
					return err
				}
				in.ResolverID = &id
			}
			if cmd.Flags().Changed("tester") {
				id, err := people.one(tester)
				if err != nil {
					return err
				}
				in.TesterID = &id
			}

			body, err := client.Issues().Update(ctx, projectID, issueID, in)
			if err != nil {
				return err
			}
			return printBody(cmd, body)
		}),
	}
	addIssueProjectFlag(cmd, &project)
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority level ID or name")
	cmd.Flags().StringVar(&resolver, "resolver", "", "Resolver ID or name")
	cmd.Flags().StringVar(&tester, "tester", "", "Tester ID or name")
	cmd.Flags().StringVar(&description, "description", "", "New description ('-' reads stdin)")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Replace tags (comma-separated or repeated)")
	cmd.Flags().BoolVar(&clearTags, "clear-tags", false, "Remove all tags")
	cmd.Flags().IntVar(&state, "state", 0, "New status ID")
	cmd.Flags().StringVar(&due, "due", "", "Due date: YYYY-MM-DD, today, tomorrow, a weekday or an offset like 3d")
	cmd.Flags().StringArrayVar(&attach, "attach", nil, "File to attach (repeatable)")
	flagAlias(cmd.Flags(), "description", "desc")
	flagAlias(cmd.Flags(), "state", "status")
	flagAlias(cmd.Flags(), "attach", "file")
	return cmd
}

func parseDueDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := cli.ParseDate(value, time.Now())
	if err != nil {
		return nil, fmt.Errorf("invalid --due %q: use YYYY-MM-DD, today, tomorrow, a weekday or an offset like 3d", value)
	}
	return &t, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/donedone/donedone-cli/internal/config"
	"github.com/donedone/donedone-cli/internal/debug"
	"github.com/donedone/donedone-cli/internal/dryrun"
	"github.com/donedone/donedone-cli/internal/filter"
	"github.com/donedone/donedone-cli/internal/iocontext"
	"github.com/donedone/donedone-cli/internal/outfmt"
	"github.com/donedone/donedone-cli/pkg/donedone"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Output   string
	JSON     bool
	Query    string
	Template string
	Compact  bool
	Debug    bool
	DryRun   bool
	Quiet    bool
	Profile  string
	Timeout  time.Duration
}

// flags holds the global command flags. It is reset at the start of every
// Execute call; reading it outside a command's RunE sees the previous run.
var flags = defaultFlags()

func defaultFlags() rootFlags {
	return rootFlags{
		Output:  defaultOutput(),
		Timeout: donedone.DefaultTimeout,
	}
}

func defaultOutput() string {
	if value := strings.TrimSpace(os.Getenv("DONEDONE_OUTPUT")); value != "" {
		return value
	}
	return "json"
}

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	streams := iocontext.GetIO(ctx)

	// The dotenv file is read before flag defaults so DONEDONE_OUTPUT and
	// friends can come from it.
	if err := config.LoadEnvFile(); err != nil {
		_, _ = fmt.Fprintf(streams.ErrOut, "Error: %v\n", err)
		return err
	}

	flags = defaultFlags()

	root := &cobra.Command{
		Use:                "donedone",
		Short:              "CLI for the DoneDone issue tracker",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true, // enhanceUnknownError suggests instead
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if flags.JSON {
				if flagOrAliasChanged(cmd, "output") && flags.Output != "json" {
					return fmt.Errorf("--json conflicts with --output %s", flags.Output)
				}
				flags.Output = "json"
			}
			if flags.Query != "" && flags.Template != "" {
				return fmt.Errorf("--query and --template cannot be used together")
			}
			if flags.Timeout < 0 {
				return fmt.Errorf("--timeout must be >= 0")
			}

			mode, err := outfmt.Parse(flags.Output)
			if err != nil {
				return err
			}
			if mode == outfmt.Raw && (flags.Query != "" || flags.Template != "") {
				return fmt.Errorf("--query and --template need --output json or text")
			}
			ctx = outfmt.WithMode(ctx, mode)
			ctx = outfmt.WithCompact(ctx, flags.Compact)

			ioStreams := &iocontext.IO{Out: streams.Out, ErrOut: streams.ErrOut, In: streams.In}
			if flags.Quiet {
				ioStreams.ErrOut = io.Discard
			}
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			debug.SetupLogger(streams.ErrOut, flags.Debug)
			ctx = debug.WithDebug(ctx, flags.Debug)

			ctx = dryrun.WithDryRun(ctx, flags.DryRun)

			if flags.Query != "" {
				if _, err := filter.Compile(flags.Query); err != nil {
					return err
				}
				ctx = outfmt.WithQuery(ctx, flags.Query)
			}
			if flags.Template != "" {
				tmpl, err := loadTemplate(flags.Template)
				if err != nil {
					return err
				}
				ctx = outfmt.WithTemplate(ctx, tmpl)
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)
	root.SetOut(streams.Out)
	root.SetErr(streams.ErrOut)
	root.SetIn(streams.In)

	root.PersistentFlags().StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: json|raw|text; raw prints the body byte for byte (env DONEDONE_OUTPUT)")
	root.PersistentFlags().BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	root.PersistentFlags().StringVarP(&flags.Query, "query", "q", "", "JQ expression to filter JSON output")
	root.PersistentFlags().StringVar(&flags.Template, "template", "", "Go template string (or @path) to render JSON output")
	root.PersistentFlags().BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	root.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Log requests to stderr")
	root.PersistentFlags().BoolVar(&flags.DryRun, "dry-run", false, "Preview writes without sending them")
	root.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress non-essential output")
	root.PersistentFlags().StringVarP(&flags.Profile, "profile", "p", "", "Credential profile to use (env DONEDONE_PROFILE)")
	root.PersistentFlags().DurationVar(&flags.Timeout, "timeout", flags.Timeout, "HTTP request timeout (e.g., 30s, 2m)")

	flagAlias(root.PersistentFlags(), "output", "out")
	flagAlias(root.PersistentFlags(), "query", "jq")
	flagAlias(root.PersistentFlags(), "template", "tpl")
	flagAlias(root.PersistentFlags(), "compact-json", "cj")
	flagAlias(root.PersistentFlags(), "dry-run", "dr")
	flagAlias(root.PersistentFlags(), "debug", "dbg")
	flagAlias(root.PersistentFlags(), "timeout", "to")

	root.AddCommand(newAuthCmd())
	root.AddCommand(newProjectsCmd())
	root.AddCommand(newPriorityLevelsCmd())
	root.AddCommand(newPeopleCmd())
	root.AddCommand(newIssuesCmd())
	root.AddCommand(newCommentsCmd())
	root.AddCommand(newAPICmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newVersionCmd())

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanceUnknownError(err, root, targetCmd))
		}
		return err
	}
	return nil
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		if unknown := extractQuoted(msg); unknown != "" {
			var names []string
			for _, c := range targetOrRoot(root, targetCmd).Commands() {
				if c.IsAvailableCommand() {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := suggestCommand(unknown, names); suggestion != "" {
				return fmt.Sprintf("Error: %s\n\nDid you mean %q?", msg, suggestion)
			}
		}
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		if unknown := extractFlag(msg); unknown != "" {
			target := targetOrRoot(root, targetCmd)
			seen := make(map[string]bool)
			var names []string
			add := func(fs *pflag.FlagSet) {
				fs.VisitAll(func(f *pflag.Flag) {
					if f.Hidden || seen[f.Name] {
						return
					}
					seen[f.Name] = true
					names = append(names, "--"+f.Name)
				})
			}
			add(target.Flags())
			add(target.InheritedFlags())

			helpCmd := target.CommandPath() + " --help"
			if suggestion := suggestFlag(unknown, names); suggestion != "" {
				return fmt.Sprintf("Error: %s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
			}
			return fmt.Sprintf("Error: %s\n\nRun %q to see supported flags.", msg, helpCmd)
		}
	}

	return "Error: " + msg
}

func targetOrRoot(root, target *cobra.Command) *cobra.Command {
	if target != nil {
		return target
	}
	return root
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name such as "--foo" from a flag error.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		idx = strings.LastIndex(s, " -")
		if idx < 0 {
			return ""
		}
		idx++
	}
	rest := s[idx:]
	if end := strings.IndexByte(rest, ' '); end >= 0 {
		rest = rest[:end]
	}
	rest = strings.TrimRight(rest, ".,;:!?\"'")
	if len(rest) < 2 {
		return ""
	}
	return rest
}

func loadTemplate(value string) (string, error) {
	if path, ok := strings.CutPrefix(value, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(data), nil
	}
	return value, nil
}

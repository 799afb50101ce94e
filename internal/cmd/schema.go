package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/donedone/donedone-cli/internal/outfmt"
	"github.com/donedone/donedone-cli/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Describe the form fields of write requests",
		Long: `List and show the form fields each write request sends. Useful with
'donedone api -f name=value'.`,
		Example: `  donedone schema list -o text
  donedone schema show issue-create -o text`,
	}
	cmd.AddCommand(newSchemaListCmd())
	cmd.AddCommand(newSchemaShowCmd())
	return cmd
}

func newSchemaListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List described requests",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			type summary struct {
				Name        string `json:"name"`
				Method      string `json:"method"`
				Path        string `json:"path"`
				Description string `json:"description"`
			}
			names := schema.List()
			summaries := make([]summary, 0, len(names))
			for _, name := range names {
				s, _ := schema.Get(name)
				summaries = append(summaries, summary{Name: name, Method: s.Method, Path: s.Path, Description: s.Description})
			}

			if !outfmt.IsText(cmd.Context()) {
				return printJSON(cmd, summaries)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tREQUEST\tDESCRIPTION")
			for _, s := range summaries {
				_, _ = fmt.Fprintf(w, "%s\t%s %s\t%s\n", s.Name, s.Method, s.Path, s.Description)
			}
			return w.Flush()
		}),
	}
}

func newSchemaShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show <name>",
		Short:   "Show the fields of one request",
		Example: `  donedone schema show comment-create -o text`,
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			s, err := schema.Get(args[0])
			if err != nil {
				return fmt.Errorf("%w; available: %s", err, strings.Join(schema.List(), ", "))
			}
			if !outfmt.IsText(cmd.Context()) {
				return printJSON(cmd, s)
			}
			printSchemaText(cmd.OutOrStdout(), args[0], s)
			return nil
		}),
	}
}

func printSchemaText(out io.Writer, name string, s *schema.Schema) {
	_, _ = fmt.Fprintf(out, "%s: %s %s\n", name, s.Method, s.Path)
	if s.Description != "" {
		_, _ = fmt.Fprintln(out, s.Description)
	}
	_, _ = fmt.Fprintln(out)

	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	names := make([]string, 0, len(s.Properties))
	for n := range s.Properties {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		prop := s.Properties[n]
		typeName := prop.Type
		if prop.Format != "" {
			typeName += " (" + prop.Format + ")"
		}
		marker := ""
		if required[n] {
			marker = ", required"
		}
		_, _ = fmt.Fprintf(out, "  %s: %s%s\n", n, typeName, marker)
		if prop.Description != "" {
			_, _ = fmt.Fprintf(out, "    %s\n", prop.Description)
		}
	}
}

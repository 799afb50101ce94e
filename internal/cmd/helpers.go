package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/donedone/donedone-cli/internal/iocontext"
	"github.com/donedone/donedone-cli/internal/outfmt"
	"github.com/donedone/donedone-cli/internal/validation"
	"github.com/donedone/donedone-cli/pkg/donedone"
)

// errAlreadyHandled marks an error that RunE already printed, so Execute
// does not print it again.
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() error {
	return errAlreadyHandled
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

// RunE wraps a command body so failures are reported once, as structured
// JSON in JSON mode and as a message with suggestions otherwise.
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		// Errors go to the root's stream, which --quiet leaves alone.
		errOut := cmd.Root().ErrOrStderr()
		if isJSON(cmd) {
			if structured := donedone.StructuredErrorFromError(err); structured != nil {
				_ = outfmt.WriteJSON(errOut, map[string]any{"error": structured})
			}
		} else {
			_, _ = fmt.Fprint(errOut, HandleError(err))
		}
		return &handledError{err: err, exitCode: ExitCode(err)}
	}
}

func isJSON(cmd *cobra.Command) bool {
	return outfmt.ModeFromContext(cmd.Context()) == outfmt.JSON
}

func ioFor(cmd *cobra.Command) *iocontext.IO {
	return iocontext.GetIO(cmd.Context())
}

func formatterFor(cmd *cobra.Command) *outfmt.Formatter {
	return outfmt.NewFormatter(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// printBody prints an API response body. Dry runs return an empty body and
// print nothing further.
func printBody(cmd *cobra.Command, body []byte) error {
	if len(body) == 0 {
		return nil
	}
	return formatterFor(cmd).Body(body)
}

func printList(cmd *cobra.Command, body []byte, columns []outfmt.Column) error {
	return formatterFor(cmd).List(body, columns)
}

// printJSON prints a value produced by the CLI itself rather than the service.
func printJSON(cmd *cobra.Command, v any) error {
	return outfmt.WriteJSONMaybeCompact(cmd.OutOrStdout(), v, outfmt.IsCompact(cmd.Context()))
}

func printIfNotQuiet(cmd *cobra.Command, format string, args ...any) {
	if flags.Quiet {
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), format, args...)
}

// splitCommaList splits "a, b,,c" into [a b c].
func splitCommaList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseIDList parses positive integer IDs from comma-separated values.
func parseIDList(flagName string, values []string) ([]int, error) {
	var ids []int
	for _, value := range values {
		for _, part := range splitCommaList(value) {
			id, err := parsePositiveID(flagName, part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parsePositiveID(name, value string) (int, error) {
	return validation.ParsePositiveInt(value, name)
}

// readTextValue returns value, or all of stdin when value is "-".
func readTextValue(cmd *cobra.Command, value string) (string, error) {
	if value != "-" {
		return value, nil
	}
	data, err := io.ReadAll(ioFor(cmd).In)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// aliasBridgeValue wraps a pflag.Value so that setting the alias also marks
// the canonical flag as Changed, which keeps MarkFlagRequired working.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

type aliasBridgeSliceValue struct {
	aliasBridgeValue
	slice pflag.SliceValue
}

func (v *aliasBridgeSliceValue) Append(s string) error     { return v.slice.Append(s) }
func (v *aliasBridgeSliceValue) Replace(ss []string) error { return v.slice.Replace(ss) }
func (v *aliasBridgeSliceValue) GetSlice() []string        { return v.slice.GetSlice() }

// flagAlias registers a hidden alias sharing the named flag's value.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}
	a := *f
	a.Name = alias
	a.Shorthand = ""
	a.Usage = ""
	a.Hidden = true
	bridge := &aliasBridgeValue{Value: f.Value, canonical: f}
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		a.Value = &aliasBridgeSliceValue{aliasBridgeValue: *bridge, slice: sv}
	} else {
		a.Value = bridge
	}
	ann := map[string][]string{"alias-of": {name}}
	for k, v := range f.Annotations {
		if k == cobra.BashCompOneRequiredFlag {
			continue
		}
		ann[k] = v
	}
	a.Annotations = ann
	fs.AddFlag(&a)
}

// flagOrAliasChanged reports whether the named flag or one of its aliases
// was set on the command line.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) || cmd.InheritedFlags().Changed(name) {
		return true
	}
	aliasChanged := func(fs *pflag.FlagSet) bool {
		found := false
		fs.VisitAll(func(f *pflag.Flag) {
			if ann := f.Annotations["alias-of"]; len(ann) > 0 && ann[0] == name && fs.Changed(f.Name) {
				found = true
			}
		})
		return found
	}
	return aliasChanged(cmd.Flags()) || aliasChanged(cmd.InheritedFlags())
}

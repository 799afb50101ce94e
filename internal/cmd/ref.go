package cmd

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/donedone/donedone-cli/internal/resolve"
	"github.com/donedone/donedone-cli/internal/urlparse"
	"github.com/donedone/donedone-cli/pkg/donedone"
)

// Name references (projects, people, priority levels) are resolved against
// the service's list endpoints. Numeric references skip the lookup, and each
// list is fetched at most once per command.

type lister func() ([]resolve.Named, error)

func once(fn lister) lister {
	var (
		o     sync.Once
		items []resolve.Named
		err   error
	)
	return func() ([]resolve.Named, error) {
		o.Do(func() { items, err = fn() })
		return items, err
	}
}

func namedList(body []byte, err error) ([]resolve.Named, error) {
	if err != nil {
		return nil, err
	}
	return resolve.NamedFromJSON(body)
}

func resolveRef(kind, ref string, items lister) (int, error) {
	id, err := resolve.Ref(ref, items)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", kind, ref, err)
	}
	return id, nil
}

func resolveProject(ctx context.Context, client *donedone.Client, ref string) (int, error) {
	if ref == "" {
		return 0, fmt.Errorf("--project is required")
	}
	return resolveRef("project", ref, func() ([]resolve.Named, error) {
		return namedList(client.Projects().List(ctx, false))
	})
}

func resolvePriority(ctx context.Context, client *donedone.Client, ref string) (int, error) {
	return resolveRef("priority", ref, func() ([]resolve.Named, error) {
		return namedList(client.PriorityLevels().List(ctx))
	})
}

// peopleResolver resolves person references within one project.
type peopleResolver struct {
	items lister
}

func newPeopleResolver(ctx context.Context, client *donedone.Client, projectID int) *peopleResolver {
	return &peopleResolver{items: once(func() ([]resolve.Named, error) {
		return namedList(client.People().InProject(ctx, projectID))
	})}
}

func (r *peopleResolver) one(ref string) (int, error) {
	return resolveRef("person", ref, r.items)
}

// many resolves comma-separated references from repeated flag values.
func (r *peopleResolver) many(refs []string) ([]int, error) {
	var ids []int
	for _, ref := range refs {
		for _, part := range splitCommaList(ref) {
			id, err := r.one(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// issueRefs parses issue arguments, each an issue number ("42", "#42") or an
// issue URL. A URL also names the project, and every project named must
// agree. It returns the project reference to resolve and the issue IDs.
func issueRefs(project string, args []string) (string, []int, error) {
	var ids []int
	for _, arg := range args {
		if !urlparse.LooksLikeURL(arg) {
			parsed, err := parseIDList("issue ID", []string{arg})
			if err != nil {
				return "", nil, err
			}
			ids = append(ids, parsed...)
			continue
		}

		u, err := urlparse.Parse(arg)
		if err != nil {
			return "", nil, err
		}
		if !u.HasIssue() {
			return "", nil, fmt.Errorf("invalid issue URL %q: no issue number", arg)
		}
		urlProject := strconv.Itoa(u.ProjectID)
		switch {
		case project == "":
			project = urlProject
		case project != urlProject:
			return "", nil, fmt.Errorf("project %s conflicts with project %d in %s", project, u.ProjectID, arg)
		}
		ids = append(ids, u.IssueID)
	}
	return project, ids, nil
}

// issueRef is issueRefs for a single argument.
func issueRef(project, arg string) (string, int, error) {
	project, ids, err := issueRefs(project, []string{arg})
	if err != nil {
		return "", 0, err
	}
	if len(ids) != 1 {
		return "", 0, fmt.Errorf("invalid issue ID %q: expected exactly one", arg)
	}
	return project, ids[0], nil
}

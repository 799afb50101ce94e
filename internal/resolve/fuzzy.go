// Package resolve turns project and person names into numeric IDs using the
// service's own list responses.
package resolve

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Named is any listed resource with an ID and display name.
type Named struct {
	ID   int
	Name string
}

// Match is a ranked fuzzy candidate.
type Match struct {
	ID    int
	Name  string
	Score int
}

var (
	ErrEmptyQuery = errors.New("empty search query")
	ErrEmptyItems = errors.New("no items to match against")
)

const maxCandidates = 5

// AmbiguousError lists the best candidates when no single one wins.
type AmbiguousError struct {
	Query   string
	Matches []Match
}

func (e *AmbiguousError) Error() string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "ambiguous match for %q", e.Query)
	if len(e.Matches) > 0 {
		b.WriteString(", candidates:")
		for _, m := range e.Matches {
			_, _ = fmt.Fprintf(&b, "\n  %d: %s", m.ID, m.Name)
		}
	}
	return b.String()
}

// NotFoundError means nothing resembled the query.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no match found for %q", e.Query)
}

type lowerNames []Named

func (s lowerNames) String(i int) string { return strings.ToLower(s[i].Name) }
func (s lowerNames) Len() int            { return len(s) }

// FuzzyMatch returns the ID of the item best matching query. An exact
// case-insensitive name wins outright; otherwise a tie between the top two
// fuzzy scores is an *AmbiguousError.
func FuzzyMatch(query string, items []Named) (int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, ErrEmptyQuery
	}
	if len(items) == 0 {
		return 0, ErrEmptyItems
	}

	for _, item := range items {
		if strings.EqualFold(item.Name, query) {
			return item.ID, nil
		}
	}

	results := fuzzy.FindFrom(strings.ToLower(query), lowerNames(items))
	if len(results) == 0 {
		return 0, &NotFoundError{Query: query}
	}
	if len(results) > 1 && results[0].Score == results[1].Score {
		return 0, &AmbiguousError{Query: query, Matches: toMatches(items, results, maxCandidates)}
	}
	return items[results[0].Index].ID, nil
}

// FuzzyMatchAll returns up to limit candidates, best first.
func FuzzyMatchAll(query string, items []Named, limit int) []Match {
	query = strings.TrimSpace(query)
	if query == "" || len(items) == 0 || limit <= 0 {
		return nil
	}
	return toMatches(items, fuzzy.FindFrom(strings.ToLower(query), lowerNames(items)), limit)
}

func toMatches(items []Named, results fuzzy.Matches, limit int) []Match {
	if len(results) > limit {
		results = results[:limit]
	}
	if len(results) == 0 {
		return nil
	}
	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{ID: items[r.Index].ID, Name: items[r.Index].Name, Score: r.Score}
	}
	return matches
}

// Ref resolves a user-supplied reference: a positive integer is taken as an
// ID as is, anything else is matched against the names in items.
func Ref(ref string, items func() ([]Named, error)) (int, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		if id <= 0 {
			return 0, fmt.Errorf("invalid ID %d: must be positive", id)
		}
		return id, nil
	}
	list, err := items()
	if err != nil {
		return 0, err
	}
	return FuzzyMatch(ref, list)
}

var (
	idKeys   = []string{"id"}
	nameKeys = []string{"name", "value", "title", "fullname"}
)

// NamedFromJSON extracts ID/name pairs from a JSON array of objects. Key
// lookup is case-insensitive; entries without both are skipped.
func NamedFromJSON(body []byte) ([]Named, error) {
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("expected a JSON list: %w", err)
	}

	out := make([]Named, 0, len(rows))
	for _, row := range rows {
		var n Named
		if raw, ok := lookup(row, idKeys); ok {
			_ = json.Unmarshal(raw, &n.ID)
		}
		if raw, ok := lookup(row, nameKeys); ok {
			_ = json.Unmarshal(raw, &n.Name)
		}
		if n.ID != 0 && n.Name != "" {
			out = append(out, n)
		}
	}
	return out, nil
}

func lookup(row map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, want := range keys {
		for k, v := range row {
			if strings.EqualFold(k, want) {
				return v, true
			}
		}
	}
	return nil, false
}

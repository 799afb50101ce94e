package donedone

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CreateIssueInput holds the fields for a new issue. Title and the three
// IDs are required by the service; zero-valued optional fields are omitted.
type CreateIssueInput struct {
	Title           string
	PriorityLevelID int
	ResolverID      int
	TesterID        int
	Description     string
	Tags            []string
	WatcherIDs      []int
	PeopleToCCIDs   []int
	DueDate         *time.Time
	Attachments     []string
}

// Fields returns the form fields in wire order.
func (in CreateIssueInput) Fields() Fields {
	f := Fields{}.
		Add("title", in.Title).
		AddInt("priority_level_id", in.PriorityLevelID).
		AddInt("resolver_id", in.ResolverID).
		AddInt("tester_id", in.TesterID).
		AddString("description", in.Description)
	if len(in.Tags) > 0 {
		f = f.Add("tags", strings.Join(in.Tags, ","))
	}
	return f.
		AddIDs("watcher_ids", in.WatcherIDs).
		AddIDs("people_to_cc_ids", in.PeopleToCCIDs).
		AddDate("due_date", in.DueDate)
}

// UpdateIssueInput holds the changes for an existing issue. Only non-nil
// fields are sent; the service keeps the current value of anything omitted.
// Tags replaces the whole tag list, so a non-nil empty slice clears it.
type UpdateIssueInput struct {
	Title           *string
	PriorityLevelID *int
	ResolverID      *int
	TesterID        *int
	Description     *string
	Tags            *[]string
	StateID         *int
	DueDate         *time.Time
	Attachments     []string
}

// Fields returns the form fields in wire order.
func (in UpdateIssueInput) Fields() Fields {
	f := Fields{}
	if in.Title != nil {
		f = f.Add("title", *in.Title)
	}
	if in.PriorityLevelID != nil {
		f = f.AddInt("priority_level_id", *in.PriorityLevelID)
	}
	if in.ResolverID != nil {
		f = f.AddInt("resolver_id", *in.ResolverID)
	}
	if in.TesterID != nil {
		f = f.AddInt("tester_id", *in.TesterID)
	}
	if in.Description != nil {
		f = f.Add("description", *in.Description)
	}
	if in.Tags != nil {
		f = f.Add("tags", strings.Join(*in.Tags, ","))
	}
	if in.StateID != nil {
		f = f.AddInt("state_id", *in.StateID)
	}
	return f.AddDate("due_date", in.DueDate)
}

// IsEmpty reports whether the update would change nothing.
func (in UpdateIssueInput) IsEmpty() bool {
	return len(in.Fields()) == 0 && len(in.Attachments) == 0
}

// List returns all issues in a project.
func (s IssuesService) List(ctx context.Context, projectID int) ([]byte, error) {
	return get(ctx, s, fmt.Sprintf("IssuesInProject/%d", projectID))
}

// Exists checks whether an issue exists.
func (s IssuesService) Exists(ctx context.Context, projectID, issueID int) ([]byte, error) {
	return get(ctx, s, fmt.Sprintf("DoesIssueExist/%d/%d", projectID, issueID))
}

// PotentialStatuses returns the statuses an issue can move to. Admins get
// every status back as well.
func (s IssuesService) PotentialStatuses(ctx context.Context, projectID, issueID int) ([]byte, error) {
	return get(ctx, s, fmt.Sprintf("PotentialStatusesForIssue/%d/%d", projectID, issueID))
}

// Get returns an issue's details. A missing issue is a 404 *APIError.
func (s IssuesService) Get(ctx context.Context, projectID, issueID int) ([]byte, error) {
	return get(ctx, s, issuePath(projectID, issueID))
}

// Create creates an issue in a project.
func (s IssuesService) Create(ctx context.Context, projectID int, in CreateIssueInput) ([]byte, error) {
	return createIssue(ctx, s, projectID, in)
}

func createIssue(ctx context.Context, r Requester, projectID int, in CreateIssueInput) ([]byte, error) {
	return r.Do(ctx, fmt.Sprintf("Issue/%d", projectID), in.Fields(), attachmentsOrNil(in.Attachments), false)
}

// Update changes an existing issue with a PUT.
func (s IssuesService) Update(ctx context.Context, projectID, issueID int, in UpdateIssueInput) ([]byte, error) {
	return updateIssue(ctx, s, projectID, issueID, in)
}

func updateIssue(ctx context.Context, r Requester, projectID, issueID int, in UpdateIssueInput) ([]byte, error) {
	return r.Do(ctx, issuePath(projectID, issueID), in.Fields(), attachmentsOrNil(in.Attachments), true)
}

func issuePath(projectID, issueID int) string {
	return fmt.Sprintf("Issue/%d/%d", projectID, issueID)
}

// attachmentsOrNil keeps an empty list from switching the body to multipart.
func attachmentsOrNil(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	return paths
}

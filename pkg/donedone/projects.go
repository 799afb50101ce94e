package donedone

import (
	"context"
	"fmt"
)

// List returns all projects with the API enabled. withIssues deep-loads
// every project's active issues too.
func (s ProjectsService) List(ctx context.Context, withIssues bool) ([]byte, error) {
	return listProjects(ctx, s, withIssues)
}

func listProjects(ctx context.Context, r Requester, withIssues bool) ([]byte, error) {
	path := "Projects"
	if withIssues {
		path = "Projects/true"
	}
	return get(ctx, r, path)
}

// List returns the priority levels.
func (s PriorityLevelsService) List(ctx context.Context) ([]byte, error) {
	return get(ctx, s, "PriorityLevels")
}

// InProject returns everyone in a project.
func (s PeopleService) InProject(ctx context.Context, projectID int) ([]byte, error) {
	return get(ctx, s, fmt.Sprintf("PeopleInProject/%d", projectID))
}

// ForIssueAssignment returns the people an issue can be assigned to.
func (s PeopleService) ForIssueAssignment(ctx context.Context, projectID, issueID int) ([]byte, error) {
	return get(ctx, s, fmt.Sprintf("PeopleForIssueAssignment/%d/%d", projectID, issueID))
}

// get issues a GET with no body.
func get(ctx context.Context, r Requester, path string) ([]byte, error) {
	return r.Do(ctx, path, nil, nil, false)
}

package donedone

import "context"

// Requester is the dispatch surface the endpoint wrappers depend on.
// *Client implements it; tests substitute a recorder.
type Requester interface {
	Do(ctx context.Context, path string, fields Fields, attachments []string, update bool) ([]byte, error)
}

var _ Requester = (*Client)(nil)

// Service accessors group the endpoint wrappers by resource. Each embeds
// *Client so Client's fields stay reachable.

type ProjectsService struct{ *Client }

type PriorityLevelsService struct{ *Client }

type PeopleService struct{ *Client }

type IssuesService struct{ *Client }

type CommentsService struct{ *Client }

func (c *Client) Projects() ProjectsService {
	return ProjectsService{c}
}

func (c *Client) PriorityLevels() PriorityLevelsService {
	return PriorityLevelsService{c}
}

func (c *Client) People() PeopleService {
	return PeopleService{c}
}

func (c *Client) Issues() IssuesService {
	return IssuesService{c}
}

func (c *Client) Comments() CommentsService {
	return CommentsService{c}
}

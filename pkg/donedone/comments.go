package donedone

import (
	"context"
	"fmt"
)

// CreateCommentInput holds a new comment.
type CreateCommentInput struct {
	Comment       string
	PeopleToCCIDs []int
	Attachments   []string
}

// Fields returns the form fields in wire order.
func (in CreateCommentInput) Fields() Fields {
	return Fields{}.
		Add("comment", in.Comment).
		AddIDs("people_to_cc_ids", in.PeopleToCCIDs)
}

// Create adds a comment to an issue.
func (s CommentsService) Create(ctx context.Context, projectID, issueID int, in CreateCommentInput) ([]byte, error) {
	return createComment(ctx, s, projectID, issueID, in)
}

func createComment(ctx context.Context, r Requester, projectID, issueID int, in CreateCommentInput) ([]byte, error) {
	path := fmt.Sprintf("Comment/%d/%d", projectID, issueID)
	return r.Do(ctx, path, in.Fields(), attachmentsOrNil(in.Attachments), false)
}

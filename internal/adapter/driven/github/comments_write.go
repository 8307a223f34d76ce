package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/reviewdraft/internal/domain/port/driven"
)

// CreateReviewComment posts a single review comment on a pull request.
// Whole-file comments (Line 0) are sent with subject_type "file" and no
// line/side fields. When InReplyTo is set GitHub ignores positional fields,
// so only body and the reply reference are sent.
func (c *Client) CreateReviewComment(ctx context.Context, owner, repo string, number int, req driven.CommentRequest) error {
	comment := &gh.PullRequestComment{
		Body: gh.Ptr(req.Body),
	}

	switch {
	case req.InReplyTo != nil:
		comment.InReplyTo = gh.Ptr(*req.InReplyTo)
	case req.Line == 0:
		comment.CommitID = gh.Ptr(req.CommitID)
		comment.Path = gh.Ptr(req.Path)
		comment.SubjectType = gh.Ptr("file")
	default:
		comment.CommitID = gh.Ptr(req.CommitID)
		comment.Path = gh.Ptr(req.Path)
		comment.Line = gh.Ptr(req.Line)
		comment.Side = gh.Ptr(string(req.Side))
	}

	_, _, err := c.gh.PullRequests.CreateComment(ctx, owner, repo, number, comment)
	if err != nil {
		return fmt.Errorf("creating comment on %s/%s#%d: %w", owner, repo, number, err)
	}

	return nil
}

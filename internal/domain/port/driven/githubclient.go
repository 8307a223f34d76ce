package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/reviewdraft/internal/domain/model"
)

// PullRequestInfo is the subset of pull request state the draft pipeline
// needs from the remote service.
type PullRequestInfo struct {
	HeadSHA string
	Title   string
}

// CommentRequest describes one review comment to post. A zero Line marks a
// whole-file comment (no line/side fields are sent); a non-nil InReplyTo
// posts a threaded reply, in which case GitHub ignores positional fields.
type CommentRequest struct {
	Path      string
	Line      int
	Side      model.Side
	Body      string
	CommitID  string
	InReplyTo *int64
}

// RemoteComment is an existing review comment fetched from the remote
// service. Line is 0 when the comment carried only a legacy diff position
// that could not be resolved against the file's current patch.
type RemoteComment struct {
	ID          int64
	Author      string
	Path        string
	Line        int
	Side        model.Side
	Body        string
	InReplyToID *int64
	CreatedAt   time.Time
}

// GitHubClient defines the driven port for the remote code-hosting service.
type GitHubClient interface {
	// GetPullRequest fetches the current head SHA and title.
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequestInfo, error)

	// CreateReviewComment posts a single review comment.
	CreateReviewComment(ctx context.Context, owner, repo string, number int, req CommentRequest) error

	// FetchReviewComments lists the pull request's existing review comments,
	// converting legacy position-addressed comments to line numbers where the
	// file patch allows it.
	FetchReviewComments(ctx context.Context, owner, repo string, number int) ([]RemoteComment, error)
}

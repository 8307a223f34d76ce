// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/reviewdraft/internal/diff"
	"github.com/ericfisherdev/reviewdraft/internal/domain/model"
	"github.com/ericfisherdev/reviewdraft/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// GetPullRequest fetches the pull request's current head SHA and title.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*driven.PullRequestInfo, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching PR %s/%s#%d: %w", owner, repo, number, err)
	}

	return &driven.PullRequestInfo{
		HeadSHA: pr.GetHead().GetSHA(),
		Title:   pr.GetTitle(),
	}, nil
}

// FetchReviewComments retrieves all review comments for a pull request,
// handling pagination. Comments that carry only a legacy diff position are
// converted to line numbers against the file's current patch; a position
// that cannot be located leaves Line at 0.
func (c *Client) FetchReviewComments(ctx context.Context, owner, repo string, number int) ([]driven.RemoteComment, error) {
	patches, err := c.fetchFilePatches(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}

	opts := &gh.PullRequestListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var all []driven.RemoteComment
	for {
		comments, resp, err := c.gh.PullRequests.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing comments for %s/%s#%d (page %d): %w", owner, repo, number, opts.Page, err)
		}

		for _, comment := range comments {
			all = append(all, mapRemoteComment(comment, patches))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// fetchFilePatches returns the per-file unified diff text for the PR,
// handling pagination.
func (c *Client) fetchFilePatches(ctx context.Context, owner, repo string, number int) (map[string]string, error) {
	opts := &gh.ListOptions{PerPage: 100}
	patches := make(map[string]string)

	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing files for %s/%s#%d (page %d): %w", owner, repo, number, opts.Page, err)
		}

		for _, f := range files {
			if f.GetPatch() != "" {
				patches[f.GetFilename()] = f.GetPatch()
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return patches, nil
}

func mapRemoteComment(comment *gh.PullRequestComment, patches map[string]string) driven.RemoteComment {
	side := model.SideRight
	if comment.GetSide() == string(model.SideLeft) {
		side = model.SideLeft
	}

	line := comment.GetLine()
	if line == 0 {
		// Legacy position-addressed comment: fall back to resolving the
		// position against the file's patch.
		position := comment.GetPosition()
		if position == 0 {
			position = comment.GetOriginalPosition()
		}
		patch := patches[comment.GetPath()]
		if position > 0 && patch != "" {
			resolved, ok := diff.ResolvePosition(patch, position, side)
			if ok {
				line = resolved
			} else {
				slog.Debug("could not resolve diff position",
					"path", comment.GetPath(),
					"position", position,
					"comment_id", comment.GetID(),
				)
			}
		}
	}

	remote := driven.RemoteComment{
		ID:        comment.GetID(),
		Author:    comment.GetUser().GetLogin(),
		Path:      comment.GetPath(),
		Line:      line,
		Side:      side,
		Body:      comment.GetBody(),
		CreatedAt: comment.GetCreatedAt().Time,
	}

	if comment.InReplyTo != nil {
		id := comment.GetInReplyTo()
		remote.InReplyToID = &id
	}

	return remote
}

package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewdraft/internal/application"
	"github.com/ericfisherdev/reviewdraft/internal/domain/model"
	"github.com/ericfisherdev/reviewdraft/internal/domain/port/driven"
)

func newSubmitFixture(t *testing.T) (*fixture, *application.SubmitService) {
	t.Helper()
	f := newFixture(t)
	return f, application.NewSubmitService(f.drafts, f.github, time.Millisecond)
}

func TestSubmit_NoPendingReview(t *testing.T) {
	_, submit := newSubmitFixture(t)

	err := submit.Submit(context.Background(), "octocat", "hello-world", 404)
	require.ErrorIs(t, err, model.ErrNoPendingDraft)
}

func TestSubmit_AllSucceed_FinalizesReview(t *testing.T) {
	f, submit := newSubmitFixture(t)
	ctx := context.Background()

	draft, err := f.drafts.StartReview(ctx, "octocat", "hello-world", 7, "abc123", "", "")
	require.NoError(t, err)
	_, err = f.drafts.AddComment(ctx, "octocat", "hello-world", 7, "alpha.go", 2, model.SideRight, "first", "abc123", nil)
	require.NoError(t, err)
	_, err = f.drafts.AddComment(ctx, "octocat", "hello-world", 7, "main.go", 0, model.SideRight, "whole file note", "abc123", nil)
	require.NoError(t, err)

	require.NoError(t, submit.Submit(ctx, "octocat", "hello-world", 7))

	// Both comments went out in stable file/line order.
	require.Len(t, f.github.requests, 2)
	assert.Equal(t, "alpha.go", f.github.requests[0].Path)
	assert.Equal(t, 0, f.github.requests[1].Line)

	// Terminal state: metadata gone, log frozen with SUBMITTED first.
	gone, err := f.drafts.GetReviewMetadata(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	assert.Nil(t, gone)

	content := f.readLog(t, draft)
	assert.Contains(t, strings.SplitN(content, "\n", 2)[0], "SUBMITTED")
}

func TestSubmit_PartialFailure_KeepsFailedCommentOpen(t *testing.T) {
	f, submit := newSubmitFixture(t)
	ctx := context.Background()

	_, err := f.drafts.AddComment(ctx, "octocat", "hello-world", 7, "a.go", 1, model.SideRight, "ok one", "abc123", nil)
	require.NoError(t, err)
	_, err = f.drafts.AddComment(ctx, "octocat", "hello-world", 7, "b.go", 12, model.SideRight, "rejected", "abc123", nil)
	require.NoError(t, err)
	_, err = f.drafts.AddComment(ctx, "octocat", "hello-world", 7, "c.go", 3, model.SideRight, "ok two", "abc123", nil)
	require.NoError(t, err)

	f.github.postErr = func(req driven.CommentRequest) error {
		if req.Path == "b.go" {
			return errors.New("422 Validation Failed")
		}
		return nil
	}

	err = submit.Submit(ctx, "octocat", "hello-world", 7)
	require.Error(t, err)
	// The aggregate error names the failed file/line.
	assert.Contains(t, err.Error(), "b.go:12")
	assert.Contains(t, err.Error(), "submitted 2 of 3 comments")

	// Only the failed comment remains; the review stays open for retry.
	remaining, err := f.drafts.GetComments(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "b.go", remaining[0].FilePath)

	draft, err := f.drafts.GetReviewMetadata(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	require.NotNil(t, draft)

	// The log was not frozen: it still starts with the normal header.
	content := f.readLog(t, draft)
	assert.True(t, strings.HasPrefix(content, "# Review for PR #7"))
}

func TestSubmit_AllFail_NothingRemoved(t *testing.T) {
	f, submit := newSubmitFixture(t)
	ctx := context.Background()

	_, err := f.drafts.AddComment(ctx, "octocat", "hello-world", 7, "a.go", 1, model.SideRight, "one", "abc123", nil)
	require.NoError(t, err)
	_, err = f.drafts.AddComment(ctx, "octocat", "hello-world", 7, "b.go", 2, model.SideRight, "two", "abc123", nil)
	require.NoError(t, err)

	f.github.postErr = func(driven.CommentRequest) error {
		return errors.New("connection reset")
	}

	err = submit.Submit(ctx, "octocat", "hello-world", 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submitted 0 of 2 comments")

	remaining, err := f.drafts.GetComments(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestSubmit_CommitDrift_UsesCurrentHead(t *testing.T) {
	f, submit := newSubmitFixture(t)
	ctx := context.Background()

	_, err := f.drafts.AddComment(ctx, "octocat", "hello-world", 7, "a.go", 1, model.SideRight, "one", "stale00", nil)
	require.NoError(t, err)
	// The remote head has moved past the commit the draft captured.
	f.github.info = &driven.PullRequestInfo{HeadSHA: "head999", Title: "Add widget support"}
	// Keep the draft open so the recorded commit can be inspected.
	f.github.postErr = func(driven.CommentRequest) error {
		return errors.New("boom")
	}

	err = submit.Submit(ctx, "octocat", "hello-world", 7)
	require.Error(t, err)

	require.Len(t, f.github.requests, 1)
	assert.Equal(t, "head999", f.github.requests[0].CommitID)

	draft, err := f.drafts.GetReviewMetadata(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	assert.Equal(t, "head999", draft.CommitID)
}

func TestSubmit_HeadFetchFailureAbortsBeforePosting(t *testing.T) {
	f, submit := newSubmitFixture(t)
	ctx := context.Background()

	_, err := f.drafts.AddComment(ctx, "octocat", "hello-world", 7, "a.go", 1, model.SideRight, "one", "abc123", nil)
	require.NoError(t, err)

	f.github.infoErr = errors.New("dns failure")

	err = submit.Submit(ctx, "octocat", "hello-world", 7)
	require.Error(t, err)
	assert.Empty(t, f.github.requests)

	remaining, err := f.drafts.GetComments(ctx, "octocat", "hello-world", 7)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestSubmit_ThreadedReplyCarriesParent(t *testing.T) {
	f, submit := newSubmitFixture(t)
	ctx := context.Background()

	parentID := int64(987654)
	_, err := f.drafts.AddComment(ctx, "octocat", "hello-world", 7, "a.go", 1, model.SideRight, "agreed", "abc123", &parentID)
	require.NoError(t, err)

	require.NoError(t, submit.Submit(ctx, "octocat", "hello-world", 7))

	require.Len(t, f.github.requests, 1)
	require.NotNil(t, f.github.requests[0].InReplyTo)
	assert.Equal(t, parentID, *f.github.requests[0].InReplyTo)
}

package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/reviewdraft/internal/domain/model"
	"github.com/ericfisherdev/reviewdraft/internal/domain/port/driven"
)

// DefaultSubmitDelay is the pause inserted before every comment submission
// except the first. GitHub rejects rapid-fire comment creation with a "was
// submitted too quickly" error, so comments go out one call at a time.
const DefaultSubmitDelay = 600 * time.Millisecond

// SubmitService moves a completed local draft to GitHub comment by comment,
// tolerating partial failure: each comment's outcome is recorded
// independently, succeeded comments are hard-deleted (log-preserving), and
// the draft stays open for retry while any comment remains.
type SubmitService struct {
	drafts *DraftService
	github driven.GitHubClient
	delay  time.Duration
}

// NewSubmitService creates a new SubmitService. A non-positive delay falls
// back to DefaultSubmitDelay.
func NewSubmitService(drafts *DraftService, github driven.GitHubClient, delay time.Duration) *SubmitService {
	if delay <= 0 {
		delay = DefaultSubmitDelay
	}
	return &SubmitService{
		drafts: drafts,
		github: github,
		delay:  delay,
	}
}

// Submit drains the draft's active comments to GitHub. Per-comment network
// and rejection failures do not abort the pass; they are aggregated and
// returned at the end, naming each failed file/line. Database errors during
// the finalization sweep are fatal. Already-posted comments are never
// compensated: a retried pass may repost a comment GitHub already has, an
// accepted risk.
func (s *SubmitService) Submit(ctx context.Context, owner, repo string, prNumber int) error {
	draft, err := s.drafts.GetReviewMetadata(ctx, owner, repo, prNumber)
	if err != nil {
		return err
	}
	if draft == nil {
		return fmt.Errorf("%s/%s#%d: %w", owner, repo, prNumber, model.ErrNoPendingDraft)
	}

	comments, err := s.drafts.GetComments(ctx, owner, repo, prNumber)
	if err != nil {
		return err
	}

	info, err := s.github.GetPullRequest(ctx, owner, repo, prNumber)
	if err != nil {
		return fmt.Errorf("fetching current head before submit: %w", err)
	}

	// GitHub rejects comments anchored to a commit that is no longer part of
	// the pull request's history, so a drifted draft submits against the
	// current head. Line anchors may land off-target if the diff changed in
	// between; submission success wins over positional fidelity.
	commitID := draft.CommitID
	if info.HeadSHA != "" && info.HeadSHA != draft.CommitID {
		slog.Warn("pull request head moved since draft was started; submitting against current head",
			"key", draft.Key(),
			"draft_commit", draft.CommitID,
			"head_commit", info.HeadSHA,
		)
		commitID = info.HeadSHA
		if _, err := s.drafts.UpdateReviewCommit(ctx, owner, repo, prNumber, commitID); err != nil {
			return fmt.Errorf("recording new anchor commit: %w", err)
		}
	}

	slog.Info("submitting draft review", "key", draft.Key(), "comments", len(comments))

	var succeeded []int64
	var failures []string
	for i, comment := range comments {
		if i > 0 {
			time.Sleep(s.delay)
		}

		req := driven.CommentRequest{
			Path:      comment.FilePath,
			Line:      comment.Line,
			Side:      comment.Side,
			Body:      comment.Body,
			CommitID:  commitID,
			InReplyTo: comment.InReplyToID,
		}

		if err := s.github.CreateReviewComment(ctx, owner, repo, prNumber, req); err != nil {
			failure := fmt.Sprintf("%s:%d: %v", comment.FilePath, comment.Line, err)
			slog.Warn("comment submission failed", "key", draft.Key(), "file", comment.FilePath, "line", comment.Line, "error", err)
			failures = append(failures, failure)
			continue
		}

		succeeded = append(succeeded, comment.ID)
	}

	// Succeeded comments are removed without rewriting the log, keeping it
	// as the permanent record of what was sent.
	for _, id := range succeeded {
		if err := s.drafts.DeleteCommentPreserveLog(ctx, id); err != nil {
			return fmt.Errorf("removing submitted comment %d: %w", id, err)
		}
	}

	remaining, err := s.drafts.store.CountActiveComments(ctx, owner, repo, prNumber)
	if err != nil {
		return fmt.Errorf("counting remaining comments: %w", err)
	}

	if remaining == 0 {
		if err := s.drafts.MarkReviewSubmitted(ctx, owner, repo, prNumber, info.Title); err != nil {
			return fmt.Errorf("finalizing submitted review: %w", err)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("submitted %d of %d comments; failed:\n%s",
			len(succeeded), len(comments), strings.Join(failures, "\n"))
	}

	slog.Info("draft review submitted", "key", draft.Key(), "comments", len(succeeded))
	return nil
}

// Package application contains the orchestration services that sit between
// the command layer and the driven ports: DraftService keeps the database
// and the log mirror in step through every draft mutation, and SubmitService
// drains a finished draft to GitHub.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/reviewdraft/internal/domain/model"
	"github.com/ericfisherdev/reviewdraft/internal/domain/port/driven"
)

// DraftService owns the draft review lifecycle. Every mutation commits to
// the store first and then rewrites the log mirror; the two are not
// transactional, so a crash in between leaves the log one state behind
// until the next mutation.
type DraftService struct {
	store  driven.DraftStore
	log    driven.DraftLog
	github driven.GitHubClient // May be nil; titles degrade to unknown.

	mu     sync.Mutex
	titles map[string]string // Key() -> remote title, "" when unknown.
}

// NewDraftService creates a new DraftService. github may be nil, in which
// case log headers omit the pull request title.
func NewDraftService(store driven.DraftStore, log driven.DraftLog, github driven.GitHubClient) *DraftService {
	return &DraftService{
		store:  store,
		log:    log,
		github: github,
		titles: make(map[string]string),
	}
}

// StartReview returns the existing draft for the key or creates one. An
// existing draft is returned unchanged except that a non-empty localFolder
// differing from the stored value is updated in place; commit id and
// creation time are never touched. A new draft gets the first log-file
// index with no file on disk, so a frozen log from an earlier cycle of the
// same key is never overwritten.
func (s *DraftService) StartReview(ctx context.Context, owner, repo string, prNumber int, commitID, body, localFolder string) (*model.Draft, error) {
	existing, err := s.store.GetDraft(ctx, owner, repo, prNumber)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if localFolder != "" && existing.LocalFolder != localFolder {
			if err := s.store.UpdateLocalFolder(ctx, owner, repo, prNumber, localFolder); err != nil {
				return nil, err
			}
			existing.LocalFolder = localFolder
			if err := s.render(ctx, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	draft := model.Draft{
		Owner:       owner,
		Repo:        repo,
		PRNumber:    prNumber,
		CommitID:    commitID,
		Body:        body,
		LocalFolder: localFolder,
		// Second precision, so the stored RFC3339 value round-trips unchanged.
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	draft.LogFileIndex, err = s.log.NextIndex(draft)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateDraft(ctx, draft); err != nil {
		// A concurrent caller can win the insert between the read above and
		// this point; the winner's row is the draft for this key.
		if winner, getErr := s.store.GetDraft(ctx, owner, repo, prNumber); getErr == nil && winner != nil {
			return winner, nil
		}
		return nil, err
	}
	slog.Info("draft review started", "key", draft.Key(), "commit", commitID, "log_index", draft.LogFileIndex)

	if err := s.render(ctx, &draft); err != nil {
		return nil, err
	}

	return &draft, nil
}

// UpdateReviewCommit moves an existing draft onto a new anchor commit, used
// when the remote head has advanced past the commit the draft was built
// against. Returns ErrDraftNotFound when no draft exists for the key.
func (s *DraftService) UpdateReviewCommit(ctx context.Context, owner, repo string, prNumber int, commitID string) (*model.Draft, error) {
	affected, err := s.store.UpdateDraftCommit(ctx, owner, repo, prNumber, commitID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%s/%s#%d: %w", owner, repo, prNumber, model.ErrDraftNotFound)
	}

	draft, err := s.store.GetDraft(ctx, owner, repo, prNumber)
	if err != nil {
		return nil, err
	}

	if err := s.render(ctx, draft); err != nil {
		return nil, err
	}

	return draft, nil
}

// AddComment inserts a new comment, creating the draft metadata on first
// use. Callers translate "no specific line selected" to line 0 (whole-file)
// before calling. inReplyTo references a remote comment ID for threaded
// replies.
func (s *DraftService) AddComment(ctx context.Context, owner, repo string, prNumber int, path string, line int, side model.Side, body, commitID string, inReplyTo *int64) (*model.DraftComment, error) {
	draft, err := s.StartReview(ctx, owner, repo, prNumber, commitID, "", "")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	comment := model.DraftComment{
		Owner:       owner,
		Repo:        repo,
		PRNumber:    prNumber,
		FilePath:    path,
		Line:        line,
		Side:        side,
		Body:        body,
		CommitID:    commitID,
		Status:      model.CommentActive,
		InReplyToID: inReplyTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	comment.ID, err = s.store.InsertComment(ctx, comment)
	if err != nil {
		return nil, err
	}

	if err := s.render(ctx, draft); err != nil {
		return nil, err
	}

	return &comment, nil
}

// UpdateComment replaces a comment's body and rewrites the owning draft's log.
func (s *DraftService) UpdateComment(ctx context.Context, id int64, body string) (*model.DraftComment, error) {
	if err := s.store.UpdateCommentBody(ctx, id, body); err != nil {
		return nil, err
	}

	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, fmt.Errorf("comment %d: %w", id, model.ErrCommentNotFound)
	}

	if err := s.renderKey(ctx, comment.Owner, comment.Repo, comment.PRNumber); err != nil {
		return nil, err
	}

	return comment, nil
}

// DeleteComment soft-deletes a comment. The row is retained and keeps
// appearing in the log with a DELETED marker; reads exclude it.
func (s *DraftService) DeleteComment(ctx context.Context, id int64) error {
	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if comment == nil {
		return fmt.Errorf("comment %d: %w", id, model.ErrCommentNotFound)
	}

	if err := s.store.SoftDeleteComment(ctx, id); err != nil {
		return err
	}

	return s.renderKey(ctx, comment.Owner, comment.Repo, comment.PRNumber)
}

// DeleteCommentPreserveLog hard-deletes a comment without rewriting the
// log, so the log remains the permanent record of what was sent. Used only
// after the remote API has durably accepted the comment.
func (s *DraftService) DeleteCommentPreserveLog(ctx context.Context, id int64) error {
	return s.store.HardDeleteComment(ctx, id)
}

// UpdateCommentFilePath renames the file path on all active comments
// matching oldPath. The log is rewritten once when any row changed and not
// at all when none matched.
func (s *DraftService) UpdateCommentFilePath(ctx context.Context, owner, repo string, prNumber int, oldPath, newPath string) (int64, error) {
	affected, err := s.store.RenameCommentPath(ctx, owner, repo, prNumber, oldPath, newPath)
	if err != nil {
		return 0, err
	}

	if affected > 0 {
		if err := s.renderKey(ctx, owner, repo, prNumber); err != nil {
			return affected, err
		}
	}

	return affected, nil
}

// GetComments returns the draft's active comments in file/line order.
func (s *DraftService) GetComments(ctx context.Context, owner, repo string, prNumber int) ([]model.DraftComment, error) {
	return s.store.ListActiveComments(ctx, owner, repo, prNumber)
}

// GetReviewMetadata returns the draft for the key, or nil if none exists.
func (s *DraftService) GetReviewMetadata(ctx context.Context, owner, repo string, prNumber int) (*model.Draft, error) {
	return s.store.GetDraft(ctx, owner, repo, prNumber)
}

// GetAllReviewMetadata returns every pending draft.
func (s *DraftService) GetAllReviewMetadata(ctx context.Context) ([]model.Draft, error) {
	return s.store.ListDrafts(ctx)
}

// GetRemoteComments lists the review comments already published on the pull
// request. Legacy position-addressed comments arrive with their position
// resolved to a line number; an unresolvable position leaves Line at 0.
func (s *DraftService) GetRemoteComments(ctx context.Context, owner, repo string, prNumber int) ([]driven.RemoteComment, error) {
	if s.github == nil {
		return nil, fmt.Errorf("listing remote comments requires a GitHub token")
	}
	return s.github.FetchReviewComments(ctx, owner, repo, prNumber)
}

// AbandonReview freezes the draft's log with an ABANDONED header and
// deletes the metadata row. A missing draft is a no-op.
func (s *DraftService) AbandonReview(ctx context.Context, owner, repo string, prNumber int) error {
	return s.finalize(ctx, owner, repo, prNumber, driven.FreezeAbandoned, "")
}

// ClearReview freezes the log with a DELETED (NOT SUBMITTED) header and
// deletes the metadata row; used when the user discards a review.
func (s *DraftService) ClearReview(ctx context.Context, owner, repo string, prNumber int, title string) error {
	return s.finalize(ctx, owner, repo, prNumber, driven.FreezeCleared, title)
}

// MarkReviewSubmitted freezes the log with a SUBMITTED header and deletes
// the metadata row. Called by SubmitService once zero active comments remain.
func (s *DraftService) MarkReviewSubmitted(ctx context.Context, owner, repo string, prNumber int, title string) error {
	return s.finalize(ctx, owner, repo, prNumber, driven.FreezeSubmitted, title)
}

func (s *DraftService) finalize(ctx context.Context, owner, repo string, prNumber int, marker driven.FreezeMarker, title string) error {
	draft, err := s.store.GetDraft(ctx, owner, repo, prNumber)
	if err != nil {
		return err
	}
	if draft == nil {
		return nil
	}

	if title == "" {
		title = s.title(ctx, draft)
	}

	if err := s.log.Freeze(*draft, marker, title); err != nil {
		return err
	}

	if err := s.store.DeleteDraft(ctx, owner, repo, prNumber); err != nil {
		return err
	}

	slog.Info("draft review finalized", "key", draft.Key(), "outcome", string(marker))
	return nil
}

func (s *DraftService) renderKey(ctx context.Context, owner, repo string, prNumber int) error {
	draft, err := s.store.GetDraft(ctx, owner, repo, prNumber)
	if err != nil {
		return err
	}
	if draft == nil {
		return nil
	}
	return s.render(ctx, draft)
}

func (s *DraftService) render(ctx context.Context, draft *model.Draft) error {
	comments, err := s.store.ListAllComments(ctx, draft.Owner, draft.Repo, draft.PRNumber)
	if err != nil {
		return err
	}

	return s.log.Render(*draft, comments, s.title(ctx, draft))
}

// title returns the cached remote title for the draft, fetching it once per
// key. Fetch failures are tolerated as "unknown title" and cached so a dead
// network does not slow down every mutation.
func (s *DraftService) title(ctx context.Context, draft *model.Draft) string {
	if draft.IsLocal() || s.github == nil {
		return ""
	}

	s.mu.Lock()
	title, ok := s.titles[draft.Key()]
	s.mu.Unlock()
	if ok {
		return title
	}

	info, err := s.github.GetPullRequest(ctx, draft.Owner, draft.Repo, draft.PRNumber)
	if err != nil {
		slog.Warn("could not fetch pull request title", "key", draft.Key(), "error", err)
		title = ""
	} else {
		title = info.Title
	}

	s.mu.Lock()
	s.titles[draft.Key()] = title
	s.mu.Unlock()

	return title
}

package driven

import (
	"context"

	"github.com/ericfisherdev/reviewdraft/internal/domain/model"
)

// DraftStore defines the driven port for persisting draft reviews and their
// comments. Implementations own the embedded database; log mirroring is the
// application layer's responsibility and happens after each mutation.
type DraftStore interface {
	// GetDraft returns the draft for the key, or nil if none exists.
	GetDraft(ctx context.Context, owner, repo string, prNumber int) (*model.Draft, error)

	// ListDrafts returns every pending draft.
	ListDrafts(ctx context.Context) ([]model.Draft, error)

	// CreateDraft inserts a new draft row. The caller assigns LogFileIndex.
	CreateDraft(ctx context.Context, draft model.Draft) error

	// UpdateLocalFolder changes the stored local folder path for an existing
	// draft. This is the only field mutable through StartReview.
	UpdateLocalFolder(ctx context.Context, owner, repo string, prNumber int, localFolder string) error

	// UpdateDraftCommit sets a new anchor commit on an existing draft and
	// returns the number of rows affected (0 when the draft does not exist).
	UpdateDraftCommit(ctx context.Context, owner, repo string, prNumber int, commitID string) (int64, error)

	// DeleteDraft removes the metadata row. Comments cascade.
	DeleteDraft(ctx context.Context, owner, repo string, prNumber int) error

	// InsertComment inserts a new comment row and returns its assigned ID.
	InsertComment(ctx context.Context, comment model.DraftComment) (int64, error)

	// GetComment returns the comment with the given ID, or nil if none exists.
	GetComment(ctx context.Context, id int64) (*model.DraftComment, error)

	// UpdateCommentBody replaces the body and bumps updated_at.
	UpdateCommentBody(ctx context.Context, id int64, body string) error

	// SoftDeleteComment marks the comment deleted; the row is retained so the
	// log mirror can keep rendering it.
	SoftDeleteComment(ctx context.Context, id int64) error

	// HardDeleteComment physically removes the row. Used only after the
	// remote API has durably accepted the comment.
	HardDeleteComment(ctx context.Context, id int64) error

	// RenameCommentPath bulk-renames the file path on all active comments
	// matching oldPath and returns the number of rows affected.
	RenameCommentPath(ctx context.Context, owner, repo string, prNumber int, oldPath, newPath string) (int64, error)

	// ListActiveComments returns non-deleted comments ordered by file path
	// then line number.
	ListActiveComments(ctx context.Context, owner, repo string, prNumber int) ([]model.DraftComment, error)

	// ListAllComments returns every comment including soft-deleted ones, in
	// the same order. Used by the log mirror.
	ListAllComments(ctx context.Context, owner, repo string, prNumber int) ([]model.DraftComment, error)

	// CountActiveComments returns the number of non-deleted comments.
	CountActiveComments(ctx context.Context, owner, repo string, prNumber int) (int, error)
}

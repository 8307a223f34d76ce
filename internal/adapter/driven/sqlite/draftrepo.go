package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ericfisherdev/reviewdraft/internal/domain/model"
	"github.com/ericfisherdev/reviewdraft/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DraftStore = (*DraftRepo)(nil)

// DraftRepo is the SQLite implementation of the DraftStore port interface.
type DraftRepo struct {
	db *DB
}

// NewDraftRepo creates a new DraftRepo backed by the given DB.
func NewDraftRepo(db *DB) *DraftRepo {
	return &DraftRepo{db: db}
}

const draftColumns = `owner, repo, pr_number, commit_id, body, local_folder, created_at, log_file_index`

// GetDraft returns the draft for the key, or nil if none exists.
func (r *DraftRepo) GetDraft(ctx context.Context, owner, repo string, prNumber int) (*model.Draft, error) {
	const query = `
		SELECT ` + draftColumns + `
		FROM review_drafts
		WHERE owner = ? AND repo = ? AND pr_number = ?
	`

	row := r.db.Reader.QueryRowContext(ctx, query, owner, repo, prNumber)
	draft, err := scanDraft(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query draft %s/%s#%d: %w", owner, repo, prNumber, err)
	}

	return draft, nil
}

// ListDrafts returns every pending draft ordered by creation time.
func (r *DraftRepo) ListDrafts(ctx context.Context) ([]model.Draft, error) {
	const query = `
		SELECT ` + draftColumns + `
		FROM review_drafts
		ORDER BY created_at
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []model.Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		drafts = append(drafts, *draft)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drafts: %w", err)
	}

	return drafts, nil
}

// CreateDraft inserts a new draft row.
func (r *DraftRepo) CreateDraft(ctx context.Context, draft model.Draft) error {
	const query = `
		INSERT INTO review_drafts (owner, repo, pr_number, commit_id, body, local_folder, created_at, log_file_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		draft.Owner, draft.Repo, draft.PRNumber, draft.CommitID,
		nullString(draft.Body), nullString(draft.LocalFolder),
		formatTime(draft.CreatedAt), draft.LogFileIndex,
	)
	if err != nil {
		return fmt.Errorf("insert draft %s: %w", draft.Key(), err)
	}

	return nil
}

// UpdateLocalFolder changes the stored local folder path for an existing draft.
func (r *DraftRepo) UpdateLocalFolder(ctx context.Context, owner, repo string, prNumber int, localFolder string) error {
	const query = `
		UPDATE review_drafts SET local_folder = ?
		WHERE owner = ? AND repo = ? AND pr_number = ?
	`

	_, err := r.db.Writer.ExecContext(ctx, query, nullString(localFolder), owner, repo, prNumber)
	if err != nil {
		return fmt.Errorf("update local folder for %s/%s#%d: %w", owner, repo, prNumber, err)
	}

	return nil
}

// UpdateDraftCommit sets a new anchor commit and returns the rows affected.
func (r *DraftRepo) UpdateDraftCommit(ctx context.Context, owner, repo string, prNumber int, commitID string) (int64, error) {
	const query = `
		UPDATE review_drafts SET commit_id = ?
		WHERE owner = ? AND repo = ? AND pr_number = ?
	`

	res, err := r.db.Writer.ExecContext(ctx, query, commitID, owner, repo, prNumber)
	if err != nil {
		return 0, fmt.Errorf("update commit for %s/%s#%d: %w", owner, repo, prNumber, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return affected, nil
}

// DeleteDraft removes the metadata row; comment rows cascade.
func (r *DraftRepo) DeleteDraft(ctx context.Context, owner, repo string, prNumber int) error {
	const query = `DELETE FROM review_drafts WHERE owner = ? AND repo = ? AND pr_number = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, owner, repo, prNumber)
	if err != nil {
		return fmt.Errorf("delete draft %s/%s#%d: %w", owner, repo, prNumber, err)
	}

	return nil
}

// InsertComment inserts a new comment row and returns its assigned ID.
func (r *DraftRepo) InsertComment(ctx context.Context, comment model.DraftComment) (int64, error) {
	const query = `
		INSERT INTO draft_comments (
			owner, repo, pr_number, file_path, line, side, body, commit_id,
			status, in_reply_to_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var inReplyToID any
	if comment.InReplyToID != nil {
		inReplyToID = *comment.InReplyToID
	}

	res, err := r.db.Writer.ExecContext(ctx, query,
		comment.Owner, comment.Repo, comment.PRNumber,
		comment.FilePath, comment.Line, string(comment.Side), comment.Body, comment.CommitID,
		string(model.CommentActive), inReplyToID,
		formatTime(comment.CreatedAt), formatTime(comment.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert comment for %s/%s#%d: %w", comment.Owner, comment.Repo, comment.PRNumber, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	return id, nil
}

const commentColumns = `id, owner, repo, pr_number, file_path, line, side, body, commit_id,
		       status, in_reply_to_id, created_at, updated_at`

// GetComment returns the comment with the given ID, or nil if none exists.
func (r *DraftRepo) GetComment(ctx context.Context, id int64) (*model.DraftComment, error) {
	const query = `
		SELECT ` + commentColumns + `
		FROM draft_comments
		WHERE id = ?
	`

	row := r.db.Reader.QueryRowContext(ctx, query, id)
	comment, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query comment %d: %w", id, err)
	}

	return comment, nil
}

// UpdateCommentBody replaces the body and bumps updated_at.
func (r *DraftRepo) UpdateCommentBody(ctx context.Context, id int64, body string) error {
	const query = `UPDATE draft_comments SET body = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, body, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("update comment %d: %w", id, err)
	}

	return nil
}

// SoftDeleteComment marks the comment deleted; the row is retained for the log mirror.
func (r *DraftRepo) SoftDeleteComment(ctx context.Context, id int64) error {
	const query = `UPDATE draft_comments SET status = ? WHERE id = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, string(model.CommentSoftDeleted), id)
	if err != nil {
		return fmt.Errorf("soft delete comment %d: %w", id, err)
	}

	return nil
}

// HardDeleteComment physically removes the row.
func (r *DraftRepo) HardDeleteComment(ctx context.Context, id int64) error {
	const query = `DELETE FROM draft_comments WHERE id = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("hard delete comment %d: %w", id, err)
	}

	return nil
}

// RenameCommentPath bulk-renames the file path on all active comments
// matching oldPath and returns the number of rows affected.
func (r *DraftRepo) RenameCommentPath(ctx context.Context, owner, repo string, prNumber int, oldPath, newPath string) (int64, error) {
	const query = `
		UPDATE draft_comments SET file_path = ?, updated_at = ?
		WHERE owner = ? AND repo = ? AND pr_number = ? AND file_path = ? AND status = ?
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		newPath, formatTime(time.Now().UTC()),
		owner, repo, prNumber, oldPath, string(model.CommentActive),
	)
	if err != nil {
		return 0, fmt.Errorf("rename comment path for %s/%s#%d: %w", owner, repo, prNumber, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return affected, nil
}

// ListActiveComments returns non-deleted comments ordered by file path then line.
func (r *DraftRepo) ListActiveComments(ctx context.Context, owner, repo string, prNumber int) ([]model.DraftComment, error) {
	const query = `
		SELECT ` + commentColumns + `
		FROM draft_comments
		WHERE owner = ? AND repo = ? AND pr_number = ? AND status = ?
		ORDER BY file_path, line, id
	`

	return r.queryComments(ctx, query, owner, repo, prNumber, string(model.CommentActive))
}

// ListAllComments returns every comment including soft-deleted ones.
func (r *DraftRepo) ListAllComments(ctx context.Context, owner, repo string, prNumber int) ([]model.DraftComment, error) {
	const query = `
		SELECT ` + commentColumns + `
		FROM draft_comments
		WHERE owner = ? AND repo = ? AND pr_number = ?
		ORDER BY file_path, line, id
	`

	return r.queryComments(ctx, query, owner, repo, prNumber)
}

// CountActiveComments returns the number of non-deleted comments for the key.
func (r *DraftRepo) CountActiveComments(ctx context.Context, owner, repo string, prNumber int) (int, error) {
	const query = `
		SELECT COUNT(*) FROM draft_comments
		WHERE owner = ? AND repo = ? AND pr_number = ? AND status = ?
	`

	var count int
	err := r.db.Reader.QueryRowContext(ctx, query, owner, repo, prNumber, string(model.CommentActive)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count comments for %s/%s#%d: %w", owner, repo, prNumber, err)
	}

	return count, nil
}

func (r *DraftRepo) queryComments(ctx context.Context, query string, args ...any) ([]model.DraftComment, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []model.DraftComment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(s scanner) (*model.Draft, error) {
	var draft model.Draft
	var body, localFolder sql.NullString
	var createdAt string

	err := s.Scan(
		&draft.Owner, &draft.Repo, &draft.PRNumber, &draft.CommitID,
		&body, &localFolder, &createdAt, &draft.LogFileIndex,
	)
	if err != nil {
		return nil, err
	}

	draft.Body = body.String
	draft.LocalFolder = localFolder.String

	draft.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &draft, nil
}

func scanComment(s scanner) (*model.DraftComment, error) {
	var comment model.DraftComment
	var side, status string
	var inReplyToID sql.NullInt64
	var createdAt, updatedAt string

	err := s.Scan(
		&comment.ID, &comment.Owner, &comment.Repo, &comment.PRNumber,
		&comment.FilePath, &comment.Line, &side, &comment.Body, &comment.CommitID,
		&status, &inReplyToID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	comment.Side = model.Side(side)
	comment.Status = model.CommentStatus(status)

	if inReplyToID.Valid {
		id := inReplyToID.Int64
		comment.InReplyToID = &id
	}

	comment.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	comment.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &comment, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}

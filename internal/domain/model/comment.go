package model

import "time"

// Side identifies which version of the file a comment is anchored to.
type Side string

const (
	// SideLeft is the base (original) version of the file.
	SideLeft Side = "LEFT"
	// SideRight is the head (new) version of the file.
	SideRight Side = "RIGHT"
)

// CommentStatus is the lifecycle state of a draft comment. Soft-deleted
// comments are excluded from reads but remain in the database so the log
// mirror can still render them with a DELETED marker. Hard deletion (after
// the remote API has durably accepted a comment) removes the row entirely.
type CommentStatus string

const (
	CommentActive      CommentStatus = "active"
	CommentSoftDeleted CommentStatus = "deleted"
)

// WholeFileLine is the sentinel line number for a comment that applies to a
// file as a whole rather than a specific line.
const WholeFileLine = 0

// DraftComment is a single pending review comment belonging to one Draft.
type DraftComment struct {
	ID          int64
	Owner       string
	Repo        string
	PRNumber    int
	FilePath    string
	Line        int // WholeFileLine (0) means the comment targets the whole file.
	Side        Side
	Body        string
	CommitID    string // Head SHA the comment was authored against.
	Status      CommentStatus
	InReplyToID *int64 // Remote comment ID this replies to, if threaded.
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsWholeFile reports whether the comment targets the whole file.
func (c DraftComment) IsWholeFile() bool {
	return c.Line == WholeFileLine
}

// IsDeleted reports whether the comment has been soft-deleted.
func (c DraftComment) IsDeleted() bool {
	return c.Status == CommentSoftDeleted
}

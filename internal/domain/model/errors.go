package model

import "errors"

// Sentinel errors surfaced by the store and application layers. Callers use
// errors.Is; adapters wrap them with key context via fmt.Errorf and %w.
var (
	// ErrDraftNotFound indicates no draft metadata exists for the key.
	ErrDraftNotFound = errors.New("draft review not found")

	// ErrCommentNotFound indicates no comment exists with the given ID.
	ErrCommentNotFound = errors.New("draft comment not found")

	// ErrNoPendingDraft indicates a submission was requested for a key with
	// no pending draft review.
	ErrNoPendingDraft = errors.New("no pending draft review")
)

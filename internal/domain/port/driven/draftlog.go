package driven

import (
	"github.com/ericfisherdev/reviewdraft/internal/domain/model"
)

// FreezeMarker names the terminal state written into a log's frozen header.
type FreezeMarker string

const (
	FreezeAbandoned FreezeMarker = "ABANDONED"
	FreezeCleared   FreezeMarker = "DELETED (NOT SUBMITTED TO GITHUB)"
	FreezeSubmitted FreezeMarker = "SUBMITTED"
)

// DraftLog defines the driven port for the human-readable log mirror. Render
// is a full-file overwrite of the current draft state and is idempotent;
// Freeze prepends a one-time header after which the file is never rewritten
// (the metadata row is deleted right after, so no further renders occur for
// that key and index).
type DraftLog interface {
	// Render overwrites the log file with the current state of the draft.
	// Soft-deleted comments are rendered with a DELETED marker; title may be
	// empty when the remote title is unknown.
	Render(draft model.Draft, comments []model.DraftComment, title string) error

	// Freeze prepends a terminal header to the existing log content. Missing
	// log files are left untouched.
	Freeze(draft model.Draft, marker FreezeMarker, title string) error

	// NextIndex probes candidate filenames for the draft's key and returns
	// the first index whose log file does not exist on disk yet.
	NextIndex(draft model.Draft) (int, error)

	// Path returns the log file path for the draft at its current index.
	Path(draft model.Draft) string
}

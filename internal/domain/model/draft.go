package model

import (
	"fmt"
	"time"
)

// Draft is the metadata row for one in-progress review, keyed by
// (owner, repo, pr number). It is created lazily on the first StartReview
// or first comment add, and deleted when the review reaches a terminal
// state (abandoned, cleared, or fully submitted).
type Draft struct {
	Owner       string
	Repo        string
	PRNumber    int
	CommitID    string // Head SHA the draft was started against.
	Body        string // Optional overall review body; "" means none.
	LocalFolder string // Optional; set for local (non-PR) review mode.
	CreatedAt   time.Time

	// LogFileIndex disambiguates the mirror log filename so a frozen log
	// from a previous review cycle of the same key is never overwritten.
	LogFileIndex int
}

// Key returns the "owner/repo#number" identifier used in logs and caches.
func (d Draft) Key() string {
	return fmt.Sprintf("%s/%s#%d", d.Owner, d.Repo, d.PRNumber)
}

// URL returns the GitHub permalink for the pull request.
func (d Draft) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s/pull/%d", d.Owner, d.Repo, d.PRNumber)
}

// IsLocal reports whether this draft reviews a local folder instead of a
// remote pull request.
func (d Draft) IsLocal() bool {
	return d.LocalFolder != ""
}

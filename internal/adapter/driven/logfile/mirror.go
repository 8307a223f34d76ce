// Package logfile renders the human-readable mirror of a draft review.
// Each draft gets one log file per (key, index); the file is rewritten
// wholesale on every mutation and frozen with a terminal header when the
// review is abandoned, cleared, or submitted.
package logfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/reviewdraft/internal/domain/model"
	"github.com/ericfisherdev/reviewdraft/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DraftLog = (*Mirror)(nil)

// Mirror implements the DraftLog port on top of a log directory.
type Mirror struct {
	dir string
	now func() time.Time
}

// NewMirror creates the log directory if needed and returns a Mirror.
func NewMirror(dir string) (*Mirror, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &Mirror{dir: dir, now: time.Now}, nil
}

// Path returns the log file path for the draft at its current index.
// Remote drafts use {owner}-{repo}-{pr}[-{index}].log; local-folder drafts
// use a sanitized folder basename instead.
func (m *Mirror) Path(draft model.Draft) string {
	return filepath.Join(m.dir, m.filename(draft, draft.LogFileIndex))
}

func (m *Mirror) filename(draft model.Draft, index int) string {
	var base string
	if draft.IsLocal() {
		base = sanitizeName(filepath.Base(filepath.Clean(draft.LocalFolder)))
	} else {
		base = fmt.Sprintf("%s-%s-%d", draft.Owner, draft.Repo, draft.PRNumber)
	}
	if index == 0 {
		return base + ".log"
	}
	return fmt.Sprintf("%s-%d.log", base, index)
}

// NextIndex probes candidate filenames starting at 0 and returns the first
// index with no log file on disk, so a frozen log from an earlier review
// cycle of the same key is never overwritten.
func (m *Mirror) NextIndex(draft model.Draft) (int, error) {
	for index := 0; ; index++ {
		path := filepath.Join(m.dir, m.filename(draft, index))
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return index, nil
			}
			return 0, fmt.Errorf("probe log file %s: %w", path, err)
		}
	}
}

// Render overwrites the draft's log file with its current state. The write
// is atomic (temp file then rename) so a crash never leaves a partial log.
func (m *Mirror) Render(draft model.Draft, comments []model.DraftComment, title string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Review for PR #%d\n", draft.PRNumber)
	if title != "" {
		fmt.Fprintf(&b, "# Title: %s\n", title)
	}
	if draft.IsLocal() {
		fmt.Fprintf(&b, "# Folder: %s\n", draft.LocalFolder)
	} else {
		fmt.Fprintf(&b, "# URL: %s\n", draft.URL())
		fmt.Fprintf(&b, "# Repository: %s/%s\n", draft.Owner, draft.Repo)
	}
	fmt.Fprintf(&b, "# Created: %s\n", draft.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "# Commit: %s\n", draft.CommitID)
	if draft.Body != "" {
		fmt.Fprintf(&b, "# Review Body: %s\n", draft.Body)
	}

	active := 0
	for _, c := range comments {
		if !c.IsDeleted() {
			active++
		}
	}
	fmt.Fprintf(&b, "# Total Comments: %d\n", active)

	currentFile := ""
	for _, c := range comments {
		if c.FilePath != currentFile {
			fmt.Fprintf(&b, "\n%s:\n", c.FilePath)
			currentFile = c.FilePath
		}
		b.WriteString("    ")
		if c.IsDeleted() {
			b.WriteString("DELETED - ")
		}
		if c.IsWholeFile() {
			// Whole-file comments never carry a side suffix.
			fmt.Fprintf(&b, "Overall: %s\n", c.Body)
			continue
		}
		sideLabel := ""
		if c.Side == model.SideLeft {
			sideLabel = " (ORIGINAL)"
		}
		fmt.Fprintf(&b, "Line %d%s: %s\n", c.Line, sideLabel, c.Body)
	}

	path := m.Path(draft)
	if err := atomic.WriteFile(path, strings.NewReader(b.String())); err != nil {
		return fmt.Errorf("write log %s: %w", path, err)
	}

	return nil
}

// Freeze prepends a terminal header to the existing log so the first line
// always names the outcome. A missing log file is left untouched.
func (m *Mirror) Freeze(draft model.Draft, marker driven.FreezeMarker, title string) error {
	path := m.Path(draft)

	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read log %s: %w", path, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# REVIEW %s at %s\n", marker, m.now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "# Original review started at %s\n", draft.CreatedAt.Format(time.RFC3339))
	if title != "" {
		fmt.Fprintf(&b, "# PR: %s\n", title)
	}
	if !draft.IsLocal() {
		fmt.Fprintf(&b, "# URL: %s\n", draft.URL())
	}
	b.WriteString("\n")
	b.Write(existing)

	if err := atomic.WriteFile(path, strings.NewReader(b.String())); err != nil {
		return fmt.Errorf("freeze log %s: %w", path, err)
	}

	return nil
}

// sanitizeName replaces path separators and reserved filesystem characters
// so a folder basename is safe as a log filename component.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, name)
}

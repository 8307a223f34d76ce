// Package diff resolves legacy diff positions against unified-diff text.
//
// Older review comments address their target by a "position": a 1-based
// counter over the lines of the diff output rather than a line number in
// either file version. ResolvePosition converts such a position into an
// absolute line number so those comments can be displayed and mirrored like
// line-addressed ones.
package diff

import (
	"strconv"
	"strings"

	"github.com/ericfisherdev/reviewdraft/internal/domain/model"
)

// ResolvePosition converts a 1-based diff position into an absolute line
// number in the requested file version. It returns false when the position
// lies beyond the diff or on a line that does not exist on the requested
// side; callers must treat that as "line unknown", not as an error.
func ResolvePosition(patch string, position int, side model.Side) (int, bool) {
	if patch == "" {
		return 0, false
	}

	currentPosition := 0
	leftLine := 0  // Current line in the base file.
	rightLine := 0 // Current line in the head file.

	// A trailing newline must not produce a phantom final position, so the
	// empty element after the last "\n" is stripped before scanning.
	for _, line := range strings.Split(strings.TrimSuffix(patch, "\n"), "\n") {
		// Hunk headers reset the line counters and do not consume a position.
		if strings.HasPrefix(line, "@@") {
			if left, right, ok := parseHunkHeader(line); ok {
				leftLine = left
				rightLine = right
			}
			continue
		}

		currentPosition++

		switch {
		case strings.HasPrefix(line, "-"):
			// Deletion: exists only on the base side.
			if currentPosition == position && side == model.SideLeft {
				return leftLine, true
			}
			leftLine++
		case strings.HasPrefix(line, "+"):
			// Addition: exists only on the head side.
			if currentPosition == position && side == model.SideRight {
				return rightLine, true
			}
			rightLine++
		default:
			// Context line: exists on both sides.
			if currentPosition == position {
				if side == model.SideLeft {
					return leftLine, true
				}
				return rightLine, true
			}
			leftLine++
			rightLine++
		}
	}

	return 0, false
}

// parseHunkHeader extracts the starting line numbers from a header of the
// form "@@ -leftStart,leftCount +rightStart,rightCount @@".
func parseHunkHeader(line string) (leftStart, rightStart int, ok bool) {
	parts := strings.Split(line, "@@")
	if len(parts) < 2 {
		return 0, 0, false
	}

	fields := strings.Fields(strings.TrimSpace(parts[1]))
	if len(fields) < 2 {
		return 0, 0, false
	}

	left, ok := parseHunkRange(fields[0], "-")
	if !ok {
		return 0, 0, false
	}
	right, ok := parseHunkRange(fields[1], "+")
	if !ok {
		return 0, 0, false
	}

	return left, right, true
}

// parseHunkRange parses one side of a hunk header, e.g. "-10,7" or "+10".
func parseHunkRange(field, prefix string) (int, bool) {
	if !strings.HasPrefix(field, prefix) {
		return 0, false
	}
	value := strings.TrimPrefix(field, prefix)
	if idx := strings.Index(value, ","); idx >= 0 {
		value = value[:idx]
	}
	start, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return start, true
}

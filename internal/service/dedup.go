package service

import (
	"fmt"
	"time"
)

// Deduplicator yields the ordered candidate external ids to try for one
// comment insert. The persistence loop attempts them in order and moves to
// the next only on a uniqueness conflict; when the list is exhausted the
// comment is recorded as a per-item error. Duplicate rows are always
// preferred over silently dropped comments.
type Deduplicator interface {
	Candidates(naturalID string) []string
}

// suffixDeduplicator implements the two ordered suffix steps: an
// import-scoped suffix applied up front whenever the same URL was imported
// before, then a single fine-grained timestamp suffix as the conflict retry.
type suffixDeduplicator struct {
	importID       int64
	hasPriorImport bool
	now            func() time.Time
}

// NewSuffixDeduplicator builds the strategy for one import's persistence
// phase. hasPriorImport should be true when another import of the same
// source URL by the same user exists; it forces the import-scoped suffix so
// rescans never collide with earlier imports' rows.
func NewSuffixDeduplicator(importID int64, hasPriorImport bool, now func() time.Time) Deduplicator {
	if now == nil {
		now = time.Now
	}
	return &suffixDeduplicator{
		importID:       importID,
		hasPriorImport: hasPriorImport,
		now:            now,
	}
}

func (d *suffixDeduplicator) Candidates(naturalID string) []string {
	first := naturalID
	if d.hasPriorImport {
		first = fmt.Sprintf("%s_import_%d", naturalID, d.importID)
	}
	return []string{
		first,
		fmt.Sprintf("%s_%d", first, d.now().UnixNano()),
	}
}

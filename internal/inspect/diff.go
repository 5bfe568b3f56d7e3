package inspect

import (
	"github.com/samvad-hq/samvad-request-manager/internal/domain"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff compares the body of the previous snapshot with the current body.
// When there is no previous snapshot the result only has HasPrevious unset.
func Diff(previous *domain.Snapshot, current string) domain.Change {
	if previous == nil {
		return domain.Change{}
	}
	change := domain.Change{HasPrevious: true}
	if previous.Body == current {
		return change
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(previous.Body, current, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	change.Changed = true
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			change.Inserted += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			change.Deleted += len([]rune(d.Text))
		}
	}
	change.Distance = dmp.DiffLevenshtein(diffs)
	return change
}

// PrettyDiff renders a human readable diff between two bodies.
func PrettyDiff(previous, current string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(previous, current, false)
	return dmp.DiffPrettyText(dmp.DiffCleanupSemantic(diffs))
}

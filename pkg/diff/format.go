package diff

import (
	"fmt"
	"strings"
)

// FormatLineDiff produces a unified-diff-style rendering of d without
// context lines.
//
// Output format:
//
//	--- a/path
//	+++ b/path
//	@@ -beginA,lenA +beginB,lenB @@
//	-old line
//	+new line
func FormatLineDiff(d *FileDiff) string {
	if len(d.Edits) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n", d.Path)
	fmt.Fprintf(&b, "+++ b/%s\n", d.Path)

	for _, e := range d.Edits {
		fmt.Fprintf(&b, "@@ -%s +%s @@\n", hunkRange(e.BeginA, e.LengthA()), hunkRange(e.BeginB, e.LengthB()))
		for _, l := range d.Before[e.BeginA:e.EndA] {
			fmt.Fprintf(&b, "-%s\n", l)
		}
		for _, l := range d.After[e.BeginB:e.EndB] {
			fmt.Fprintf(&b, "+%s\n", l)
		}
	}

	return b.String()
}

// FormatSummary renders one "<type> <path> <edits>" line, e.g.
// "M docs/a.txt +2 -1".
func FormatSummary(d *FileDiff) string {
	var added, removed int
	for _, e := range d.Edits {
		added += e.LengthB()
		removed += e.LengthA()
	}
	marker := "M"
	switch {
	case len(d.Before) == 0 && len(d.After) > 0:
		marker = "A"
	case len(d.After) == 0 && len(d.Before) > 0:
		marker = "D"
	}
	return fmt.Sprintf("%s %s +%d -%d", marker, d.Path, added, removed)
}

// hunkRange renders a 0-based range start in unified diff's 1-based form.
// An empty range names the line before it.
func hunkRange(begin, length int) string {
	if length == 0 {
		return fmt.Sprintf("%d,0", begin)
	}
	if length == 1 {
		return fmt.Sprintf("%d", begin+1)
	}
	return fmt.Sprintf("%d,%d", begin+1, length)
}

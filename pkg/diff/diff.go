package diff

import (
	"strings"

	"github.com/ianbruene/go-difflib/difflib"
)

// LineEdits computes the edit script turning lines a into lines b. Equal
// runs are omitted; the result is empty when a and b are identical.
func LineEdits(a, b []string) EditList {
	m := difflib.NewMatcherWithJunk(a, b, false, nil)
	var edits EditList
	for _, op := range m.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		edits = append(edits, NewEdit(op.I1, op.I2, op.J1, op.J2))
	}
	return edits
}

// FileDiff holds the line edits between two revisions of one file.
type FileDiff struct {
	Path   string
	Before []string
	After  []string
	Edits  EditList
}

// DiffFiles splits before and after into lines and computes their edits.
// A trailing newline does not produce an empty last line.
func DiffFiles(path string, before, after []byte) *FileDiff {
	a, b := splitLines(before), splitLines(after)
	return &FileDiff{Path: path, Before: a, After: b, Edits: LineEdits(a, b)}
}

func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
}

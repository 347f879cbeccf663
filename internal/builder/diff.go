package builder

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/qobs-build/cmakegen/internal/msg"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffLines compares two texts line by line and returns the changed lines
// prefixed with "+ " or "- "
func diffLines(oldText, newText string) []string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []string
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for line := range strings.SplitSeq(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out = append(out, prefix+line)
		}
	}
	return out
}

func printDiff(oldText, newText string) {
	changes := diffLines(oldText, newText)
	if len(changes) == 0 {
		msg.Info("%s unchanged", BuildFilename)
		return
	}
	for _, line := range changes {
		if strings.HasPrefix(line, "+") {
			fmt.Println(color.GreenString(line))
		} else {
			fmt.Println(color.RedString(line))
		}
	}
}

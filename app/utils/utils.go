package utils

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"WordLeap/app/sentence"
)

// RenderTrace draws a completed (or in-progress) sentence's choice history:
// one branch per step, both candidates shown, the chosen side marked.
func RenderTrace(snap sentence.Snapshot) string {
	tree := treeprint.New()
	if len(snap.Words) > 0 {
		tree.SetValue(strings.Join(snap.Words, " "))
	} else {
		tree.SetValue("(empty sentence)")
	}

	for i, step := range snap.Steps {
		if i >= len(snap.Words) {
			break
		}
		branch := tree.AddBranch(fmt.Sprintf("word %d: %s", i+1, snap.Words[i]))
		branch.AddNode(markCandidate("safe", step.Pair.Safe, step.Chosen == sentence.SideSafe))
		branch.AddNode(markCandidate("leap", step.Pair.Leap, step.Chosen == sentence.SideLeap))
	}
	return tree.String()
}

func markCandidate(label, word string, chosen bool) string {
	if chosen {
		return fmt.Sprintf("%s: %s ✔", label, word)
	}
	return fmt.Sprintf("%s: %s", label, word)
}

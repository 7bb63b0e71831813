package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/internal/runtime"
	"github.com/aretw0/canopy/pkg/domain"
)

// Describe renders a markdown overview of a state tree: one section per
// state with its entry and exit actions and a table of transitions.
func Describe(tree *runtime.Tree) string {
	var b strings.Builder
	root := tree.Root()
	fmt.Fprintf(&b, "# %s\n\n", root.Name())
	if events := tree.Events(); len(events) > 0 {
		fmt.Fprintf(&b, "**Events:** %s\n\n", code(events))
	}
	fmt.Fprintf(&b, "%d states, cascade: %s\n\n", tree.Len(), tree.Cascade())

	for _, s := range tree.States() {
		if s.Name() == domain.StartState {
			continue
		}
		describeState(&b, s)
	}
	return b.String()
}

func describeState(b *strings.Builder, s runtime.State) {
	level := s.Depth() + 2
	if level > 6 {
		level = 6
	}
	fmt.Fprintf(b, "%s %s\n\n", strings.Repeat("#", level), s.Path())

	if start, ok := s.StartChild(); ok {
		if start.Name() == domain.StartState {
			for _, tr := range start.Transitions() {
				fmt.Fprintf(b, "- starts in `%s`\n", tr.Target)
			}
		} else {
			fmt.Fprintf(b, "- starts in `%s`\n", start.Path())
		}
	}
	if s.IsTerminal() {
		b.WriteString("- terminal\n")
	}
	if acts := s.EntryActions(); len(acts) > 0 {
		fmt.Fprintf(b, "- entry: %s\n", descriptors(acts))
	}
	if acts := s.ExitActions(); len(acts) > 0 {
		fmt.Fprintf(b, "- exit: %s\n", descriptors(acts))
	}

	if trs := s.Transitions(); len(trs) > 0 {
		b.WriteString("\n| Event | Conditions | Actions | Destination |\n|---|---|---|---|\n")
		for _, tr := range trs {
			fmt.Fprintf(b, "| `%s` | %s | %s | `%s` |\n",
				tr.Event, descriptors(tr.Conditions), descriptors(tr.Actions), tr.Target)
		}
	}
	b.WriteString("\n")
}

func descriptors(list []domain.ActionDescriptor) string {
	if len(list) == 0 {
		return "-"
	}
	parts := make([]string, len(list))
	for i, d := range list {
		parts[i] = "`" + d.String() + "`"
	}
	return strings.Join(parts, ", ")
}

func code(words []string) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = "`" + w + "`"
	}
	return strings.Join(parts, ", ")
}

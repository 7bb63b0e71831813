// Package validator runs reachability checks on a built state tree. They
// complement the structural checks of runtime.Build with warnings about
// states the machine can never settle in.
package validator

import (
	"github.com/aretw0/canopy/internal/runtime"
	"github.com/aretw0/canopy/pkg/domain"
)

// Unreachable crawls the tree from the root, following start chains and
// every transition that can fire while a state is active (its own and those
// of its ancestors), and returns the paths of the states never entered.
// Ancestors of an entered state count as entered. "start" pseudo-states are
// skipped and the root "end_state" is reachable through cleanup.
func Unreachable(tree *runtime.Tree) []string {
	visited := make(map[string]bool)
	queue := []runtime.State{tree.Root()}
	if end, ok := tree.Root().SubState(domain.EndState); ok {
		queue = append(queue, end)
	}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if visited[s.Path()] {
			continue
		}
		visited[s.Path()] = true
		for p, ok := s.Parent(); ok; p, ok = p.Parent() {
			visited[p.Path()] = true
		}

		if start, ok := s.StartChild(); ok {
			if start.Name() != domain.StartState {
				queue = append(queue, start)
			} else {
				queue = append(queue, targets(tree, start)...)
			}
		}
		for a := s; a.Valid(); {
			queue = append(queue, targets(tree, a)...)
			next, ok := a.Parent()
			if !ok {
				break
			}
			a = next
		}
	}

	var unreachable []string
	for _, s := range tree.States() {
		if s.Name() == domain.StartState || visited[s.Path()] {
			continue
		}
		unreachable = append(unreachable, s.Path())
	}
	return unreachable
}

func targets(tree *runtime.Tree, s runtime.State) []runtime.State {
	var list []runtime.State
	for _, tr := range s.Transitions() {
		if t, ok := tree.Lookup(tr.Target); ok {
			list = append(list, t)
		}
	}
	return list
}

package container

import (
	"fmt"
	"sort"
	"strings"

	"mvc-server/internal/protocol"
)

// initOrder sorts beans so that every bean comes after the beans it was
// wired with. Ties are broken by name to keep startup deterministic.
//
// Beans that inject each other are legal. A cycle is released as a group
// once everything outside it is ordered: its members go in name order with
// the one Init hook last. A cycle holding two or more Init hooks has no
// valid order and fails with ErrDependencyCycle.
func initOrder(beans []*Bean, deps []Dependency) ([]*Bean, error) {
	byName := make(map[string]*Bean, len(beans))
	names := make([]string, 0, len(beans))
	for _, b := range beans {
		byName[b.Name] = b
		names = append(names, b.Name)
	}
	sort.Strings(names)

	// needs: owner -> targets; dependents: target -> owners.
	needs := make(map[string][]string)
	dependents := make(map[string]map[string]struct{})
	pending := make(map[string]int, len(beans))
	for _, d := range deps {
		if d.Resolved == "" || d.Resolved == d.Owner {
			continue
		}
		if dependents[d.Resolved] == nil {
			dependents[d.Resolved] = make(map[string]struct{})
		}
		if _, seen := dependents[d.Resolved][d.Owner]; seen {
			continue
		}
		dependents[d.Resolved][d.Owner] = struct{}{}
		needs[d.Owner] = append(needs[d.Owner], d.Resolved)
		pending[d.Owner]++
	}
	for _, targets := range needs {
		sort.Strings(targets)
	}

	var ready []string
	for _, name := range names {
		if pending[name] == 0 {
			ready = append(ready, name)
		}
	}

	done := make(map[string]bool, len(beans))
	ordered := make([]*Bean, 0, len(beans))
	emit := func(name string) {
		done[name] = true
		ordered = append(ordered, byName[name])
		var next []string
		for owner := range dependents[name] {
			pending[owner]--
			if pending[owner] == 0 && !done[owner] {
				next = append(next, owner)
			}
		}
		sort.Strings(next)
		ready = append(ready, next...)
	}

	for {
		for len(ready) > 0 {
			name := ready[0]
			ready = ready[1:]
			if !done[name] {
				emit(name)
			}
		}
		if len(ordered) == len(beans) {
			return ordered, nil
		}

		group := firstCycle(names, needs, done)
		var hooks, plain []string
		for _, name := range group {
			if _, ok := byName[name].Instance.(Initializer); ok {
				hooks = append(hooks, name)
			} else {
				plain = append(plain, name)
			}
		}
		if len(hooks) > 1 {
			return nil, fmt.Errorf("%w involving %s", protocol.ErrDependencyCycle, strings.Join(group, ", "))
		}
		for _, name := range append(plain, hooks...) {
			emit(name)
		}
	}
}

// firstCycle returns, sorted, the first strongly connected group of
// unordered beans whose outside dependencies are all ordered already.
func firstCycle(names []string, needs map[string][]string, done map[string]bool) []string {
	index := make(map[string]int)
	low := make(map[string]int)
	onStack := make(map[string]bool)
	var stack, found []string

	var visit func(v string)
	visit = func(v string) {
		index[v] = len(index)
		low[v] = index[v]
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range needs[v] {
			if done[w] {
				continue
			}
			if _, seen := index[w]; !seen {
				visit(w)
				if found != nil {
					return
				}
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}
		if low[v] == index[v] {
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				found = append(found, w)
				if w == v {
					break
				}
			}
		}
	}

	for _, name := range names {
		if done[name] {
			continue
		}
		if _, seen := index[name]; !seen {
			visit(name)
		}
		if found != nil {
			break
		}
	}
	sort.Strings(found)
	return found
}

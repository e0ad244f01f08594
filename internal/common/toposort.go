package common

import (
	"fmt"
	"slices"
	"strings"
)

// CycleError is returned by TopoSort when not every node can be ordered.
// Nodes holds the indices left over, in ascending order: the members of a
// cycle and everything depending on one.
type CycleError struct {
	Nodes []int
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Nodes))
	for i, n := range e.Nodes {
		parts[i] = fmt.Sprint(n)
	}

	return "cycle between nodes " + strings.Join(parts, ", ")
}

// TopoSort orders the nodes 0..n-1 so that every node comes after the nodes
// depsFn returns for it. Views are ordered after the views they select from
// and projected elements after their origins this way.
//
// When several nodes are ready the smallest index goes first, so the order
// only depends on the input order.
func TopoSort(n int, depsFn func(i int) []int) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}

	pending := make([]int, n)
	dependents := make([][]int, n)

	for i := range n {
		for _, d := range depsFn(i) {
			if d < 0 || d >= n {
				return nil, fmt.Errorf("node %d depends on %d, out of range", i, d)
			}

			pending[i]++
			dependents[d] = append(dependents[d], i)
		}
	}

	var ready []int

	for i := range n {
		if pending[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)

	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		order = append(order, i)

		for _, j := range dependents[i] {
			if pending[j]--; pending[j] == 0 {
				k, _ := slices.BinarySearch(ready, j)
				ready = slices.Insert(ready, k, j)
			}
		}
	}

	if len(order) == n {
		return order, nil
	}

	var left []int

	for i := range n {
		if pending[i] > 0 {
			left = append(left, i)
		}
	}

	return nil, &CycleError{Nodes: left}
}

// Package objectmap builds the transitively-closed parent/child maps for
// posts and terms, and the one-hop term/post cross maps, from raw edge rows.
package objectmap

import (
	"sort"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

// TreeMap holds a parent/child hierarchy closed transitively in both
// directions. The outer key is an object type: the general category plus
// each concrete type seen in the edge rows. Children[type][parentID] maps
// every descendant (any number of hops down) to its concrete type;
// Parents[type][childID] maps every ancestor to its concrete type.
type TreeMap struct {
	Children map[string]map[string]map[string]string `json:"children"`
	Parents  map[string]map[string]map[string]string `json:"parents"`
}

// ChildrenOf returns the descendants of id under the given type key.
// The result is nil when the node has no descendants of that type.
func (m *TreeMap) ChildrenOf(typeKey, id string) map[string]string {
	return m.Children[typeKey][id]
}

// ParentsOf returns the ancestors of id under the given type key.
func (m *TreeMap) ParentsOf(typeKey, id string) map[string]string {
	return m.Parents[typeKey][id]
}

// BuildTreeMap computes the transitive closure of the given edge set.
// generalType labels the merged bucket (domain.GeneralPost or
// domain.GeneralTerm) and the error reported for cyclic input.
//
// The closure is an iterative fixed point over a topological order: a node's
// ancestor set is its direct parents plus their already-resolved ancestor
// sets, so each edge is visited once. Cyclic input is rejected with a
// CyclicHierarchyError before any traversal starts.
func BuildTreeMap(generalType string, edges []domain.Edge) (*TreeMap, error) {
	directParents := map[string]map[string]bool{}
	nodeType := map[string]string{}

	for _, e := range edges {
		if e.ID == "" || e.ParentID == "" || e.ID == e.ParentID {
			continue
		}
		if directParents[e.ID] == nil {
			directParents[e.ID] = map[string]bool{}
		}
		directParents[e.ID][e.ParentID] = true
		nodeType[e.ID] = e.Type
	}

	order, err := topologicalOrder(generalType, directParents)
	if err != nil {
		return nil, err
	}

	// Concrete type of a node: from its own edge row when it appeared as a
	// child; root nodes fall back to the general bucket name.
	typeOf := func(id string) string {
		if t, ok := nodeType[id]; ok {
			return t
		}
		return generalType
	}

	// ancestors[n] is complete once every parent of n precedes n in order.
	ancestors := map[string]map[string]bool{}
	for _, n := range order {
		set := map[string]bool{}
		for p := range directParents[n] {
			set[p] = true
			for a := range ancestors[p] {
				set[a] = true
			}
		}
		if len(set) > 0 {
			ancestors[n] = set
		}
	}

	m := &TreeMap{
		Children: map[string]map[string]map[string]string{},
		Parents:  map[string]map[string]map[string]string{},
	}
	for child, set := range ancestors {
		childType := typeOf(child)
		for ancestor := range set {
			put(m.Parents, generalType, child, ancestor, typeOf(ancestor))
			put(m.Parents, childType, child, ancestor, typeOf(ancestor))
			put(m.Children, generalType, ancestor, child, childType)
			put(m.Children, childType, ancestor, child, childType)
		}
	}
	return m, nil
}

func put(m map[string]map[string]map[string]string, typeKey, outer, inner, value string) {
	if m[typeKey] == nil {
		m[typeKey] = map[string]map[string]string{}
	}
	if m[typeKey][outer] == nil {
		m[typeKey][outer] = map[string]string{}
	}
	m[typeKey][outer][inner] = value
}

// topologicalOrder sorts nodes so every parent precedes its children, or
// reports the nodes stuck in a cycle.
func topologicalOrder(generalType string, directParents map[string]map[string]bool) ([]string, error) {
	pending := map[string]int{}
	childrenOf := map[string][]string{}
	for child, parents := range directParents {
		pending[child] = len(parents)
		for p := range parents {
			childrenOf[p] = append(childrenOf[p], child)
			if _, ok := pending[p]; !ok {
				pending[p] = 0
			}
		}
	}

	var queue []string
	for n, deg := range pending {
		if deg == 0 {
			queue = append(queue, n)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(pending))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, c := range childrenOf[n] {
			pending[c]--
			if pending[c] == 0 {
				queue = append(queue, c)
			}
		}
	}

	if len(order) != len(pending) {
		var cyclic []string
		for n, deg := range pending {
			if deg > 0 {
				cyclic = append(cyclic, n)
			}
		}
		sort.Strings(cyclic)
		return nil, &domain.CyclicHierarchyError{ObjectType: generalType, NodeIDs: cyclic}
	}
	return order, nil
}

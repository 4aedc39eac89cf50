package rrgraph

// nonConfigSets groups nodes that are joined by non-configurable edges.
// Using any member of a set implies using all of them.
type nonConfigSets struct {
	setOf  []int32 // -1 for nodes with no non-configurable neighbours
	sets   [][]NodeID
	bounds [][4]int // xmin, ymin, xmax, ymax over every member's span
}

func buildNonConfigSets(g *Graph) *nonConfigSets {
	parent := make([]int32, len(g.nodes))
	for i := range parent {
		parent[i] = int32(i)
	}
	var find func(int32) int32
	find = func(x int32) int32 {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	joined := false
	for n := range g.nodes {
		for e := range g.NonConfigurableEdges(NodeID(n)) {
			a, b := find(int32(n)), find(int32(g.edgeDst[e]))
			if a == b {
				continue
			}
			if a > b {
				a, b = b, a
			}
			parent[b] = a
			joined = true
		}
	}

	s := &nonConfigSets{setOf: make([]int32, len(g.nodes))}
	if !joined {
		for i := range s.setOf {
			s.setOf[i] = -1
		}
		return s
	}

	size := make(map[int32]int)
	for n := range g.nodes {
		size[find(int32(n))]++
	}
	setIndex := make(map[int32]int32)
	for n := range g.nodes {
		root := find(int32(n))
		if size[root] < 2 {
			s.setOf[n] = -1
			continue
		}
		idx, ok := setIndex[root]
		if !ok {
			idx = int32(len(s.sets))
			setIndex[root] = idx
			s.sets = append(s.sets, nil)
		}
		s.setOf[n] = idx
		s.sets[idx] = append(s.sets[idx], NodeID(n))
	}

	s.bounds = make([][4]int, len(s.sets))
	for i, members := range s.sets {
		first := &g.nodes[members[0]]
		b := [4]int{first.XLow, first.YLow, first.XHigh, first.YHigh}
		for _, m := range members[1:] {
			n := &g.nodes[m]
			b[0], b[1] = min(b[0], n.XLow), min(b[1], n.YLow)
			b[2], b[3] = max(b[2], n.XHigh), max(b[3], n.YHigh)
		}
		s.bounds[i] = b
	}
	return s
}

// NonConfigurableSet returns the nodes electrically tied to node through
// non-configurable edges, node included, in ascending ID order. ok is false
// when node belongs to no such set.
func (g *Graph) NonConfigurableSet(node NodeID) (members []NodeID, ok bool) {
	idx := g.ncSets.setOf[node]
	if idx < 0 {
		return nil, false
	}
	return g.ncSets.sets[idx], true
}

// NonConfigurableSetID returns the index of node's set, or -1.
func (g *Graph) NonConfigurableSetID(node NodeID) int {
	return int(g.ncSets.setOf[node])
}

// NonConfigurableSetBounds returns the tiles spanned by the members of set
// idx, as returned by NonConfigurableSetID.
func (g *Graph) NonConfigurableSetBounds(idx int) (xmin, ymin, xmax, ymax int) {
	b := g.ncSets.bounds[idx]
	return b[0], b[1], b[2], b[3]
}

// NumNonConfigurableSets returns the number of sets with two or more members.
func (g *Graph) NumNonConfigurableSets() int { return len(g.ncSets.sets) }

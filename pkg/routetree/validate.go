package routetree

import (
	"fmt"

	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// Validate checks that the tree is rooted at a SOURCE, acyclic, connected
// through real graph edges, and that every node in sinks is reached.
func (t *Tree) Validate(sinks []rrgraph.NodeID) error {
	if t.root == NoHandle {
		if len(sinks) > 0 {
			return fmt.Errorf("empty tree misses %d sinks", len(sinks))
		}
		return nil
	}
	if t.g.NodeRef(t.arena[t.root].rr).Type != rrgraph.Source {
		return ErrBadRoot
	}

	visited := make(map[Handle]bool, len(t.lookup))
	var visit func(h Handle) error
	visit = func(h Handle) error {
		if visited[h] {
			return fmt.Errorf("handle %d reached twice: %w", h, ErrCycle)
		}
		visited[h] = true
		n := &t.arena[h]
		if !n.live {
			return fmt.Errorf("handle %d is released", h)
		}
		if got, ok := t.lookup[n.rr]; !ok || got != h {
			return fmt.Errorf("node %d: lookup mismatch", n.rr)
		}
		for c := n.child; c != NoHandle; c = t.arena[c].next {
			if t.arena[c].parent != h {
				return fmt.Errorf("handle %d: parent link broken", c)
			}
			if !t.hasEdge(n.rr, t.arena[c].rr, t.arena[c].sw) {
				return fmt.Errorf("%d -> %d via switch %d: %w", n.rr, t.arena[c].rr, t.arena[c].sw, ErrMissingEdge)
			}
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(t.root); err != nil {
		return err
	}
	if len(visited) != len(t.lookup) {
		return fmt.Errorf("%d nodes unreachable from root", len(t.lookup)-len(visited))
	}
	for _, s := range sinks {
		if !t.Contains(s) {
			return fmt.Errorf("sink %d not reached", s)
		}
	}
	return nil
}

func (t *Tree) hasEdge(from, to rrgraph.NodeID, sw rrgraph.SwitchID) bool {
	for e := range t.g.Edges(from) {
		if t.g.EdgeSink(e) == to && t.g.EdgeSwitch(e) == sw {
			return true
		}
	}
	return false
}

package routetree

import (
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// Prune removes every branch that passes through a node for which
// congested returns true, and every branch that no longer leads to a SINK.
//
// Nodes reached through a non-configurable edge (stubs) are kept while the
// non-configurable set they belong to is still in use, meaning some tree
// edge leaves the set through a configurable switch. Once a set falls out
// of use its stubs go too.
//
// Prune returns the routing nodes it removed. If nothing below the root
// survives, the root is removed as well and the tree is left empty.
func (t *Tree) Prune(congested func(rrgraph.NodeID) bool) []rrgraph.NodeID {
	if t.root == NoHandle {
		return nil
	}
	p := pruner{t: t, congested: congested, usage: t.setUsage()}
	if !p.prune(t.root, false) {
		t.root = NoHandle
	}
	return p.removed
}

// setUsage counts, per non-configurable set, the configurable tree edges
// that leave a member of the set, plus configurable edges into a SINK that
// belongs to a set.
func (t *Tree) setUsage() map[int]int {
	usage := make(map[int]int)
	for e := range t.Edges() {
		if !t.g.Switch(e.Switch).Configurable {
			continue
		}
		if set := t.g.NonConfigurableSetID(e.From); set >= 0 {
			usage[set]++
		}
		if t.g.NodeRef(e.To).Type == rrgraph.Sink {
			if set := t.g.NonConfigurableSetID(e.To); set >= 0 {
				usage[set]++
			}
		}
	}
	return usage
}

type pruner struct {
	t         *Tree
	congested func(rrgraph.NodeID) bool
	usage     map[int]int
	removed   []rrgraph.NodeID
}

func (p *pruner) configurable(sw rrgraph.SwitchID) bool {
	return sw >= 0 && p.t.g.Switch(sw).Configurable
}

// prune reports whether h survives. A pruned node has already been
// unlinked from its parent's child list and released.
func (p *pruner) prune(h Handle, force bool) bool {
	t := p.t
	rr := t.arena[h].rr
	set := t.g.NonConfigurableSetID(rr)

	if p.congested != nil && p.congested(rr) {
		force = true
	}

	allPruned := true
	prev := NoHandle
	for c := t.arena[h].child; c != NoHandle; {
		next := t.arena[c].next
		sw := t.arena[c].sw
		if p.prune(c, force) {
			allPruned = false
			prev = c
		} else {
			if prev == NoHandle {
				t.arena[h].child = next
			} else {
				t.arena[prev].next = next
			}
			if set >= 0 && p.configurable(sw) {
				p.usage[set]--
			}
		}
		c = next
	}

	node := &t.arena[h]
	switch {
	case t.g.NodeRef(rr).Type == rrgraph.Sink:
		if !force {
			return true
		}
	case allPruned:
		stub := node.parent != NoHandle && !p.configurable(node.sw)
		if stub && set >= 0 && p.usage[set] == 0 {
			force = true
		}
		if stub && !force {
			return true
		}
	default:
		// The first node of an unused set that still has children: a
		// sibling stub visited earlier may have kept the set alive. Walk
		// it again now that the usage count is final.
		if set >= 0 && p.configurable(node.sw) && p.usage[set] == 0 {
			return p.prune(h, false)
		}
		return true
	}

	p.removed = append(p.removed, rr)
	t.release(h)
	return false
}

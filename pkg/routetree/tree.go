// Package routetree maintains the routing of one net as a tree of
// routing-resource nodes rooted at the net's SOURCE.
//
// Tree nodes live in an arena and refer to each other by [Handle], so rip-up
// never leaves dangling references: released handles go on an internal free
// list and are reused by later branches.
package routetree

import (
	"errors"
	"iter"

	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

var (
	// ErrCycle reports a branch or tree that revisits a node.
	ErrCycle = errors.New("routetree: cycle")

	// ErrDetached reports a branch whose attach point is not in the tree.
	ErrDetached = errors.New("routetree: attach point not in tree")

	// ErrMissingEdge reports a tree edge with no matching graph edge.
	ErrMissingEdge = errors.New("routetree: edge not in graph")

	// ErrBadRoot reports a tree whose root is not a SOURCE.
	ErrBadRoot = errors.New("routetree: root is not a SOURCE")
)

// Handle refers to a node in a tree's arena.
type Handle int32

// NoHandle is the nil handle.
const NoHandle Handle = -1

type treeNode struct {
	rr       rrgraph.NodeID
	parent   Handle
	sw       rrgraph.SwitchID // switch on the edge from parent
	child    Handle           // first child
	next     Handle           // next sibling
	reExpand bool             // may seed later searches
	live     bool
}

// Hop is one step of a branch: the node entered and the switch used to
// enter it.
type Hop struct {
	Node   rrgraph.NodeID
	Switch rrgraph.SwitchID
}

// Edge is a parent-child connection in a tree.
type Edge struct {
	From, To rrgraph.NodeID
	Switch   rrgraph.SwitchID
}

// Occupancy receives occupancy changes when nodes enter or leave a tree.
// *cost.State implements it.
type Occupancy interface {
	Add(node rrgraph.NodeID, delta int)
}

// Tree is the routing of one net. The zero value is not usable; call New.
type Tree struct {
	g      *rrgraph.Graph
	arena  []treeNode
	free   []Handle
	root   Handle
	lookup map[rrgraph.NodeID]Handle
}

// New returns an empty tree over g.
func New(g *rrgraph.Graph) *Tree {
	return &Tree{g: g, root: NoHandle, lookup: make(map[rrgraph.NodeID]Handle)}
}

func (t *Tree) alloc(rr rrgraph.NodeID, parent Handle, sw rrgraph.SwitchID) Handle {
	typ := t.g.NodeRef(rr).Type
	n := treeNode{
		rr:       rr,
		parent:   parent,
		sw:       sw,
		child:    NoHandle,
		next:     NoHandle,
		reExpand: typ != rrgraph.IPIN && typ != rrgraph.Sink,
		live:     true,
	}
	var h Handle
	if k := len(t.free); k > 0 {
		h = t.free[k-1]
		t.free = t.free[:k-1]
		t.arena[h] = n
	} else {
		h = Handle(len(t.arena))
		t.arena = append(t.arena, n)
	}
	if parent != NoHandle {
		t.arena[h].next = t.arena[parent].child
		t.arena[parent].child = h
	}
	t.lookup[rr] = h
	return h
}

func (t *Tree) release(h Handle) {
	delete(t.lookup, t.arena[h].rr)
	t.arena[h] = treeNode{parent: NoHandle, child: NoHandle, next: NoHandle}
	t.free = append(t.free, h)
}

// Reset clears the tree and makes source its root.
func (t *Tree) Reset(source rrgraph.NodeID) {
	t.Clear()
	t.root = t.alloc(source, NoHandle, -1)
}

// Clear empties the tree. Arena storage is kept for reuse.
func (t *Tree) Clear() {
	t.arena = t.arena[:0]
	t.free = t.free[:0]
	t.root = NoHandle
	clear(t.lookup)
}

// Empty reports whether the tree has no root.
func (t *Tree) Empty() bool { return t.root == NoHandle }

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.lookup) }

// Root returns the root handle, or NoHandle.
func (t *Tree) Root() Handle { return t.root }

// Source returns the routing node at the root, or rrgraph.InvalidNode.
func (t *Tree) Source() rrgraph.NodeID {
	if t.root == NoHandle {
		return rrgraph.InvalidNode
	}
	return t.arena[t.root].rr
}

// Contains reports whether rr is part of the tree.
func (t *Tree) Contains(rr rrgraph.NodeID) bool {
	_, ok := t.lookup[rr]
	return ok
}

// Lookup returns the handle holding rr.
func (t *Tree) Lookup(rr rrgraph.NodeID) (Handle, bool) {
	h, ok := t.lookup[rr]
	return h, ok
}

// Node returns the routing node held by h.
func (t *Tree) Node(h Handle) rrgraph.NodeID { return t.arena[h].rr }

// Parent returns h's parent, or NoHandle for the root.
func (t *Tree) Parent(h Handle) Handle { return t.arena[h].parent }

// ParentSwitch returns the switch on the edge into h.
func (t *Tree) ParentSwitch(h Handle) rrgraph.SwitchID { return t.arena[h].sw }

// Children yields h's children, most recently added first.
func (t *Tree) Children(h Handle) iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		for c := t.arena[h].child; c != NoHandle; c = t.arena[c].next {
			if !yield(c) {
				return
			}
		}
	}
}

// ReExpandable reports whether rr may seed a later search. IPINs and SINKs
// may not: a path through them would route through a block.
func (t *Tree) ReExpandable(rr rrgraph.NodeID) bool {
	h, ok := t.lookup[rr]
	return ok && t.arena[h].reExpand
}

// AddBranch attaches hops below the tree node attach. hops[0] is entered
// from attach, hops[i] from hops[i-1]. Nodes tied to the new nodes by
// non-configurable edges are added as stubs. AddBranch returns every node it
// added, stubs included, in insertion order.
//
// An attach point outside the tree or a hop already in the tree means the
// caller's search state is corrupt; AddBranch then adds nothing and returns
// ErrDetached or ErrCycle.
func (t *Tree) AddBranch(attach rrgraph.NodeID, hops []Hop) ([]rrgraph.NodeID, error) {
	parent, ok := t.lookup[attach]
	if !ok {
		return nil, ErrDetached
	}
	seen := make(map[rrgraph.NodeID]bool, len(hops))
	for _, hop := range hops {
		if t.Contains(hop.Node) || seen[hop.Node] {
			return nil, ErrCycle
		}
		seen[hop.Node] = true
	}

	added := make([]rrgraph.NodeID, 0, len(hops))
	main := make([]Handle, 0, len(hops))
	for _, hop := range hops {
		parent = t.alloc(hop.Node, parent, hop.Switch)
		added = append(added, hop.Node)
		main = append(main, parent)
	}
	for _, h := range main {
		if t.g.NodeRef(t.arena[h].rr).Type != rrgraph.Sink {
			added = t.addStubs(h, added)
		}
	}
	return added, nil
}

func (t *Tree) addStubs(h Handle, added []rrgraph.NodeID) []rrgraph.NodeID {
	for e := range t.g.NonConfigurableEdges(t.arena[h].rr) {
		to := t.g.EdgeSink(e)
		if t.Contains(to) {
			continue
		}
		c := t.alloc(to, h, t.g.EdgeSwitch(e))
		added = append(added, to)
		added = t.addStubs(c, added)
	}
	return added
}

// Nodes yields the routing nodes of the tree in depth-first pre-order.
func (t *Tree) Nodes() iter.Seq[rrgraph.NodeID] {
	return func(yield func(rrgraph.NodeID) bool) {
		if t.root == NoHandle {
			return
		}
		t.walk(t.root, func(h Handle) bool { return yield(t.arena[h].rr) })
	}
}

// Edges yields the tree edges in depth-first pre-order of their child.
func (t *Tree) Edges() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		if t.root == NoHandle {
			return
		}
		t.walk(t.root, func(h Handle) bool {
			n := &t.arena[h]
			if n.parent == NoHandle {
				return true
			}
			return yield(Edge{From: t.arena[n.parent].rr, To: n.rr, Switch: n.sw})
		})
	}
}

func (t *Tree) walk(h Handle, visit func(Handle) bool) bool {
	if !visit(h) {
		return false
	}
	for c := t.arena[h].child; c != NoHandle; c = t.arena[c].next {
		if !t.walk(c, visit) {
			return false
		}
	}
	return true
}

// Sinks returns the SINK nodes in the tree in depth-first order.
func (t *Tree) Sinks() []rrgraph.NodeID {
	var out []rrgraph.NodeID
	for rr := range t.Nodes() {
		if t.g.NodeRef(rr).Type == rrgraph.Sink {
			out = append(out, rr)
		}
	}
	return out
}

// PathTo returns the routing nodes from the root down to rr.
func (t *Tree) PathTo(rr rrgraph.NodeID) []rrgraph.NodeID {
	h, ok := t.lookup[rr]
	if !ok {
		return nil
	}
	var path []rrgraph.NodeID
	for ; h != NoHandle; h = t.arena[h].parent {
		path = append(path, t.arena[h].rr)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Extent returns the smallest rectangle covering every node of the tree.
// ok is false for an empty tree.
func (t *Tree) Extent() (xmin, ymin, xmax, ymax int, ok bool) {
	for rr := range t.Nodes() {
		n := t.g.NodeRef(rr)
		if !ok {
			xmin, ymin, xmax, ymax, ok = n.XLow, n.YLow, n.XHigh, n.YHigh, true
			continue
		}
		xmin, ymin = min(xmin, n.XLow), min(ymin, n.YLow)
		xmax, ymax = max(xmax, n.XHigh), max(ymax, n.YHigh)
	}
	return xmin, ymin, xmax, ymax, ok
}

// Commit adds one unit of occupancy for every node of the tree.
func (t *Tree) Commit(occ Occupancy) {
	for rr := range t.Nodes() {
		occ.Add(rr, 1)
	}
}

// RipUp releases the occupancy of every node and clears the tree.
func (t *Tree) RipUp(occ Occupancy) {
	for rr := range t.Nodes() {
		occ.Add(rr, -1)
	}
	t.Clear()
}

// Clone returns an independent copy of the tree.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		g:      t.g,
		arena:  append([]treeNode(nil), t.arena...),
		free:   append([]Handle(nil), t.free...),
		root:   t.root,
		lookup: make(map[rrgraph.NodeID]Handle, len(t.lookup)),
	}
	for k, v := range t.lookup {
		c.lookup[k] = v
	}
	return c
}

// Equal reports whether both trees have the same root and the same set of
// edges, regardless of arena layout or child order.
func (t *Tree) Equal(o *Tree) bool {
	if t.Source() != o.Source() || t.Len() != o.Len() {
		return false
	}
	for e := range t.Edges() {
		h, ok := o.lookup[e.To]
		if !ok {
			return false
		}
		n := &o.arena[h]
		if n.parent == NoHandle || o.arena[n.parent].rr != e.From || n.sw != e.Switch {
			return false
		}
	}
	return true
}

// FromEdges rebuilds a tree rooted at source from edges listed parent
// before child, as Edges yields them. Stubs already added with their
// driver are skipped.
func FromEdges(g *rrgraph.Graph, source rrgraph.NodeID, edges []Edge) (*Tree, error) {
	t := New(g)
	t.Reset(source)
	for _, e := range edges {
		if h, ok := t.lookup[e.To]; ok {
			if p := t.arena[h].parent; p != NoHandle && t.arena[p].rr == e.From {
				continue
			}
			return nil, ErrCycle
		}
		if _, ok := g.FindEdge(e.From, e.To); !ok {
			return nil, ErrMissingEdge
		}
		if _, err := t.AddBranch(e.From, []Hop{{Node: e.To, Switch: e.Switch}}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

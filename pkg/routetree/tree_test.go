package routetree

import (
	"errors"
	"slices"
	"testing"

	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

const (
	cfg   rrgraph.SwitchID = 0
	short rrgraph.SwitchID = 1
)

// testGraph:
//
//	0 SOURCE -> 1 OPIN -> 2 CHANX -> 3 IPIN -> 4 SINK
//	                      2 => 5 CHANX (non-configurable stub)
//	                      2 -> 6 CHANY -> 7 IPIN -> 8 SINK
func testGraph(t *testing.T) *rrgraph.Graph {
	t.Helper()
	g := rrgraph.New(2, 1)
	g.AddSwitch(rrgraph.Switch{Name: "mux", Configurable: true})
	g.AddSwitch(rrgraph.Switch{Name: "short"})
	g.AddCostIndex(rrgraph.CostIndex{BaseCost: 1})
	for _, n := range []rrgraph.Node{
		{Type: rrgraph.Source, Capacity: 1},
		{Type: rrgraph.OPIN, Capacity: 1},
		{Type: rrgraph.ChanX, XHigh: 1, Capacity: 1},
		{Type: rrgraph.IPIN, XLow: 1, XHigh: 1, Capacity: 1},
		{Type: rrgraph.Sink, XLow: 1, XHigh: 1, Capacity: 1},
		{Type: rrgraph.ChanX, XHigh: 1, Capacity: 1, PTC: 1},
		{Type: rrgraph.ChanY, XLow: 1, XHigh: 1, Capacity: 1},
		{Type: rrgraph.IPIN, XLow: 1, XHigh: 1, Capacity: 1, PTC: 1, Side: rrgraph.Right},
		{Type: rrgraph.Sink, XLow: 1, XHigh: 1, Capacity: 1, PTC: 1},
	} {
		g.AddNode(n)
	}
	for _, e := range [][3]int{{0, 1, 0}, {1, 2, 0}, {2, 3, 0}, {3, 4, 0}, {2, 5, 1}, {2, 6, 0}, {6, 7, 0}, {7, 8, 0}} {
		g.AddEdge(rrgraph.NodeID(e[0]), rrgraph.NodeID(e[1]), rrgraph.SwitchID(e[2]))
	}
	if err := g.Freeze(); err != nil {
		t.Fatalf("Freeze() error: %v", err)
	}
	return g
}

func hops(nodes ...rrgraph.NodeID) []Hop {
	out := make([]Hop, len(nodes))
	for i, n := range nodes {
		out[i] = Hop{Node: n, Switch: cfg}
	}
	return out
}

func builtTree(t *testing.T) *Tree {
	t.Helper()
	tr := New(testGraph(t))
	tr.Reset(0)
	added, err := tr.AddBranch(0, hops(1, 2, 3, 4))
	if err != nil {
		t.Fatalf("AddBranch() error: %v", err)
	}
	if !slices.Equal(added, []rrgraph.NodeID{1, 2, 3, 4, 5}) {
		t.Fatalf("AddBranch() added %v, want [1 2 3 4 5]", added)
	}
	added, err = tr.AddBranch(2, hops(6, 7, 8))
	if err != nil {
		t.Fatalf("AddBranch() error: %v", err)
	}
	if !slices.Equal(added, []rrgraph.NodeID{6, 7, 8}) {
		t.Fatalf("AddBranch() added %v, want [6 7 8]", added)
	}
	return tr
}

type occMap map[rrgraph.NodeID]int

func (m occMap) Add(n rrgraph.NodeID, d int) { m[n] += d }

func TestAddBranch(t *testing.T) {
	tr := builtTree(t)

	if tr.Len() != 9 {
		t.Errorf("Len() = %d, want 9", tr.Len())
	}
	if err := tr.Validate([]rrgraph.NodeID{4, 8}); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
	if got := tr.PathTo(8); !slices.Equal(got, []rrgraph.NodeID{0, 1, 2, 6, 7, 8}) {
		t.Errorf("PathTo(8) = %v", got)
	}
	if !tr.ReExpandable(2) || tr.ReExpandable(3) || tr.ReExpandable(4) {
		t.Error("IPIN and SINK nodes must not be re-expandable, wires must")
	}
	if got := tr.Sinks(); len(got) != 2 {
		t.Errorf("Sinks() = %v, want two sinks", got)
	}
	h, _ := tr.Lookup(2)
	var kids []rrgraph.NodeID
	for c := range tr.Children(h) {
		kids = append(kids, tr.Node(c))
	}
	if len(kids) != 3 {
		t.Errorf("node 2 has children %v, want 3 (branch point)", kids)
	}
	xmin, ymin, xmax, ymax, ok := tr.Extent()
	if !ok || xmin != 0 || ymin != 0 || xmax != 1 || ymax != 0 {
		t.Errorf("Extent() = %d,%d,%d,%d,%v", xmin, ymin, xmax, ymax, ok)
	}
}

func TestAddBranchRejectsCorruptPaths(t *testing.T) {
	tr := builtTree(t)
	if _, err := tr.AddBranch(4, hops(2)); !errors.Is(err, ErrCycle) {
		t.Errorf("AddBranch(revisit) = %v, want ErrCycle", err)
	}
	tr2 := New(testGraph(t))
	tr2.Reset(0)
	if _, err := tr2.AddBranch(0, hops(1, 2, 1)); !errors.Is(err, ErrCycle) {
		t.Errorf("AddBranch(self-revisit) = %v, want ErrCycle", err)
	}
	if tr2.Len() != 1 {
		t.Errorf("failed AddBranch left %d nodes, want 1", tr2.Len())
	}
	if _, err := tr2.AddBranch(6, hops(7)); !errors.Is(err, ErrDetached) {
		t.Errorf("AddBranch(detached) = %v, want ErrDetached", err)
	}
}

func TestValidateFailures(t *testing.T) {
	tr := builtTree(t)
	if err := tr.Validate([]rrgraph.NodeID{4, 8, 3}); err != nil {
		t.Errorf("Validate(IPIN as target) = %v, want nil: any node in the tree counts", err)
	}
	tr2 := New(testGraph(t))
	tr2.Reset(0)
	if err := tr2.Validate([]rrgraph.NodeID{4}); err == nil {
		t.Error("Validate() = nil with sink 4 missing")
	}

	bad := New(testGraph(t))
	bad.Reset(0)
	bad.AddBranch(0, []Hop{{Node: 2, Switch: cfg}}) // no edge 0 -> 2
	if err := bad.Validate(nil); !errors.Is(err, ErrMissingEdge) {
		t.Errorf("Validate() = %v, want ErrMissingEdge", err)
	}

	wrongRoot := New(testGraph(t))
	wrongRoot.Reset(2)
	if err := wrongRoot.Validate(nil); !errors.Is(err, ErrBadRoot) {
		t.Errorf("Validate() = %v, want ErrBadRoot", err)
	}
}

func TestPruneKeepsLegalTree(t *testing.T) {
	tr := builtTree(t)
	removed := tr.Prune(func(rrgraph.NodeID) bool { return false })
	if len(removed) != 0 {
		t.Errorf("Prune() removed %v from an uncongested tree", removed)
	}
	if !tr.Contains(5) {
		t.Error("stub 5 pruned although its set is in use")
	}
}

func TestPruneCongestedBranch(t *testing.T) {
	tr := builtTree(t)
	removed := tr.Prune(func(n rrgraph.NodeID) bool { return n == 3 })
	slices.Sort(removed)
	if !slices.Equal(removed, []rrgraph.NodeID{3, 4}) {
		t.Errorf("Prune() removed %v, want [3 4]", removed)
	}
	if !tr.Contains(5) || !tr.Contains(8) {
		t.Error("Prune() removed nodes off the congested branch")
	}
	if err := tr.Validate([]rrgraph.NodeID{8}); err != nil {
		t.Errorf("Validate() after prune: %v", err)
	}

	// Losing the last configurable use of {2, 5} releases the stub too, and
	// with no sink left the whole tree goes.
	removed = tr.Prune(func(n rrgraph.NodeID) bool { return n == 7 })
	slices.Sort(removed)
	if !slices.Equal(removed, []rrgraph.NodeID{0, 1, 2, 5, 6, 7, 8}) {
		t.Errorf("Prune() removed %v, want [0 1 2 5 6 7 8]", removed)
	}
	if !tr.Empty() || tr.Len() != 0 {
		t.Errorf("tree not empty after pruning every sink: len %d", tr.Len())
	}
}

func TestArenaReuse(t *testing.T) {
	tr := builtTree(t)
	tr.Prune(func(n rrgraph.NodeID) bool { return n == 3 })
	before := len(tr.arena)
	if _, err := tr.AddBranch(2, hops(3, 4)); err != nil {
		t.Fatalf("AddBranch() error: %v", err)
	}
	if len(tr.arena) != before {
		t.Errorf("arena grew from %d to %d; released handles not reused", before, len(tr.arena))
	}
	if err := tr.Validate([]rrgraph.NodeID{4, 8}); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestCommitRipUp(t *testing.T) {
	tr := builtTree(t)
	occ := occMap{}
	tr.Commit(occ)
	for n := range rrgraph.NodeID(9) {
		if occ[n] != 1 {
			t.Errorf("occ[%d] = %d after Commit, want 1", n, occ[n])
		}
	}
	tr.RipUp(occ)
	for n, v := range occ {
		if v != 0 {
			t.Errorf("occ[%d] = %d after RipUp, want 0", n, v)
		}
	}
	if !tr.Empty() {
		t.Error("tree not empty after RipUp")
	}
}

func TestCloneEqual(t *testing.T) {
	a := builtTree(t)
	b := a.Clone()
	if !a.Equal(b) {
		t.Fatal("clone not equal to original")
	}
	b.Prune(func(n rrgraph.NodeID) bool { return n == 3 })
	if a.Equal(b) {
		t.Error("pruned clone still equal")
	}
	if !a.Contains(3) {
		t.Error("pruning the clone changed the original")
	}

	// Same edges built in a different order compare equal.
	c := New(a.g)
	c.Reset(0)
	c.AddBranch(0, hops(1, 2, 6, 7, 8))
	c.AddBranch(2, hops(3, 4))
	if !a.Equal(c) {
		t.Error("trees with the same edges in different order not equal")
	}
}

func TestFromEdges(t *testing.T) {
	a := builtTree(t)
	b, err := FromEdges(a.g, a.Source(), slices.Collect(a.Edges()))
	if err != nil {
		t.Fatalf("FromEdges: %v", err)
	}
	if !a.Equal(b) {
		t.Error("rebuilt tree differs from original")
	}

	edges := slices.Collect(a.Edges())
	slices.Reverse(edges)
	if _, err := FromEdges(a.g, a.Source(), edges); err == nil {
		t.Error("FromEdges accepted children before parents")
	}
}

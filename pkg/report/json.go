package report

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/router"
	"github.com/matzehuels/fpgaroute/pkg/routetree"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

type edgeFile struct {
	From   rrgraph.NodeID   `json:"from"`
	To     rrgraph.NodeID   `json:"to"`
	Switch rrgraph.SwitchID `json:"switch"`
}

type netFile struct {
	router.NetResult
	Source rrgraph.NodeID `json:"source"`
	Edges  []edgeFile     `json:"edges,omitempty"`
}

type resultFile struct {
	*router.Result
	Nets []netFile `json:"nets"`
}

// MarshalResult encodes res as JSON, each net's tree as its source and its
// edges in depth-first order.
func MarshalResult(res *router.Result) ([]byte, error) {
	f := resultFile{Result: res, Nets: make([]netFile, len(res.Nets))}
	for i, n := range res.Nets {
		nf := netFile{NetResult: n, Source: rrgraph.InvalidNode}
		if n.Tree != nil && !n.Tree.Empty() {
			nf.Source = n.Tree.Source()
			for e := range n.Tree.Edges() {
				nf.Edges = append(nf.Edges, edgeFile{From: e.From, To: e.To, Switch: e.Switch})
			}
		}
		f.Nets[i] = nf
	}
	return json.MarshalIndent(f, "", "  ")
}

// UnmarshalResult decodes a result written by MarshalResult and rebuilds
// its trees over g. Edges that do not exist in g are an INVALID_INPUT
// error: the result was routed on another graph.
func UnmarshalResult(data []byte, g *rrgraph.Graph) (*router.Result, error) {
	f := resultFile{Result: &router.Result{}}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode routing result")
	}
	res := f.Result
	res.Nets = make([]router.NetResult, len(f.Nets))
	for i, nf := range f.Nets {
		n := nf.NetResult
		if nf.Source == rrgraph.InvalidNode {
			n.Tree = routetree.New(g)
		} else {
			if int(nf.Source) < 0 || int(nf.Source) >= g.NumNodes() {
				return nil, errors.New(errors.ErrCodeInvalidInput, "net %s: source %d not in graph", n.Name, nf.Source)
			}
			edges := make([]routetree.Edge, len(nf.Edges))
			for j, e := range nf.Edges {
				if int(e.From) < 0 || int(e.From) >= g.NumNodes() || int(e.To) < 0 || int(e.To) >= g.NumNodes() {
					return nil, errors.New(errors.ErrCodeInvalidInput, "net %s: edge %d->%d not in graph", n.Name, e.From, e.To)
				}
				edges[j] = routetree.Edge{From: e.From, To: e.To, Switch: e.Switch}
			}
			t, err := routetree.FromEdges(g, nf.Source, edges)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "net %s", n.Name)
			}
			n.Tree = t
		}
		res.Nets[i] = n
	}
	return res, nil
}

// Summary is the compact verdict printed by the CLI and served with
// results.
type Summary struct {
	Status     router.Status `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	Iterations int           `json:"iterations"`
	Nets       int           `json:"nets"`
	Routed     int           `json:"routed"`
	Wirelength int           `json:"wirelength"`
	Overused   int           `json:"overused"`
	Searches   int64         `json:"searches"`
	HeapPops   int64         `json:"heap_pops"`
}

// Summarize condenses res.
func Summarize(res *router.Result) Summary {
	return Summary{
		Status:     res.Status,
		Reason:     res.Reason,
		Iterations: res.Iterations,
		Nets:       len(res.Nets),
		Routed:     len(res.Nets) - len(res.Failed()),
		Wirelength: res.Wirelength,
		Overused:   len(res.Overused),
		Searches:   res.Stats.Searches,
		HeapPops:   res.Stats.Pops,
	}
}

// String renders the summary on one line.
func (s Summary) String() string {
	out := fmt.Sprintf("%s after %d iterations: %d/%d nets routed, wirelength %d", s.Status, s.Iterations, s.Routed, s.Nets, s.Wirelength)
	if s.Overused > 0 {
		out += fmt.Sprintf(", %d nodes over capacity", s.Overused)
	}
	return out
}

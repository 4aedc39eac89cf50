package maze

import (
	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// entry is a priority queue element. Entries are ordered by total cost,
// then by lower node ID, then by push order, which makes pop order a total
// order independent of heap layout.
type entry struct {
	total    float64
	backward float64
	node     rrgraph.NodeID
	seq      uint64
}

func (a *entry) less(b *entry) bool {
	if a.total != b.total {
		return a.total < b.total
	}
	if a.node != b.node {
		return a.node < b.node
	}
	return a.seq < b.seq
}

// minHeap is a concrete-typed binary heap; container/heap would box every
// entry through an interface.
type minHeap struct {
	items []entry
	seq   uint64
}

func (h *minHeap) Len() int { return len(h.items) }

func (h *minHeap) Push(node rrgraph.NodeID, total, backward float64) {
	h.seq++
	h.items = append(h.items, entry{total: total, backward: backward, node: node, seq: h.seq})
	h.siftUp(len(h.items) - 1)
}

func (h *minHeap) Pop() entry {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
		if h.items[0].less(&item) {
			errors.Invariant("heap order broken: popped node %d (%g) ahead of node %d (%g)",
				item.node, item.total, h.items[0].node, h.items[0].total)
		}
	}
	return item
}

func (h *minHeap) Reset() {
	h.items = h.items[:0]
	h.seq = 0
}

func (h *minHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.items[i].less(&h.items[parent]) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *minHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.items[left].less(&h.items[smallest]) {
			smallest = left
		}
		if right < n && h.items[right].less(&h.items[smallest]) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

package cfg

import (
	"slices"

	"github.com/aretw0/furrow/pkg/ports"
)

// naturalLoops finds the natural loops reachable from the entry.
//
// A back edge is an edge A->B where B dominates A; B is the loop header.
// The body is every block that reaches a back-edge source without passing
// through the header. Loops sharing a header are merged.
func naturalLoops(g *Graph) []ports.Loop {
	order := reversePostorder(g)
	if len(order) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(order))
	for i, addr := range order {
		index[addr] = i
	}
	preds := make(map[uint64][]uint64, len(order))
	for _, addr := range order {
		for _, to := range g.blocks[addr].Edges() {
			if _, ok := index[to]; ok {
				preds[to] = append(preds[to], addr)
			}
		}
	}
	idom := dominators(order, index, preds)

	sources := make(map[uint64][]uint64)
	var headers []uint64
	for _, addr := range order {
		for _, to := range g.blocks[addr].Edges() {
			if _, ok := index[to]; !ok || !dominates(idom, to, addr) {
				continue
			}
			if _, seen := sources[to]; !seen {
				headers = append(headers, to)
			}
			sources[to] = append(sources[to], addr)
		}
	}

	// Outer headers precede the headers nested inside them in reverse postorder.
	slices.SortFunc(headers, func(a, b uint64) int { return index[a] - index[b] })

	loops := make([]ports.Loop, 0, len(headers))
	for _, h := range headers {
		loops = append(loops, ports.Loop{Entry: h, Body: loopBody(h, sources[h], preds)})
	}
	return loops
}

func loopBody(header uint64, sources []uint64, preds map[uint64][]uint64) []uint64 {
	body := map[uint64]bool{header: true}
	var worklist []uint64
	for _, src := range sources {
		if !body[src] {
			body[src] = true
			worklist = append(worklist, src)
		}
	}
	for len(worklist) > 0 {
		n := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, p := range preds[n] {
			if !body[p] {
				body[p] = true
				worklist = append(worklist, p)
			}
		}
	}

	out := make([]uint64, 0, len(body))
	for addr := range body {
		out = append(out, addr)
	}
	slices.Sort(out)
	return out
}

// reversePostorder walks the graph depth-first from the entry without recursion.
func reversePostorder(g *Graph) []uint64 {
	type frame struct {
		addr uint64
		next int
	}
	visited := map[uint64]bool{g.entry: true}
	stack := []frame{{addr: g.entry}}
	var post []uint64

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		edges := g.blocks[top.addr].Edges()
		if top.next < len(edges) {
			to := edges[top.next]
			top.next++
			if _, ok := g.blocks[to]; ok && !visited[to] {
				visited[to] = true
				stack = append(stack, frame{addr: to})
			}
			continue
		}
		post = append(post, top.addr)
		stack = stack[:len(stack)-1]
	}

	slices.Reverse(post)
	return post
}

// dominators computes immediate dominators with the iterative algorithm of
// Cooper, Harvey and Kennedy. order must be a reverse postorder.
func dominators(order []uint64, index map[uint64]int, preds map[uint64][]uint64) map[uint64]uint64 {
	entry := order[0]
	idom := map[uint64]uint64{entry: entry}
	intersect := func(a, b uint64) uint64 {
		for a != b {
			for index[a] > index[b] {
				a = idom[a]
			}
			for index[b] > index[a] {
				b = idom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for _, n := range order[1:] {
			var next uint64
			found := false
			for _, p := range preds[n] {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !found {
					next, found = p, true
					continue
				}
				next = intersect(p, next)
			}
			if found {
				if cur, ok := idom[n]; !ok || cur != next {
					idom[n] = next
					changed = true
				}
			}
		}
	}
	return idom
}

// dominates reports whether a dominates b.
func dominates(idom map[uint64]uint64, a, b uint64) bool {
	for {
		if a == b {
			return true
		}
		parent, ok := idom[b]
		if !ok || parent == b {
			return false
		}
		b = parent
	}
}

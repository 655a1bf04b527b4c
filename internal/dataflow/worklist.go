package dataflow

// Graph is the minimal CFG shape a worklist pass needs: block count plus
// predecessor/successor lookups. internal/mir's Function.Graph() view
// implements it.
type Graph interface {
	NumBlocks() int
	Successors(block int) []int
	Predecessors(block int) []int
}

// RunForward drives a classic forward worklist fixpoint: entry(block) is
// computed by merging exit facts of all predecessors (merge), transfer(block,
// entry) produces the exit fact for that block, and the pass repeats until no
// block's exit fact changes. Every block with no predecessors (normally
// block 0, the function entry) takes initial() as its entry fact.
//
// Grounded on the teacher's asyncify liveness analyzer's backward worklist
// (asyncify/internal/engine/liveness.go): same fixpoint-over-bitsets shape,
// run forward instead of backward for DropLowering's moved-out sets
// (spec.md §4.3).
func RunForward(g Graph, initial func() *BitSet, merge func(a, b *BitSet) *BitSet, transfer func(block int, entry *BitSet) *BitSet) []*BitSet {
	n := g.NumBlocks()
	entry := make([]*BitSet, n)
	exit := make([]*BitSet, n)
	for i := 0; i < n; i++ {
		exit[i] = initial()
	}

	worklist := make([]int, n)
	queued := make([]bool, n)
	for i := 0; i < n; i++ {
		worklist[i] = i
		queued[i] = true
	}

	for len(worklist) > 0 {
		block := worklist[0]
		worklist = worklist[1:]
		queued[block] = false

		var merged *BitSet
		preds := g.Predecessors(block)
		if len(preds) == 0 {
			merged = initial()
		} else {
			merged = exit[preds[0]].Clone()
			for _, p := range preds[1:] {
				merged = merge(merged, exit[p])
			}
		}
		entry[block] = merged

		newExit := transfer(block, merged)
		if exit[block] == nil || !newExit.Equal(exit[block]) {
			exit[block] = newExit
			for _, succ := range g.Successors(block) {
				if !queued[succ] {
					worklist = append(worklist, succ)
					queued[succ] = true
				}
			}
		}
	}

	return entry
}

package gifenc

// bin is one histogram bucket. While the histogram is being built, ac/
// rc/gc/bc/cnt accumulate channel sums and a pixel count; once
// buildHistogram compacts them they hold per-bin means and a (possibly
// sqrt-weighted) cluster weight instead. fw/bk thread the surviving
// bins into a doubly linked list in index order; nn/err cache the
// nearest neighbor and the merge error to it; tm/mtm are the
// "stored-at" and "last-modified" merge-loop timestamps the heap pop
// loop uses to decide whether a cached err is stale.
type bin struct {
	ac, rc, gc, bc float64
	cnt            float64

	fw, bk int
	nn     int
	err    float64
	tm     int
	mtm    int
}

func (b *bin) mean() Color {
	return Color{
		R: clampChannel(b.rc),
		G: clampChannel(b.gc),
		B: clampChannel(b.bc),
		A: clampChannel(b.ac),
	}
}

func clampChannel(v float64) uint8 {
	r := int(v + 0.5)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return uint8(r)
}

// mergeErr is Ward's criterion: the increase in within-cluster sum of
// squares from merging bins a and b, n1*n2/(n1+n2) * ||mean_a -
// mean_b||^2 over the channels hasAlpha selects.
func mergeErr(a, b *bin, hasAlpha bool) float64 {
	n1, n2 := a.cnt, b.cnt
	if n1 == 0 || n2 == 0 {
		return 0
	}
	dr := a.rc - b.rc
	dg := a.gc - b.gc
	db := a.bc - b.bc
	sum := dr*dr + dg*dg + db*db
	if hasAlpha {
		da := a.ac - b.ac
		sum += da * da
	}
	return n1 * n2 / (n1 + n2) * sum
}

// binHeap is a container/heap.Interface over bin *indices*, ordered by
// err. The huffman encoder elsewhere in the corpus uses the same
// index-into-a-backing-slice shape for its heap.Interface.
type binHeap struct {
	idx  []int
	bins []bin
}

func (h *binHeap) Len() int            { return len(h.idx) }
func (h *binHeap) Less(i, j int) bool  { return h.bins[h.idx[i]].err < h.bins[h.idx[j]].err }
func (h *binHeap) Swap(i, j int)       { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }
func (h *binHeap) Push(x interface{})  { h.idx = append(h.idx, x.(int)) }
func (h *binHeap) Pop() interface{} {
	n := len(h.idx)
	last := h.idx[n-1]
	h.idx = h.idx[:n-1]
	return last
}

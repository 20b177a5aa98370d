package gifenc

import (
	"container/heap"
	"math"
)

// QuantizeOptions configures Quantize. The zero value selects
// rgb565, sqrt-weighting auto-chosen by the maxColors/bin-count
// heuristic, and no alpha post-processing.
type QuantizeOptions struct {
	Format Format

	// UseSqrt overrides the default sqrt-of-count cluster weighting.
	// nil means "default true, subject to the auto-disable heuristic"
	// (see useSqrtFor).
	UseSqrt *bool

	// OneBitAlpha snaps each palette entry's alpha to 0 or 255 based
	// on OneBitAlphaThreshold (default 127 when left at zero). Only
	// meaningful when Format is FormatRGBA4444.
	OneBitAlpha          bool
	OneBitAlphaThreshold uint8

	// ClearAlpha replaces a near-transparent palette entry's RGB with
	// ClearAlphaColor and forces its alpha to 0, when the entry's
	// alpha is at or below ClearAlphaThreshold. Only meaningful when
	// Format is FormatRGBA4444.
	ClearAlpha          bool
	ClearAlphaThreshold uint8
	ClearAlphaColor     Color
}

// useSqrtDisableRatio is the empirical auto-disable threshold for
// sqrt-count weighting, carried over verbatim from the reference
// algorithm this package implements.
const useSqrtDisableRatio = 0.022

func (o QuantizeOptions) useSqrtFor(maxColors, maxbins int) bool {
	use := true
	if o.UseSqrt != nil {
		use = *o.UseSqrt
	}
	if use && maxbins > 0 && float64(maxColors*maxColors)/float64(maxbins) < useSqrtDisableRatio {
		use = false
	}
	return use
}

// Quantize reduces the distinct colors of an RGBA frame to a palette
// of at most maxColors entries using pairwise-nearest-neighbor (PNN)
// agglomerative clustering: build a histogram over rgba's packed
// colors, then repeatedly merge the two bins whose merge minimizes
// the increase in within-cluster squared error (Ward's criterion)
// until maxbins-maxColors merges have happened.
//
// rgba must have length a multiple of 4 (row-major RGBA bytes); this
// is the only input validity gifenc can check given Go's type system
// already guarantees a real backing array. maxColors must be >= 1.
// If the frame has fewer than maxColors distinct colors, the returned
// palette has fewer than maxColors entries.
func Quantize(rgba []byte, maxColors int, opts QuantizeOptions) ([]Color, error) {
	if len(rgba)%4 != 0 {
		return nil, newError(ErrInvalidInput, "rgba length %d is not a multiple of 4", len(rgba))
	}
	if maxColors < 1 {
		return nil, newError(ErrInvalidInput, "maxColors must be >= 1, got %d", maxColors)
	}

	hasAlpha := opts.Format.HasAlpha()
	bins, maxbins := buildHistogram(rgba, opts.Format)
	if maxbins == 0 {
		return nil, nil
	}

	useSqrt := opts.useSqrtFor(maxColors, maxbins)
	if useSqrt {
		for i := 1; i <= maxbins; i++ {
			bins[i].cnt = math.Sqrt(bins[i].cnt)
		}
	}

	linkBins(bins, maxbins)

	merges := maxbins - maxColors
	if merges > 0 {
		pnnMerge(bins, maxbins, merges, hasAlpha)
	}

	return emitPalette(bins, opts, hasAlpha), nil
}

// buildHistogram buckets rgba's pixels by packed key into a dense
// array sized to the format's key space, then compacts the nonempty
// buckets into a 1-indexed arena (index 0 is an unused list-head
// sentinel, matching the "walk from index 0 via fw, stop at fw==0"
// convention the merge and emit steps use). Channel fields hold
// per-bin sums on return from the dense pass and are converted to
// means while compacting.
func buildHistogram(rgba []byte, format Format) ([]bin, int) {
	dense := make([]bin, format.keySpace())
	for p := 0; p+3 < len(rgba); p += 4 {
		r, g, b, a := rgba[p], rgba[p+1], rgba[p+2], rgba[p+3]
		key := packedKey(Color{R: r, G: g, B: b, A: a}, format)
		h := &dense[key]
		h.rc += float64(r)
		h.gc += float64(g)
		h.bc += float64(b)
		h.ac += float64(a)
		h.cnt++
	}

	bins := make([]bin, 1, 257)
	for i := range dense {
		if dense[i].cnt == 0 {
			continue
		}
		h := dense[i]
		n := h.cnt
		bins = append(bins, bin{
			rc:  h.rc / n,
			gc:  h.gc / n,
			bc:  h.bc / n,
			ac:  h.ac / n,
			cnt: n,
		})
	}
	return bins, len(bins) - 1
}

// linkBins threads bins[1..maxbins] into a doubly linked list in
// index order, with bins[0] as the head sentinel.
func linkBins(bins []bin, maxbins int) {
	bins[0].fw = 0
	if maxbins == 0 {
		return
	}
	bins[0].fw = 1
	for i := 1; i <= maxbins; i++ {
		bins[i].bk = i - 1
		if i < maxbins {
			bins[i].fw = i + 1
		} else {
			bins[i].fw = 0
		}
	}
}

// mergeErrEarlyExit computes mergeErr(a,b) but returns as soon as the
// running partial sum exceeds bestSoFar, in which case the returned
// value is only a lower bound — adequate for the caller's "is this
// better than what I have" comparison, which is the only thing it's
// used for.
func mergeErrEarlyExit(a, b *bin, hasAlpha bool, bestSoFar float64) float64 {
	n1, n2 := a.cnt, b.cnt
	if n1 == 0 || n2 == 0 {
		return 0
	}
	factor := n1 * n2 / (n1 + n2)

	dr := a.rc - b.rc
	sum := dr * dr
	if factor*sum >= bestSoFar {
		return factor * sum
	}
	dg := a.gc - b.gc
	sum += dg * dg
	if factor*sum >= bestSoFar {
		return factor * sum
	}
	db := a.bc - b.bc
	sum += db * db
	if hasAlpha {
		if factor*sum >= bestSoFar {
			return factor * sum
		}
		da := a.ac - b.ac
		sum += da * da
	}
	return factor * sum
}

// findNearestNeighbor searches only the forward list from i+1 onward
// (spec's deliberate asymmetric scan, see DESIGN.md Open Question
// decisions) for the bin minimizing mergeErr with bins[i].
func findNearestNeighbor(bins []bin, i int, hasAlpha bool) (nn int, err float64) {
	nn = 0
	err = math.Inf(1)
	for j := bins[i].fw; j != 0; j = bins[j].fw {
		e := mergeErrEarlyExit(&bins[i], &bins[j], hasAlpha, err)
		if e < err {
			err = e
			nn = j
		}
	}
	return
}

// pnnMerge repeatedly pops the heap's minimum-error candidate,
// lazily revalidating staleness via the tm/mtm timestamps before
// accepting it, and merges it with its nearest neighbor. It performs
// exactly `merges` merges, each reducing the live bin count by one.
func pnnMerge(bins []bin, maxbins, merges int, hasAlpha bool) {
	h := &binHeap{bins: bins}
	h.idx = make([]int, 0, maxbins)
	for i := 1; i <= maxbins; i++ {
		bins[i].nn, bins[i].err = findNearestNeighbor(bins, i, hasAlpha)
		h.idx = append(h.idx, i)
	}
	heap.Init(h)

	bincount := maxbins
	step := 0
	for ; step < merges; step++ {
		var b1 int
		for {
			b1 = h.idx[0]
			if bins[b1].mtm == bincount-1 {
				heap.Pop(h)
				continue
			}
			nn := bins[b1].nn
			if bins[b1].tm >= bins[b1].mtm && bins[nn].mtm <= bins[b1].tm {
				break
			}
			bins[b1].nn, bins[b1].err = findNearestNeighbor(bins, b1, hasAlpha)
			bins[b1].tm = step
			heap.Fix(h, 0)
		}

		nb := bins[b1].nn
		mergeInto(bins, b1, nb)
		bins[b1].mtm = step + 1
		unlink(bins, nb)
		bins[nb].mtm = bincount - 1
	}
}

// mergeInto folds nb's channel means and count into b1's, weighted by
// pixel count (d*(n1*m1 + n2*m2), d = 1/(n1+n2)).
func mergeInto(bins []bin, b1, nb int) {
	n1, n2 := bins[b1].cnt, bins[nb].cnt
	d := 1 / (n1 + n2)
	bins[b1].rc = d * (n1*bins[b1].rc + n2*bins[nb].rc)
	bins[b1].gc = d * (n1*bins[b1].gc + n2*bins[nb].gc)
	bins[b1].bc = d * (n1*bins[b1].bc + n2*bins[nb].bc)
	bins[b1].ac = d * (n1*bins[b1].ac + n2*bins[nb].ac)
	bins[b1].cnt = n1 + n2
}

func unlink(bins []bin, nb int) {
	bk, fw := bins[nb].bk, bins[nb].fw
	bins[bk].fw = fw
	if fw != 0 {
		bins[fw].bk = bk
	}
}

// emitPalette walks the surviving bins in list order, applying
// optional one-bit-alpha snapping and alpha clearing, and
// deduplicating exact-equal colors.
func emitPalette(bins []bin, opts QuantizeOptions, hasAlpha bool) []Color {
	out := make([]Color, 0, 256)
	for j := bins[0].fw; j != 0; j = bins[j].fw {
		c := bins[j].mean()
		if hasAlpha {
			if opts.OneBitAlpha {
				threshold := opts.OneBitAlphaThreshold
				if threshold == 0 {
					threshold = 127
				}
				if c.A <= threshold {
					c.A = 0
				} else {
					c.A = 255
				}
			}
			if opts.ClearAlpha && c.A <= opts.ClearAlphaThreshold {
				c.R, c.G, c.B = opts.ClearAlphaColor.R, opts.ClearAlphaColor.G, opts.ClearAlphaColor.B
				c.A = 0
			}
		} else {
			c.A = 255
		}

		dup := false
		for _, existing := range out {
			if existing.R == c.R && existing.G == c.G && existing.B == c.B &&
				(!hasAlpha || existing.A == c.A) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

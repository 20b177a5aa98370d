package gifenc

import "math"

// ApplyPalette maps each pixel of rgba to the index of its nearest
// entry in palette (squared Euclidean distance), returning one byte
// per pixel. It accelerates repeated colors with a packed-key cache:
// the first pixel seen with a given packed key pays for a full linear
// scan over palette, and every later pixel sharing that key reuses
// the cached index — the same shape as the ManInM00N-nicogif
// reference's findClosestRGB/indexPixels.
func ApplyPalette(rgba []byte, palette []Color, format Format) ([]byte, error) {
	if len(rgba)%4 != 0 {
		return nil, newError(ErrInvalidInput, "rgba length %d is not a multiple of 4", len(rgba))
	}
	if len(palette) > 256 {
		return nil, newError(ErrInvalidInput, "palette has %d entries, max is 256", len(palette))
	}
	if len(palette) == 0 {
		return make([]byte, len(rgba)/4), nil
	}

	hasAlpha := format.HasAlpha()
	cache := make([]int16, format.keySpace())
	for i := range cache {
		cache[i] = -1
	}

	out := make([]byte, len(rgba)/4)
	for p, o := 0, 0; p+3 < len(rgba); p, o = p+4, o+1 {
		r, g, b, a := rgba[p], rgba[p+1], rgba[p+2], rgba[p+3]
		c := Color{R: r, G: g, B: b, A: a}
		key := packedKey(c, format)
		idx := cache[key]
		if idx < 0 {
			idx = int16(nearestPaletteIndex(c, palette, hasAlpha))
			cache[key] = idx
		}
		out[o] = byte(idx)
	}
	return out, nil
}

// nearestPaletteIndex scans palette for the entry closest to c by
// squared distance, starting the running sum from the alpha term when
// hasAlpha (the tightest-discriminating channel per spec §4.4) so the
// early-continue below it can reject most candidates after one
// comparison. Ties resolve to the earlier index.
func nearestPaletteIndex(c Color, palette []Color, hasAlpha bool) int {
	best := 0
	bestDist := math.MaxInt64
	for i, p := range palette {
		var d int
		if hasAlpha {
			da := int(c.A) - int(p.A)
			d = da * da
			if d >= bestDist {
				continue
			}
		}
		dr := int(c.R) - int(p.R)
		d += dr * dr
		if d >= bestDist {
			continue
		}
		dg := int(c.G) - int(p.G)
		d += dg * dg
		if d >= bestDist {
			continue
		}
		db := int(c.B) - int(p.B)
		d += db * db
		if d >= bestDist {
			continue
		}
		bestDist = d
		best = i
	}
	return best
}

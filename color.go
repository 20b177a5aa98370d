package gifenc

import "math"

// Format selects which packed-key function a component uses to derive
// histogram and cache keys from a color.
type Format int

const (
	// FormatRGB565 packs r,g,b into 16 bits, 5/6/5 per channel.
	FormatRGB565 Format = iota
	// FormatRGB444 packs r,g,b into 12 bits, 4 per channel.
	FormatRGB444
	// FormatRGBA4444 packs a,r,g,b into 16 bits, 4 per channel.
	FormatRGBA4444
)

// HasAlpha reports whether a format's packed key carries an alpha
// nibble, which is also the signal the quantizer uses to decide
// whether it should cluster on 3 or 4 channels.
func (f Format) HasAlpha() bool {
	return f == FormatRGBA4444
}

// Color is an RGBA color vector in [0,255] per channel. The RGB
// constructor sets A to 255; the distance and packing helpers read A
// as stored, so a Color literal that leaves A unset has alpha 0.
type Color struct {
	R, G, B, A uint8
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// RGB565 packs r,g,b into a 16-bit key collapsing the low-order bits
// of each channel: 5 bits red, 6 bits green, 5 bits blue.
func RGB565(r, g, b uint8) uint16 {
	return uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b>>3)
}

// RGB444 packs r,g,b into a 12-bit key, 4 bits per channel.
func RGB444(r, g, b uint8) uint16 {
	return uint16(r&0xF0)<<4 | uint16(g&0xF0) | uint16(b>>4)
}

// RGBA4444 packs a,r,g,b into a 16-bit key, 4 bits per channel, alpha
// in the high nibble.
func RGBA4444(r, g, b, a uint8) uint16 {
	return uint16(a&0xF0)<<8 | RGB444(r, g, b)
}

// packedKey derives the histogram/cache key for c under format.
func packedKey(c Color, format Format) uint16 {
	switch format {
	case FormatRGB565:
		return RGB565(c.R, c.G, c.B)
	case FormatRGBA4444:
		return RGBA4444(c.R, c.G, c.B, c.A)
	default:
		return RGB444(c.R, c.G, c.B)
	}
}

// keySpace returns the number of distinct keys a format's packed key
// can take, i.e. the size of a dense cache/histogram indexed by it.
func (f Format) keySpace() int {
	if f == FormatRGB565 || f == FormatRGBA4444 {
		return 1 << 16
	}
	return 1 << 12
}

// EuclideanDistSq returns the squared Euclidean distance between two
// colors over r,g,b,a. Alpha is compared as stored (see Color).
func EuclideanDistSq(a, b Color) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	da := int(a.A) - int(b.A)
	return dr*dr + dg*dg + db*db + da*da
}

// euclideanDistSqRGB is the 3-channel variant used when alpha isn't
// part of the comparison (e.g. snapColorsToPalette).
func euclideanDistSqRGB(a, b Color) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

// YIQDistSq converts both colors from RGB to the NTSC YIQ space and
// returns the weighted squared distance 0.5053*dY^2 + 0.299*dI^2 +
// 0.1957*dQ^2 + dAlpha^2. Nothing in this package calls it (palette
// snapping uses Euclidean distance); it is for external callers and is
// never on the quantizer's hot path.
func YIQDistSq(a, b Color) float64 {
	y1, i1, q1 := rgbToYIQ(a.R, a.G, a.B)
	y2, i2, q2 := rgbToYIQ(b.R, b.G, b.B)
	dy := y1 - y2
	di := i1 - i2
	dq := q1 - q2
	da := float64(int(a.A) - int(b.A))
	return 0.5053*dy*dy + 0.299*di*di + 0.1957*dq*dq + da*da
}

func rgbToYIQ(r, g, b uint8) (y, i, q float64) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	y = 0.29889531*rf + 0.58662247*gf + 0.11448223*bf
	i = 0.59597799*rf - 0.27417610*gf - 0.32180189*bf
	q = 0.21147017*rf - 0.52261711*gf + 0.31114694*bf
	return
}

// SnapColorsToPalette takes each known color in turn, finds its
// nearest palette entry (Euclidean, over r,g,b), and, if that entry
// lies within threshold but is not an exact match, overwrites its
// r,g,b in place with the known color, keeping the entry's alpha —
// used to pin well-known colors (brand marks,
// pure black/white) exactly instead of letting them drift during
// quantization. threshold is in color-distance units, not squared.
func SnapColorsToPalette(palette []Color, known []Color, threshold float64) {
	if threshold <= 0 {
		threshold = 5
	}
	thresholdSq := int(math.Round(threshold * threshold))
	for _, k := range known {
		best := -1
		bestDist := math.MaxInt64
		for i, p := range palette {
			d := euclideanDistSqRGB(k, p)
			if d < bestDist {
				bestDist = d
				best = i
			}
		}
		if best < 0 {
			continue
		}
		if bestDist > 0 && bestDist <= thresholdSq {
			replacement := k
			replacement.A = palette[best].A
			palette[best] = replacement
		}
	}
}

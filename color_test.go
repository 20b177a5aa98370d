package gifenc

import "testing"

func TestRGB565KeyFitsIn16Bits(t *testing.T) {
	cases := []Color{
		RGB(0, 0, 0),
		RGB(255, 255, 255),
		RGB(255, 0, 0),
		RGB(0, 255, 0),
		RGB(0, 0, 255),
		RGB(123, 45, 210),
	}
	for _, c := range cases {
		key := RGB565(c.R, c.G, c.B)
		if key > 0xFFFF {
			t.Fatalf("RGB565(%v) produced out-of-range key %d", c, key)
		}
	}
}

func TestRGB444AndRGBA4444KeySpaces(t *testing.T) {
	if got := FormatRGB444.keySpace(); got != 1<<12 {
		t.Errorf("FormatRGB444.keySpace() = %d, want %d", got, 1<<12)
	}
	if got := FormatRGBA4444.keySpace(); got != 1<<16 {
		t.Errorf("FormatRGBA4444.keySpace() = %d, want %d", got, 1<<16)
	}
	if got := FormatRGB565.keySpace(); got != 1<<16 {
		t.Errorf("FormatRGB565.keySpace() = %d, want %d", got, 1<<16)
	}
}

func TestFormatHasAlpha(t *testing.T) {
	if FormatRGB565.HasAlpha() || FormatRGB444.HasAlpha() {
		t.Error("RGB565/RGB444 must not report alpha support")
	}
	if !FormatRGBA4444.HasAlpha() {
		t.Error("RGBA4444 must report alpha support")
	}
}

func TestEuclideanDistSqIdenticalIsZero(t *testing.T) {
	c := RGB(10, 20, 30)
	if d := EuclideanDistSq(c, c); d != 0 {
		t.Errorf("EuclideanDistSq(c, c) = %d, want 0", d)
	}
}

func TestEuclideanDistSqSymmetric(t *testing.T) {
	a := RGB(10, 20, 30)
	b := Color{R: 200, G: 5, B: 90, A: 128}
	if EuclideanDistSq(a, b) != EuclideanDistSq(b, a) {
		t.Error("EuclideanDistSq must be symmetric")
	}
}

func TestYIQDistSqIdenticalIsZero(t *testing.T) {
	c := RGB(50, 60, 70)
	if d := YIQDistSq(c, c); d != 0 {
		t.Errorf("YIQDistSq(c, c) = %v, want 0", d)
	}
}

func TestSnapColorsToPaletteOverwritesWithinThreshold(t *testing.T) {
	palette := []Color{RGB(10, 10, 10), RGB(200, 200, 200)}
	known := []Color{RGB(0, 0, 0)}
	SnapColorsToPalette(palette, known, 20)

	if palette[0] != known[0] {
		t.Errorf("palette[0] = %v, want snap to %v", palette[0], known[0])
	}
	if palette[1] == known[0] {
		t.Error("palette[1] should not have snapped, it is far from known[0]")
	}
}

func TestSnapColorsToPaletteIgnoresExactMatches(t *testing.T) {
	palette := []Color{RGB(10, 10, 10)}
	known := []Color{RGB(10, 10, 10)}
	before := palette[0]
	SnapColorsToPalette(palette, known, 50)
	if palette[0] != before {
		t.Error("an already-exact match should not be rewritten")
	}
}

package gifenc

import "testing"

func TestApplyPaletteIndicesInRange(t *testing.T) {
	palette := []Color{RGB(0, 0, 0), RGB(255, 255, 255), RGB(128, 64, 32)}
	rgba := append(solidRGBA(4, 0, 0, 0, 255), solidRGBA(4, 255, 255, 255, 255)...)
	idx, err := ApplyPalette(rgba, palette, FormatRGB444)
	if err != nil {
		t.Fatalf("ApplyPalette: %v", err)
	}
	if len(idx) != len(rgba)/4 {
		t.Fatalf("len(idx) = %d, want %d", len(idx), len(rgba)/4)
	}
	for _, i := range idx {
		if int(i) >= len(palette) {
			t.Fatalf("index %d out of range for palette of %d entries", i, len(palette))
		}
	}
}

func TestApplyPaletteMapsToNearestColor(t *testing.T) {
	palette := []Color{RGB(0, 0, 0), RGB(255, 255, 255)}
	rgba := []byte{10, 10, 10, 255, 250, 250, 250, 255}
	idx, err := ApplyPalette(rgba, palette, FormatRGB444)
	if err != nil {
		t.Fatalf("ApplyPalette: %v", err)
	}
	if idx[0] != 0 {
		t.Errorf("near-black pixel mapped to index %d, want 0", idx[0])
	}
	if idx[1] != 1 {
		t.Errorf("near-white pixel mapped to index %d, want 1", idx[1])
	}
}

func TestApplyPaletteEmptyPaletteYieldsZeroedIndices(t *testing.T) {
	rgba := solidRGBA(3, 1, 2, 3, 255)
	idx, err := ApplyPalette(rgba, nil, FormatRGB444)
	if err != nil {
		t.Fatalf("ApplyPalette: %v", err)
	}
	for _, b := range idx {
		if b != 0 {
			t.Errorf("expected all-zero indices for an empty palette, got %v", idx)
		}
	}
}

func TestApplyPaletteRejectsOversizedPalette(t *testing.T) {
	palette := make([]Color, 257)
	_, err := ApplyPalette(solidRGBA(1, 0, 0, 0, 255), palette, FormatRGB444)
	if err == nil {
		t.Fatal("expected an error for a palette with more than 256 entries")
	}
}

func TestApplyPaletteRejectsUnalignedRGBA(t *testing.T) {
	palette := []Color{RGB(0, 0, 0)}
	_, err := ApplyPalette(make([]byte, 7), palette, FormatRGB444)
	if err == nil {
		t.Fatal("expected an error for rgba length not a multiple of 4")
	}
}

func TestApplyPaletteCacheConsistency(t *testing.T) {
	// Every pixel sharing a packed key must land on the same index,
	// whether or not it was the first of its key seen.
	palette := []Color{RGB(5, 5, 5), RGB(250, 250, 250), RGB(128, 128, 128)}
	rgba := make([]byte, 0, 30*4)
	for i := 0; i < 30; i++ {
		rgba = append(rgba, 4, 4, 4, 255)
	}
	idx, err := ApplyPalette(rgba, palette, FormatRGB444)
	if err != nil {
		t.Fatalf("ApplyPalette: %v", err)
	}
	for i, b := range idx {
		if b != idx[0] {
			t.Fatalf("idx[%d] = %d, want %d (same packed key as idx[0])", i, b, idx[0])
		}
	}
}

package gifenc

import (
	"bytes"
	"compress/lzw"
	"io"
	"testing"
)

// concatSubBlocks parses a GIF sub-block stream (size-prefixed chunks
// terminated by a zero-length chunk) starting at buf[0], returning the
// concatenated payload and the number of bytes consumed including the
// terminator.
func concatSubBlocks(buf []byte) (payload []byte, consumed int) {
	i := 0
	for {
		n := int(buf[i])
		i++
		if n == 0 {
			return payload, i
		}
		payload = append(payload, buf[i:i+n]...)
		i += n
	}
}

func lzwRoundTrip(t *testing.T, indices []byte, colorDepth int) []byte {
	t.Helper()
	out := newByteStream()
	e := newLZWEncoder()
	e.encode(out, indices, colorDepth)

	raw := out.bytes()
	minCodeSize := int(raw[0])
	payload, _ := concatSubBlocks(raw[1:])

	lr := lzw.NewReader(bytes.NewReader(payload), lzw.LSB, minCodeSize)
	defer lr.Close()
	got, err := io.ReadAll(lr)
	if err != nil {
		t.Fatalf("lzw.Reader: %v", err)
	}
	return got
}

func TestLZWEncodeRoundTripShortRun(t *testing.T) {
	indices := []byte{0, 0, 0, 1, 1, 2, 2, 2, 2}
	got := lzwRoundTrip(t, indices, 2)
	if !bytes.Equal(got, indices) {
		t.Fatalf("round trip = %v, want %v", got, indices)
	}
}

func TestLZWEncodeRoundTripAllSameIndex(t *testing.T) {
	indices := make([]byte, 500)
	got := lzwRoundTrip(t, indices, 8)
	if !bytes.Equal(got, indices) {
		t.Fatalf("round trip of a flat run mismatched at len %d", len(got))
	}
}

func TestLZWEncodeRoundTripForcesTableReset(t *testing.T) {
	// A long pseudo-random sequence of 2-bit-depth indices, long
	// enough that the dictionary should overflow 4096 entries and
	// trigger at least one clear-code reset mid-stream.
	indices := make([]byte, 20000)
	x := uint32(12345)
	for i := range indices {
		x = x*1664525 + 1013904223
		indices[i] = byte((x >> 24) & 0x03)
	}
	got := lzwRoundTrip(t, indices, 2)
	if !bytes.Equal(got, indices) {
		t.Fatal("round trip mismatched for a sequence expected to overflow the code table")
	}
}

func TestLZWEncodeRoundTripFullByteRangeIndices(t *testing.T) {
	// Every palette index from 0-255 appears, colorDepth=8 (an
	// 8-bit-deep palette), which pushes the hash probe's suffix well
	// past the range the narrower test cases exercise and is the
	// scenario that used to panic with an out-of-range htab index on
	// collision.
	indices := make([]byte, 8000)
	x := uint32(987654321)
	for i := range indices {
		x = x*1664525 + 1013904223
		indices[i] = byte(x >> 24)
	}
	got := lzwRoundTrip(t, indices, 8)
	if !bytes.Equal(got, indices) {
		t.Fatal("round trip mismatched for a full 0-255 index range at colorDepth=8")
	}
}

func TestLZWEncodeMinCodeSizeFloor(t *testing.T) {
	out := newByteStream()
	e := newLZWEncoder()
	e.encode(out, []byte{0}, 1)
	if got := out.bytes()[0]; got != 2 {
		t.Errorf("min code size byte = %d, want 2 (floor for colorDepth=1)", got)
	}
}

func TestLZWEncodeEmitsTerminatingSubBlock(t *testing.T) {
	out := newByteStream()
	e := newLZWEncoder()
	e.encode(out, []byte{0, 1, 0, 1}, 2)
	raw := out.bytes()
	if raw[len(raw)-1] != 0 {
		t.Errorf("last byte = %d, want 0 (terminating sub-block)", raw[len(raw)-1])
	}
}

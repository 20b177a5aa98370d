package gifenc

import "time"

// Protocol constants for the GIF89a block types this encoder emits.
// Values match the ones the extraction tool this package's decode-side
// test helper is adapted from (internal/giftest) parses — same wire
// protocol, opposite direction.
const (
	extIntroducer  = 0x21
	gceLabel       = 0xF9
	appLabel       = 0xFF
	imageSeparator = 0x2C
	trailerByte    = 0x3B
)

// DisposeAuto tells WriteFrame to derive the disposal method from
// whether the frame is transparent (0 when not, 2 when transparent),
// per spec.
const DisposeAuto = -1

// FrameOptions configures one WriteFrame call.
type FrameOptions struct {
	// Palette is this frame's color table. Required on the first
	// frame (it becomes the Global Color Table). On later frames, a
	// non-empty Palette is written as that frame's Local Color Table;
	// an empty Palette reuses the global one with no LCT emitted.
	Palette []Color

	// First overrides auto-detection of whether this is the first
	// frame written since the last Reset (or WriteHeader). Leave nil
	// to let the Encoder infer it from its own call history —
	// "auto mode". Set explicitly for "manual mode", where the
	// caller decides frame-by-frame (see WriteHeader).
	First *bool

	Transparent bool
	// TransparentIndex is the palette index to mark transparent.
	// Negative forces the frame non-transparent regardless of
	// Transparent.
	TransparentIndex int

	// Delay is how long this frame displays before the next,
	// quantized to GIF's 1/100s units.
	Delay time.Duration

	// Repeat sets the NETSCAPE2.0 loop count on the first frame only.
	// Nil (the default) omits the extension entirely; 0 loops forever;
	// N>0 plays N extra iterations beyond the first pass.
	Repeat *int

	// ColorDepth is the palette's bit depth; <= 0 defaults to 8.
	ColorDepth int

	// Dispose is the GIF disposal method (0-7). Nil or negative
	// derives it from transparency (DisposeAuto).
	Dispose *int
}

// Encoder assembles a GIF89a stream frame by frame. It is not safe
// for concurrent use. Its output stream and LZW scratch buffers are
// reused across frames; after every WriteFrame call that scratch is
// fully flushed, so there is no cross-frame residue to worry about.
type Encoder struct {
	out *byteStream
	lzw *lzwEncoder

	first         bool
	headerWritten bool
	canvasWidth   int
	canvasHeight  int
}

// NewEncoder returns an Encoder ready for its first WriteFrame call.
func NewEncoder() *Encoder {
	return &Encoder{
		out: newByteStream(),
		lzw: newLZWEncoder(),
		first: true,
	}
}

// Reset clears the stream and returns the Encoder to its just-created
// state. Call it before reusing an Encoder after a WriteFrame call
// returned an error — this package makes no partial-output-recovery
// guarantees.
func (e *Encoder) Reset() {
	e.out.reset()
	e.first = true
	e.headerWritten = false
	e.canvasWidth = 0
	e.canvasHeight = 0
}

// WriteHeader writes the six-byte GIF89a signature. Auto mode calls
// this itself on the first WriteFrame; manual-mode callers that want
// to control frame boundaries with opts.First call it once up front.
func (e *Encoder) WriteHeader() {
	e.out.writeString("GIF89a")
	e.headerWritten = true
}

// Finish appends the GIF trailer byte. The stream is not a valid GIF
// until this is called.
func (e *Encoder) Finish() {
	e.out.writeByte(trailerByte)
}

// Bytes returns a copy of the stream written so far.
func (e *Encoder) Bytes() []byte { return e.out.bytes() }

// BytesView returns the stream written so far without copying. The
// caller must not retain it across further Encoder calls.
func (e *Encoder) BytesView() []byte { return e.out.bytesView() }

// WriteFrame appends one frame: a Graphic Control Extension, an Image
// Descriptor, an optional Local Color Table, and LZW-compressed image
// data for indices (already palette-indexed pixel bytes, row-major,
// length width*height). On the first frame (per opts.First or
// auto-detection) it first writes the header, Logical Screen
// Descriptor, Global Color Table, and — if opts.Repeat >= 0 — the
// NETSCAPE2.0 loop extension.
func (e *Encoder) WriteFrame(indices []byte, width, height int, opts FrameOptions) error {
	if len(indices) != width*height {
		return newError(ErrInvalidInput, "indices length %d does not match %dx%d", len(indices), width, height)
	}
	if len(opts.Palette) > 256 {
		return newError(ErrInvalidInput, "palette has %d entries, max is 256", len(opts.Palette))
	}

	isFirst := e.first
	if opts.First != nil {
		isFirst = *opts.First
	}

	colorDepth := opts.ColorDepth
	if colorDepth <= 0 {
		colorDepth = 8
	}

	if isFirst {
		if len(opts.Palette) == 0 {
			return newError(ErrMissingPalette, "first frame requires opts.Palette")
		}
		if !e.headerWritten {
			e.WriteHeader()
		}
		e.canvasWidth, e.canvasHeight = width, height
		e.writeLSD(width, height, len(opts.Palette), colorDepth)
		e.writeColorTable(opts.Palette)
		if opts.Repeat != nil && *opts.Repeat >= 0 {
			e.writeNetscapeExt(*opts.Repeat)
		}
	}

	transparentFlag := 0
	if opts.Transparent && opts.TransparentIndex >= 0 {
		transparentFlag = 1
	}
	disposal := deriveDisposal(opts.Dispose, transparentFlag == 1)
	e.writeGCE(opts.Delay, disposal, transparentFlag, opts.TransparentIndex)

	local := !isFirst && len(opts.Palette) > 0
	e.writeImageDescriptor(width, height, local, opts.Palette)
	if local {
		e.writeColorTable(opts.Palette)
	}

	e.lzw.encode(e.out, indices, colorDepth)

	e.first = false
	e.headerWritten = true
	return nil
}

// deriveDisposal implements the dispose option's -1 = "derive" rule:
// explicit values pass through masked to 3 bits, nil/negative become
// 0 for non-transparent frames and 2 for transparent ones.
func deriveDisposal(dispose *int, transparent bool) int {
	if dispose != nil && *dispose >= 0 {
		return *dispose & 7
	}
	if transparent {
		return 2
	}
	return 0
}

func (e *Encoder) writeLSD(width, height, paletteLen, colorDepth int) {
	e.out.writeUInt16(uint16(width))
	e.out.writeUInt16(uint16(height))
	bits := tableBits(paletteLen)
	resolution := byte(colorDepth-1) & 0x7
	packed := byte(0x80) | (resolution << 4) | byte(bits-1)
	e.out.writeByte(packed)
	e.out.writeByte(0) // background color index
	e.out.writeByte(0) // pixel aspect ratio
}

func (e *Encoder) writeGCE(delay time.Duration, disposal, transparentFlag, transparentIndex int) {
	e.out.writeByte(extIntroducer)
	e.out.writeByte(gceLabel)
	e.out.writeByte(4)
	packed := byte((disposal&7)<<2 | transparentFlag)
	e.out.writeByte(packed)
	e.out.writeUInt16(uint16(centiseconds(delay)))
	idx := transparentIndex
	if idx < 0 {
		idx = 0
	}
	e.out.writeByte(byte(idx))
	e.out.writeByte(0)
}

func centiseconds(d time.Duration) int {
	ms := d.Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int((ms + 5) / 10)
}

func (e *Encoder) writeImageDescriptor(width, height int, local bool, palette []Color) {
	e.out.writeByte(imageSeparator)
	e.out.writeUInt16(0)
	e.out.writeUInt16(0)
	e.out.writeUInt16(uint16(width))
	e.out.writeUInt16(uint16(height))
	if local {
		bits := tableBits(len(palette))
		e.out.writeByte(byte(0x80 | (bits - 1)))
	} else {
		e.out.writeByte(0)
	}
}

func (e *Encoder) writeNetscapeExt(repeat int) {
	e.out.writeByte(extIntroducer)
	e.out.writeByte(appLabel)
	e.out.writeByte(11)
	e.out.writeString("NETSCAPE2.0")
	e.out.writeByte(3)
	e.out.writeByte(1)
	e.out.writeUInt16(uint16(repeat))
	e.out.writeByte(0)
}

// writeColorTable emits palette, zero-padded to 1<<tableBits(len)
// entries of 3 bytes each, per the color-table size rule.
func (e *Encoder) writeColorTable(palette []Color) {
	bits := tableBits(len(palette))
	size := 1 << bits
	for i := 0; i < size; i++ {
		if i < len(palette) {
			c := palette[i]
			e.out.writeByte(c.R)
			e.out.writeByte(c.G)
			e.out.writeByte(c.B)
		} else {
			e.out.writeByte(0)
			e.out.writeByte(0)
			e.out.writeByte(0)
		}
	}
}

// tableBits returns max(ceil(log2(n)), 1), the number of bits needed
// to index a color table with n entries, and the value the various
// packed "size" fields encode as bits-1.
func tableBits(n int) int {
	if n <= 2 {
		return 1
	}
	bits := 1
	size := 2
	for size < n {
		size <<= 1
		bits++
	}
	return bits
}

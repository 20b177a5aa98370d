package gifenc

// GIF-flavored LZW: variable-width codes starting at minCodeSize+1
// bits, a clear code and EOI carved out of the low end of the code
// space, output packed LSB-first into length-prefixed sub-blocks of
// at most 255 bytes. Ported from the ManInM00N-nicogif reference's
// LZWEncoder — same htab/codetab/accum shape, same output/charOut/
// flushChar bit-packing trio, and the same G. Knott secondary hash:
// initial slot (suffix<<hashShift)^prefix, collision probe decrement
// bounded by hsize-i (at most one add-back of lzwHashSize to land
// back in range).

const (
	lzwMaxBits   = 12
	lzwHashSize  = 5003
	lzwEmptySlot = -1
)

// lzwHashShift is the xor-hash shift Knott's scheme derives from the
// table size: the largest shift keeping (suffix<<shift)^prefix inside
// the 12-bit code space, computed the way the reference computes it
// rather than hardcoded, in case lzwHashSize ever changes.
var lzwHashShift = func() int {
	shift := 0
	for size := lzwHashSize; size < 1<<16; size *= 2 {
		shift++
	}
	return 8 - shift
}()

// lzwEncoder holds the scratch an Encoder reuses across frames: the
// hash/code tables and the sub-block accumulator. Each call to encode
// resets all of it, so no residue crosses frames.
type lzwEncoder struct {
	htab    [lzwHashSize]int32
	codetab [lzwHashSize]int32
	accum   [256]byte
	aCount  int

	curAccum uint32
	curBits  uint

	minCodeSize int
	gInitBits   int
	clearCode   int
	eofCode     int
	freeEnt     int
	nBits       int
	maxcode     int
	clearFlg    bool
}

func newLZWEncoder() *lzwEncoder {
	return &lzwEncoder{}
}

// encode writes a frame's min-code-size byte, the LZW-compressed
// index stream, and the terminating zero-length sub-block to out.
// colorDepth is the palette's bit depth; the initial code width is
// max(colorDepth, 2) + 1 bits.
func (e *lzwEncoder) encode(out *byteStream, indices []byte, colorDepth int) {
	e.minCodeSize = colorDepth
	if e.minCodeSize < 2 {
		e.minCodeSize = 2
	}
	out.writeByte(byte(e.minCodeSize))

	e.gInitBits = e.minCodeSize + 1
	e.clearCode = 1 << (e.gInitBits - 1)
	e.eofCode = e.clearCode + 1
	e.freeEnt = e.eofCode + 1
	e.nBits = e.gInitBits
	e.maxcode = lzwMaxCode(e.nBits)
	e.clearFlg = false
	e.aCount = 0
	e.curAccum = 0
	e.curBits = 0
	e.clearHash()

	e.output(out, e.clearCode)

	hasEnt := false
	ent := 0
	for _, px := range indices {
		c := int(px)
		if !hasEnt {
			ent = c
			hasEnt = true
			continue
		}

		slot, fcode, found := e.hashLookup(ent, c)
		if found {
			ent = int(e.codetab[slot])
			continue
		}

		e.output(out, ent)
		ent = c

		if e.freeEnt < (1 << lzwMaxBits) {
			e.codetab[slot] = int32(e.freeEnt)
			e.freeEnt++
			e.htab[slot] = int32(fcode)
		} else {
			e.clearBlock(out)
		}
	}
	if hasEnt {
		e.output(out, ent)
	}
	e.output(out, e.eofCode)
	e.flushBits(out)
	e.flushChar(out)
	out.writeByte(0)
}

// hashLookup finds the dictionary slot for (prefix, suffix). The
// initial slot is (suffix<<lzwHashShift)^prefix, which — since both
// operands fit in 12 bits — always lands inside [0, 1<<12), well
// within the table. On collision it probes by decrementing by
// lzwHashSize-slot (1 when slot is 0), which is always <= lzwHashSize,
// so the single wraparound add-back below can never leave the index
// negative. Returns the slot the pair occupies or should be inserted
// at, the packed key that belongs there, and whether an existing
// entry matched.
func (e *lzwEncoder) hashLookup(prefix, suffix int) (slot int, fcode int, found bool) {
	fcode = (suffix << lzwMaxBits) | prefix
	i := (suffix << lzwHashShift) ^ prefix

	if e.htab[i] == lzwEmptySlot {
		return i, fcode, false
	}
	if int(e.htab[i]) == fcode {
		return i, fcode, true
	}

	disp := lzwHashSize - i
	if i == 0 {
		disp = 1
	}
	for {
		i -= disp
		if i < 0 {
			i += lzwHashSize
		}
		if e.htab[i] == lzwEmptySlot {
			return i, fcode, false
		}
		if int(e.htab[i]) == fcode {
			return i, fcode, true
		}
	}
}

func (e *lzwEncoder) clearHash() {
	for i := range e.htab {
		e.htab[i] = lzwEmptySlot
	}
}

// clearBlock resets the dictionary on overflow. The clear code itself
// must still go out at the code width in effect when the overflow was
// detected — the decoder hasn't reset yet either — so this only sets
// clearFlg and lets output perform the width reset once the code is
// packed.
func (e *lzwEncoder) clearBlock(out *byteStream) {
	e.clearHash()
	e.freeEnt = e.clearCode + 2
	e.clearFlg = true
	e.output(out, e.clearCode)
}

// output packs code into the bit accumulator LSB-first at the current
// width, flushing complete bytes to the sub-block buffer. Only after
// packing does it either grow the width (freeEnt overflowed maxcode)
// or, if clearBlock just fired, drop back to the initial width —
// matching the reference's ordering so a clear code and everything
// before it are read back at the width that was active when they were
// written.
func (e *lzwEncoder) output(out *byteStream, code int) {
	e.curAccum |= uint32(code) << e.curBits
	e.curBits += uint(e.nBits)

	for e.curBits >= 8 {
		e.charOut(out, byte(e.curAccum&0xFF))
		e.curAccum >>= 8
		e.curBits -= 8
	}

	if e.freeEnt > e.maxcode || e.clearFlg {
		if e.clearFlg {
			e.maxcode = lzwMaxCode(e.gInitBits)
			e.nBits = e.gInitBits
			e.clearFlg = false
		} else {
			e.nBits++
			if e.nBits > lzwMaxBits {
				e.nBits = lzwMaxBits
			}
			e.maxcode = lzwMaxCode(e.nBits)
		}
	}
}

func (e *lzwEncoder) flushBits(out *byteStream) {
	for e.curBits > 0 {
		e.charOut(out, byte(e.curAccum&0xFF))
		e.curAccum >>= 8
		if e.curBits < 8 {
			e.curBits = 0
		} else {
			e.curBits -= 8
		}
	}
}

func (e *lzwEncoder) charOut(out *byteStream, c byte) {
	e.accum[e.aCount] = c
	e.aCount++
	if e.aCount >= 254 {
		e.flushChar(out)
	}
}

// flushChar writes a length-prefixed sub-block of whatever's
// accumulated so far.
func (e *lzwEncoder) flushChar(out *byteStream) {
	if e.aCount > 0 {
		out.writeByte(byte(e.aCount))
		out.writeBytes(e.accum[:e.aCount])
		e.aCount = 0
	}
}

func lzwMaxCode(nBits int) int {
	return (1 << nBits) - 1
}

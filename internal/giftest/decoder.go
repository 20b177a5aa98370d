package giftest

import (
	"compress/lzw"
	"fmt"
	"io"
)

// Decode parses a GIF89a stream written by gifenc, returning every
// frame's effective palette and decompressed pixel indices. It exists
// only to let this package's tests assert round-trip properties on
// gifenc's own output; it does not aim to handle arbitrary GIFs from
// the wild (no interlacing, no plain-text blocks beyond skipping
// them). Adapted from a standalone GIF extractor's decode loop, which
// walked the same block sequence to pull frames out for conversion to
// PNG; this version stops at collecting indices and a palette.
func Decode(r io.Reader) (*GIF, error) {
	g := &GIF{LoopCount: -1}

	if err := readHeader(r, &g.Header); err != nil {
		return nil, fmt.Errorf("giftest: header: %w", err)
	}
	if g.Header.HasGlobalColorTable() {
		tbl, err := readColorTable(r, g.Header.GlobalColorTableSize())
		if err != nil {
			return nil, fmt.Errorf("giftest: global color table: %w", err)
		}
		g.GlobalTable = tbl
	}

	var pendingGCE *GraphicsControlBlockFields
	for {
		introducer, err := readByte(r)
		if err != nil {
			return nil, fmt.Errorf("giftest: block introducer: %w", err)
		}

		switch introducer {
		case Trailer:
			return g, nil

		case ExtensionBlock:
			label, err := readByte(r)
			if err != nil {
				return nil, fmt.Errorf("giftest: extension label: %w", err)
			}
			switch label {
			case GraphicsControlBlock:
				gce, err := readGCE(r)
				if err != nil {
					return nil, fmt.Errorf("giftest: graphic control extension: %w", err)
				}
				pendingGCE = gce
			case ApplicationBlock:
				loop, err := readApplicationExt(r)
				if err != nil {
					return nil, fmt.Errorf("giftest: application extension: %w", err)
				}
				if loop >= 0 {
					g.LoopCount = loop
				}
			default:
				if err := skipSubBlocks(r); err != nil {
					return nil, fmt.Errorf("giftest: skip extension 0x%02x: %w", label, err)
				}
			}

		case ImageDescriptorBlock:
			frame, err := readFrame(r, pendingGCE, g.GlobalTable)
			if err != nil {
				return nil, fmt.Errorf("giftest: frame %d: %w", len(g.Frames), err)
			}
			g.Frames = append(g.Frames, *frame)
			pendingGCE = nil

		default:
			return nil, fmt.Errorf("giftest: unexpected block introducer 0x%02x", introducer)
		}
	}
}

func readHeader(r io.Reader, h *Header) error {
	if _, err := io.ReadFull(r, h.Signature[:]); err != nil {
		return err
	}
	var err error
	if h.Width, err = readUint16LE(r); err != nil {
		return err
	}
	if h.Height, err = readUint16LE(r); err != nil {
		return err
	}
	if h.Packed, err = readByte(r); err != nil {
		return err
	}
	if h.BackgroundColor, err = readByte(r); err != nil {
		return err
	}
	if h.PixelAspectRatio, err = readByte(r); err != nil {
		return err
	}
	return nil
}

func readColorTable(r io.Reader, size int) (Palette, error) {
	tbl := make(Palette, size)
	for i := range tbl {
		var rgb [3]byte
		if _, err := io.ReadFull(r, rgb[:]); err != nil {
			return nil, err
		}
		tbl[i] = RGB{R: rgb[0], G: rgb[1], B: rgb[2]}
	}
	return tbl, nil
}

func readGCE(r io.Reader) (*GraphicsControlBlockFields, error) {
	size, err := readByte(r)
	if err != nil {
		return nil, err
	}
	if size != 4 {
		return nil, fmt.Errorf("unexpected GCE block size %d", size)
	}
	g := &GraphicsControlBlockFields{}
	if g.Packed, err = readByte(r); err != nil {
		return nil, err
	}
	if g.DelayTime, err = readUint16LE(r); err != nil {
		return nil, err
	}
	if g.TransparentColorIndex, err = readByte(r); err != nil {
		return nil, err
	}
	term, err := readByte(r)
	if err != nil {
		return nil, err
	}
	if term != 0 {
		return nil, fmt.Errorf("missing GCE terminator, got 0x%02x", term)
	}
	return g, nil
}

// readApplicationExt consumes an application extension's identifier,
// auth code, and data sub-blocks, returning the NETSCAPE2.0 loop
// count if that's what this extension is, or -1 otherwise.
func readApplicationExt(r io.Reader) (int, error) {
	size, err := readByte(r)
	if err != nil {
		return -1, err
	}
	if size != 11 {
		return -1, fmt.Errorf("unexpected application block size %d", size)
	}
	var idAndAuth [11]byte
	if _, err := io.ReadFull(r, idAndAuth[:]); err != nil {
		return -1, err
	}

	var data []byte
	for {
		n, err := readByte(r)
		if err != nil {
			return -1, err
		}
		if n == 0 {
			break
		}
		chunk := make([]byte, n)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return -1, err
		}
		data = append(data, chunk...)
	}

	if string(idAndAuth[:8]) == "NETSCAPE" && len(data) >= 3 && data[0] == 1 {
		return int(data[1]) | int(data[2])<<8, nil
	}
	return -1, nil
}

func skipSubBlocks(r io.Reader) error {
	for {
		n, err := readByte(r)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
	}
}

func readFrame(r io.Reader, gce *GraphicsControlBlockFields, global Palette) (*Frame, error) {
	var d ImageDescriptor
	var err error
	if d.Left, err = readUint16LE(r); err != nil {
		return nil, err
	}
	if d.Top, err = readUint16LE(r); err != nil {
		return nil, err
	}
	if d.Width, err = readUint16LE(r); err != nil {
		return nil, err
	}
	if d.Height, err = readUint16LE(r); err != nil {
		return nil, err
	}
	if d.Packed, err = readByte(r); err != nil {
		return nil, err
	}

	palette := global
	if d.HasLocalColorTable() {
		palette, err = readColorTable(r, d.LocalColorTableSize())
		if err != nil {
			return nil, fmt.Errorf("local color table: %w", err)
		}
	}

	minCodeSize, err := readByte(r)
	if err != nil {
		return nil, err
	}
	br := newBlockReader(r)
	lr := lzw.NewReader(br, lzw.LSB, int(minCodeSize))
	indices, err := io.ReadAll(lr)
	lr.Close()
	if err != nil {
		return nil, fmt.Errorf("lzw decode: %w", err)
	}
	if err := br.drainToTerminator(); err != nil {
		return nil, fmt.Errorf("drain sub-blocks: %w", err)
	}

	return &Frame{GCE: gce, Descriptor: d, Palette: palette, Indices: indices}, nil
}

func readUint16LE(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, nil
}

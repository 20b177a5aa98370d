package giftest

import "io"

// blockReader adapts a GIF sub-block stream (each block a length byte
// followed by that many data bytes, terminated by a zero-length
// block) into an io.Reader, buffering one block at a time. Adapted
// from a standalone GIF extractor's reader of the same shape.
type blockReader struct {
	r          io.Reader
	buf        [255]byte
	bufLen     int
	bufNext    int
	terminated bool
}

func newBlockReader(r io.Reader) *blockReader {
	return &blockReader{r: r}
}

func (b *blockReader) readNextBlock() error {
	size, err := readByte(b.r)
	if err != nil {
		return err
	}
	b.bufLen = int(size)
	b.bufNext = 0
	if b.bufLen == 0 {
		b.terminated = true
		return io.EOF
	}
	_, err = io.ReadFull(b.r, b.buf[:b.bufLen])
	return err
}

func (b *blockReader) Read(p []byte) (int, error) {
	if b.terminated {
		return 0, io.EOF
	}
	if b.bufNext >= b.bufLen {
		if err := b.readNextBlock(); err != nil {
			return 0, err
		}
	}
	n := minInt(len(p), b.bufLen-b.bufNext)
	copy(p, b.buf[b.bufNext:b.bufNext+n])
	b.bufNext += n
	return n, nil
}

// drainToTerminator consumes whatever sub-blocks remain unread,
// including the terminating zero-length block, without feeding them
// anywhere. A caller that stops reading from an LZW-decoded
// blockReader before it naturally hits EOF (decoders don't probe past
// the code that signals end-of-data) must call this before resuming
// top-level block parsing on the underlying stream, or the terminator
// byte will be misread as the next block's introducer.
func (b *blockReader) drainToTerminator() error {
	for !b.terminated {
		b.bufNext = b.bufLen
		if err := b.readNextBlock(); err != nil && err != io.EOF {
			return err
		}
	}
	return nil
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package gifenc

// byteStream is a growable output buffer, the analogue of the
// ByteArray the ManInM00N-nicogif reference hands its GIFEncoder and
// LZWEncoder. It owns its backing array (initial capacity 4096) and
// grows it through append, so growth past that capacity follows Go's
// append policy rather than strict doubling. An Encoder can reuse one
// byteStream across many WriteFrame calls without reallocating for
// every frame. It only appends; there is no method to overwrite a
// byte already written.
type byteStream struct {
	buf []byte
}

const defaultStreamCapacity = 4096

func newByteStream() *byteStream {
	return &byteStream{buf: make([]byte, 0, defaultStreamCapacity)}
}

func (s *byteStream) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *byteStream) writeBytes(p []byte) {
	s.buf = append(s.buf, p...)
}

func (s *byteStream) writeString(str string) {
	s.buf = append(s.buf, str...)
}

// writeUInt16 appends x little-endian.
func (s *byteStream) writeUInt16(x uint16) {
	s.buf = append(s.buf, byte(x&0xFF), byte(x>>8))
}

func (s *byteStream) len() int {
	return len(s.buf)
}

// bytes returns a copy of the written bytes.
func (s *byteStream) bytes() []byte {
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}

// bytesView returns the written bytes without copying; callers must
// not retain it across further writes to the stream.
func (s *byteStream) bytesView() []byte {
	return s.buf
}

// reset empties the buffer but keeps its backing array.
func (s *byteStream) reset() {
	s.buf = s.buf[:0]
}

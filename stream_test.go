package gifenc

import (
	"bytes"
	"testing"
)

func TestByteStreamWriteByte(t *testing.T) {
	s := newByteStream()
	s.writeByte(0x21)
	s.writeByte(0xF9)
	if got := s.bytes(); !bytes.Equal(got, []byte{0x21, 0xF9}) {
		t.Errorf("bytes() = %x, want 21f9", got)
	}
}

func TestByteStreamWriteUInt16LittleEndian(t *testing.T) {
	s := newByteStream()
	s.writeUInt16(0x1234)
	if got := s.bytes(); !bytes.Equal(got, []byte{0x34, 0x12}) {
		t.Errorf("writeUInt16(0x1234) = %x, want 3412", got)
	}
}

func TestByteStreamWriteStringAndBytes(t *testing.T) {
	s := newByteStream()
	s.writeString("GIF89a")
	s.writeBytes([]byte{1, 2, 3})
	want := append([]byte("GIF89a"), 1, 2, 3)
	if got := s.bytes(); !bytes.Equal(got, want) {
		t.Errorf("bytes() = %x, want %x", got, want)
	}
}

func TestByteStreamReset(t *testing.T) {
	s := newByteStream()
	s.writeString("abc")
	s.reset()
	if s.len() != 0 {
		t.Errorf("len() after reset = %d, want 0", s.len())
	}
	s.writeByte(1)
	if got := s.bytes(); !bytes.Equal(got, []byte{1}) {
		t.Errorf("bytes() after reset+write = %x, want 01", got)
	}
}

func TestByteStreamBytesIsACopy(t *testing.T) {
	s := newByteStream()
	s.writeByte(1)
	got := s.bytes()
	got[0] = 0xFF
	if s.bytesView()[0] != 1 {
		t.Error("mutating bytes() result must not affect the stream")
	}
}

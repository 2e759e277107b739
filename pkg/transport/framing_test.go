package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	fr := NewFrameReader(&buf)

	msgs := [][]byte{
		[]byte{0x01},
		[]byte("hello"),
		bytes.Repeat([]byte{0xab}, 1000),
	}

	for _, msg := range msgs {
		if err := fw.WriteFrame(msg); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}
	for i, want := range msgs {
		got, err := fr.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d failed: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d = %v, want %v", i, got, want)
		}
	}
}

func TestWriteEmptyFrame(t *testing.T) {
	fw := NewFrameWriter(&bytes.Buffer{})
	if err := fw.WriteFrame(nil); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("err = %v, want ErrMessageEmpty", err)
	}
}

func TestWriteOversizedFrame(t *testing.T) {
	fw := NewFrameWriterWithMaxSize(&bytes.Buffer{}, 8)
	if err := fw.WriteFrame(make([]byte, 9)); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("err = %v, want ErrMessageTooLarge", err)
	}
}

func TestReadOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	if err := fw.WriteFrame(make([]byte, 64)); err != nil {
		t.Fatal(err)
	}

	fr := NewFrameReaderWithMaxSize(&buf, 8)
	if _, err := fr.ReadFrame(); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("err = %v, want ErrMessageTooLarge", err)
	}
}

func TestReadTruncatedFrame(t *testing.T) {
	t.Run("truncated prefix", func(t *testing.T) {
		fr := NewFrameReader(bytes.NewReader([]byte{0x00, 0x00}))
		if _, err := fr.ReadFrame(); !errors.Is(err, ErrFrameTruncated) {
			t.Errorf("err = %v, want ErrFrameTruncated", err)
		}
	})

	t.Run("truncated payload", func(t *testing.T) {
		fr := NewFrameReader(bytes.NewReader([]byte{0x00, 0x00, 0x00, 0x05, 0x01, 0x02}))
		if _, err := fr.ReadFrame(); !errors.Is(err, ErrFrameTruncated) {
			t.Errorf("err = %v, want ErrFrameTruncated", err)
		}
	})

	t.Run("clean EOF", func(t *testing.T) {
		fr := NewFrameReader(bytes.NewReader(nil))
		if _, err := fr.ReadFrame(); err != io.EOF {
			t.Errorf("err = %v, want io.EOF", err)
		}
	})
}

func TestFrameSize(t *testing.T) {
	if got := FrameSize(100); got != 104 {
		t.Errorf("FrameSize(100) = %d, want 104", got)
	}
}

package tts

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestNormalizeBytesPassthrough(t *testing.T) {
	b := []byte("AUDIO")
	got, err := Normalize(BytesResult(b))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, b) {
		t.Fatalf("expected %q, got %q", b, got)
	}
}

func TestNormalizeReaderDrainsAndCloses(t *testing.T) {
	tracker := &closeTracker{Reader: bytes.NewReader([]byte("streamed audio"))}
	got, err := Normalize(ReaderResult(tracker))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "streamed audio" {
		t.Fatalf("unexpected bytes: %q", got)
	}
	if !tracker.closed {
		t.Fatal("reader must be closed after normalization")
	}
}

func TestNormalizeChunksPreservesOrder(t *testing.T) {
	res := ChunksResult(
		Chunk{Bytes: []byte("b1")},
		Chunk{Bytes: []byte("b2")},
		Chunk{Bytes: []byte("b3")},
	)
	got, err := Normalize(res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "b1b2b3" {
		t.Fatalf("expected b1b2b3, got %q", got)
	}
}

func TestNormalizeChunksWithReaders(t *testing.T) {
	tracker := &closeTracker{Reader: bytes.NewReader([]byte("mid"))}
	res := ChunksResult(
		Chunk{Bytes: []byte("start-")},
		Chunk{Reader: tracker},
		Chunk{Bytes: []byte("-end")},
	)
	got, err := Normalize(res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "start-mid-end" {
		t.Fatalf("unexpected bytes: %q", got)
	}
	if !tracker.closed {
		t.Fatal("chunk reader must be closed")
	}
}

func TestNormalizeUnknownShape(t *testing.T) {
	got, err := Normalize(Result{})
	if !errors.Is(err, ErrUnrecognizedPayload) {
		t.Fatalf("expected ErrUnrecognizedPayload, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty bytes, got %q", got)
	}
}

func TestNormalizeNilReader(t *testing.T) {
	if _, err := Normalize(Result{Kind: KindReader}); !errors.Is(err, ErrUnrecognizedPayload) {
		t.Fatalf("expected ErrUnrecognizedPayload, got %v", err)
	}
}

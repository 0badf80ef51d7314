package tts

import (
	"context"
	"io"
)

// Request contains parameters to synthesize speech.
type Request struct {
	Text  string
	Voice string
	Model string
}

// Kind tags the shape of a synthesis result.
type Kind int

const (
	KindUnknown Kind = iota
	KindBytes
	KindReader
	KindChunks
)

// Chunk is one piece of a chunked synthesis result, either raw bytes or
// a readable resource.
type Chunk struct {
	Bytes  []byte
	Reader io.ReadCloser
}

// Result is the tagged union of shapes a speech backend may produce: a
// complete byte buffer, a stream to be drained, or an ordered chunk
// sequence. The zero value is KindUnknown and normalizes to empty audio.
type Result struct {
	Kind   Kind
	Bytes  []byte
	Reader io.ReadCloser
	Chunks []Chunk
}

func BytesResult(b []byte) Result { return Result{Kind: KindBytes, Bytes: b} }

func ReaderResult(r io.ReadCloser) Result { return Result{Kind: KindReader, Reader: r} }

func ChunksResult(chunks ...Chunk) Result { return Result{Kind: KindChunks, Chunks: chunks} }

// Synthesizer is the contract for producing audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (Result, error)
}

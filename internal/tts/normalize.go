package tts

import (
	"bytes"
	"errors"
	"io"
)

// ErrUnrecognizedPayload is reported when a synthesis result carries a
// shape the normalizer does not understand. Callers treat it like any
// other synthesis failure; it never aborts a turn.
var ErrUnrecognizedPayload = errors.New("synthesis returned unrecognized payload")

// Normalize reduces any synthesis result to one contiguous byte slice.
// Readers are fully drained and closed; chunks are concatenated in
// producer order. Unknown shapes yield empty bytes plus
// ErrUnrecognizedPayload.
func Normalize(res Result) ([]byte, error) {
	switch res.Kind {
	case KindBytes:
		return res.Bytes, nil
	case KindReader:
		return drain(res.Reader)
	case KindChunks:
		var buf bytes.Buffer
		for _, chunk := range res.Chunks {
			if chunk.Reader != nil {
				data, err := drain(chunk.Reader)
				if err != nil {
					return nil, err
				}
				buf.Write(data)
				continue
			}
			buf.Write(chunk.Bytes)
		}
		return buf.Bytes(), nil
	default:
		return nil, ErrUnrecognizedPayload
	}
}

func drain(r io.ReadCloser) ([]byte, error) {
	if r == nil {
		return nil, ErrUnrecognizedPayload
	}
	defer r.Close()
	return io.ReadAll(r)
}

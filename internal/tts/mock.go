package tts

import (
	"context"
	"time"
)

type mockSynth struct{}

func NewMockSynth() Synthesizer { return &mockSynth{} }

// ID3 header bytes so downstream players recognize the payload as MP3.
var mockAudio = []byte{0x49, 0x44, 0x33, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

func (m *mockSynth) Synthesize(ctx context.Context, req Request) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-time.After(50 * time.Millisecond):
	}
	return BytesResult(mockAudio), nil
}

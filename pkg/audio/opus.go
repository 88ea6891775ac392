package audio

import (
	"fmt"

	"layeh.com/gopus"
)

// OpusDecoder decodes a stream of Opus packets to PCM. Decoder state is
// carried across packets, so use one decoder per speaker stream.
type OpusDecoder struct {
	dec        *gopus.Decoder
	sampleRate int
	channels   int
}

// NewOpusDecoder creates a decoder for the given output format.
func NewOpusDecoder(sampleRate, channels int) (*OpusDecoder, error) {
	dec, err := gopus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("audio: create opus decoder: %w", err)
	}
	return &OpusDecoder{dec: dec, sampleRate: sampleRate, channels: channels}, nil
}

// Decode decodes a single Opus packet into PCM samples.
func (d *OpusDecoder) Decode(packet []byte) (*PCM, error) {
	frameSize := d.sampleRate / 1000 * 20
	samples, err := d.dec.Decode(packet, frameSize, false)
	if err != nil {
		return nil, fmt.Errorf("audio: opus decode: %w", err)
	}
	return FromSamples(samples, d.sampleRate, d.channels), nil
}

// DecodeAll decodes a sequence of Opus packets from one speaker into a
// single contiguous PCM buffer. Any packet failing to decode aborts the
// whole utterance; partial audio is worse than none for the processor.
func (d *OpusDecoder) DecodeAll(frames []Frame) (*PCM, error) {
	var data []byte
	for i, f := range frames {
		pcm, err := d.Decode(f.Opus)
		if err != nil {
			return nil, fmt.Errorf("audio: decode frame %d of %d: %w", i+1, len(frames), err)
		}
		data = append(data, pcm.Data...)
	}
	return &PCM{Data: data, SampleRate: d.sampleRate, Channels: d.channels}, nil
}

// OpusEncoder encodes PCM to Opus packets for transmission.
type OpusEncoder struct {
	enc        *gopus.Encoder
	sampleRate int
	channels   int
}

// NewOpusEncoder creates an encoder for the given input format.
func NewOpusEncoder(sampleRate, channels int) (*OpusEncoder, error) {
	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("audio: create opus encoder: %w", err)
	}
	return &OpusEncoder{enc: enc, sampleRate: sampleRate, channels: channels}, nil
}

// FrameBytes returns the exact number of PCM bytes consumed per 20 ms
// Opus frame for this encoder's format.
func (e *OpusEncoder) FrameBytes() int {
	return e.sampleRate / 1000 * 20 * e.channels * 2
}

// Encode encodes exactly one frame of interleaved little-endian PCM bytes
// into an Opus packet. len(pcm) must equal [OpusEncoder.FrameBytes].
func (e *OpusEncoder) Encode(pcm []byte) ([]byte, error) {
	if len(pcm) != e.FrameBytes() {
		return nil, fmt.Errorf("audio: opus encode: got %d bytes, want %d", len(pcm), e.FrameBytes())
	}
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
	}
	frameSize := e.sampleRate / 1000 * 20
	packet, err := e.enc.Encode(samples, frameSize, len(pcm))
	if err != nil {
		return nil, fmt.Errorf("audio: opus encode: %w", err)
	}
	return packet, nil
}

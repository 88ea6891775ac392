package audio_test

import (
	"bytes"
	"testing"

	"github.com/parley-bot/parley/pkg/audio"
)

func TestEncodeWAV_Header(t *testing.T) {
	pcm := &audio.PCM{Data: samplesToBytes([]int16{1, 2, 3, 4}), SampleRate: 48000, Channels: 2}
	wav, err := audio.EncodeWAV(pcm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(wav) != 44+len(pcm.Data) {
		t.Fatalf("size: got %d, want %d", len(wav), 44+len(pcm.Data))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if !bytes.Equal(wav[44:], pcm.Data) {
		t.Error("payload does not match input PCM")
	}
}

func TestEncodeWAV_InvalidFormat(t *testing.T) {
	if _, err := audio.EncodeWAV(&audio.PCM{Data: []byte{0, 0}}); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestDecodeWAV_RoundTrip(t *testing.T) {
	src := &audio.PCM{Data: samplesToBytes([]int16{100, -100, 32767, -32768}), SampleRate: 24000, Channels: 1}
	wav, err := audio.EncodeWAV(src)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := audio.DecodeWAV(wav)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SampleRate != src.SampleRate || got.Channels != src.Channels {
		t.Errorf("format: got %dHz/%dch, want %dHz/%dch", got.SampleRate, got.Channels, src.SampleRate, src.Channels)
	}
	if !bytes.Equal(got.Data, src.Data) {
		t.Error("PCM payload mismatch after round trip")
	}
}

func TestDecodeWAV_SkipsUnknownChunks(t *testing.T) {
	src := &audio.PCM{Data: samplesToBytes([]int16{7, 8}), SampleRate: 48000, Channels: 2}
	wav, err := audio.EncodeWAV(src)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Splice a LIST chunk between fmt and data, as some encoders emit.
	list := []byte{'L', 'I', 'S', 'T', 4, 0, 0, 0, 'I', 'N', 'F', 'O'}
	spliced := append(append(append([]byte{}, wav[:36]...), list...), wav[36:]...)

	got, err := audio.DecodeWAV(spliced)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got.Data, src.Data) {
		t.Error("PCM payload mismatch with interleaved chunk")
	}
}

func TestDecodeWAV_Invalid(t *testing.T) {
	cases := map[string][]byte{
		"empty":       nil,
		"truncated":   []byte("RIFF"),
		"wrong magic": []byte("OGGS12345678abcdefgh"),
	}
	for name, in := range cases {
		if _, err := audio.DecodeWAV(in); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

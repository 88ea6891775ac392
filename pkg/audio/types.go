package audio

import "time"

// Voice platforms deliver Opus at 48 kHz stereo with 20 ms frames.
const (
	DefaultSampleRate = 48000
	DefaultChannels   = 2
	FrameDuration     = 20 * time.Millisecond

	// SamplesPerFrame is the number of samples per channel in one 20 ms frame.
	SamplesPerFrame = DefaultSampleRate / 1000 * 20 // 960
)

// Frame is a single compressed Opus frame captured from a voice channel,
// tagged with the speaker it came from. Frames are the atomic unit of
// capture; they are accumulated per speaker and decoded in bulk once the
// speaker falls silent.
type Frame struct {
	// UserID is the platform identifier of the speaker.
	UserID string

	// Opus is the raw Opus packet payload.
	Opus []byte
}

// PCM is decoded linear audio: interleaved little-endian int16 samples.
type PCM struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// Duration returns the play time of the PCM data, or zero when the
// format fields are unset.
func (p *PCM) Duration() time.Duration {
	if p == nil || p.SampleRate <= 0 || p.Channels <= 0 {
		return 0
	}
	samples := len(p.Data) / 2 / p.Channels
	return time.Duration(samples) * time.Second / time.Duration(p.SampleRate)
}

// Samples returns the PCM data reinterpreted as int16 samples.
func (p *PCM) Samples() []int16 {
	out := make([]int16, len(p.Data)/2)
	for i := range out {
		out[i] = int16(p.Data[i*2]) | int16(p.Data[i*2+1])<<8
	}
	return out
}

// FromSamples builds a PCM value from int16 samples.
func FromSamples(samples []int16, sampleRate, channels int) *PCM {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return &PCM{Data: data, SampleRate: sampleRate, Channels: channels}
}

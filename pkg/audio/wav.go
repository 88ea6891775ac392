package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// wavHeader is the canonical 44-byte RIFF/WAVE header for 16-bit PCM.
type wavHeader struct {
	RIFF          [4]byte // "RIFF"
	FileSize      uint32  // total size minus 8
	WAVE          [4]byte // "WAVE"
	Fmt           [4]byte // "fmt "
	FmtSize       uint32  // 16 for PCM
	AudioFormat   uint16  // 1 = linear PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          [4]byte // "data"
	DataSize      uint32
}

// EncodeWAV wraps 16-bit PCM in a RIFF/WAVE container. This is the
// interchange format for the speech processor.
func EncodeWAV(pcm *PCM) ([]byte, error) {
	if pcm == nil || pcm.SampleRate <= 0 || pcm.Channels <= 0 {
		return nil, fmt.Errorf("audio: encode wav: invalid pcm format")
	}

	h := wavHeader{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		FileSize:      uint32(36 + len(pcm.Data)),
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1,
		NumChannels:   uint16(pcm.Channels),
		SampleRate:    uint32(pcm.SampleRate),
		ByteRate:      uint32(pcm.SampleRate * pcm.Channels * 2),
		BlockAlign:    uint16(pcm.Channels * 2),
		BitsPerSample: 16,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      uint32(len(pcm.Data)),
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(pcm.Data)))
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("audio: encode wav header: %w", err)
	}
	buf.Write(pcm.Data)
	return buf.Bytes(), nil
}

// DecodeWAV extracts 16-bit PCM from a RIFF/WAVE container. Only linear
// PCM is supported; chunks other than "fmt " and "data" are skipped.
func DecodeWAV(wav []byte) (*PCM, error) {
	if len(wav) < 12 {
		return nil, fmt.Errorf("audio: decode wav: truncated header")
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, fmt.Errorf("audio: decode wav: not a RIFF/WAVE file")
	}

	var (
		sampleRate int
		channels   int
		bits       int
		data       []byte
		haveFmt    bool
	)

	// Walk the chunk list.
	for off := 12; off+8 <= len(wav); {
		id := string(wav[off : off+4])
		size := int(binary.LittleEndian.Uint32(wav[off+4 : off+8]))
		body := off + 8
		if body+size > len(wav) {
			size = len(wav) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("audio: decode wav: short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(wav[body : body+2])
			if format != 1 {
				return nil, fmt.Errorf("audio: decode wav: unsupported format %d (want PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(wav[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(wav[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(wav[body+14 : body+16]))
			haveFmt = true
		case "data":
			data = wav[body : body+size]
		}

		// Chunks are word-aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	if !haveFmt {
		return nil, fmt.Errorf("audio: decode wav: missing fmt chunk")
	}
	if bits != 16 {
		return nil, fmt.Errorf("audio: decode wav: unsupported bit depth %d (want 16)", bits)
	}
	if data == nil {
		return nil, fmt.Errorf("audio: decode wav: missing data chunk")
	}

	return &PCM{Data: data, SampleRate: sampleRate, Channels: channels}, nil
}

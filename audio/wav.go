// audio/wav.go
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// Format of the PCM returned by the speech model.
const (
	SampleRate    = 24000
	Channels      = 1
	BitsPerSample = 16

	headerSize = 44
)

// WAV wraps raw little-endian PCM in a RIFF/WAVE container.
func WAV(pcm []byte) []byte {
	const (
		blockAlign = Channels * BitsPerSample / 8
		byteRate   = SampleRate * blockAlign
	)
	out := make([]byte, headerSize+len(pcm))
	le := binary.LittleEndian

	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16)
	le.PutUint16(out[20:22], 1) // PCM
	le.PutUint16(out[22:24], Channels)
	le.PutUint32(out[24:28], SampleRate)
	le.PutUint32(out[28:32], byteRate)
	le.PutUint16(out[32:34], blockAlign)
	le.PutUint16(out[34:36], BitsPerSample)

	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[headerSize:], pcm)
	return out
}

// WAVFromBase64 decodes base64 PCM and wraps it.
func WAVFromBase64(encoded string) ([]byte, error) {
	pcm, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	return WAV(pcm), nil
}

// Header is the decoded fmt/data information of a WAV stream.
type Header struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// ParseHeader reads the canonical 44-byte header produced by WAV.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < headerSize {
		return Header{}, fmt.Errorf("wav: need %d header bytes, got %d", headerSize, len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" || string(b[12:16]) != "fmt " || string(b[36:40]) != "data" {
		return Header{}, fmt.Errorf("wav: unexpected chunk layout")
	}
	le := binary.LittleEndian
	return Header{
		AudioFormat:   le.Uint16(b[20:22]),
		Channels:      le.Uint16(b[22:24]),
		SampleRate:    le.Uint32(b[24:28]),
		ByteRate:      le.Uint32(b[28:32]),
		BlockAlign:    le.Uint16(b[32:34]),
		BitsPerSample: le.Uint16(b[34:36]),
		DataSize:      le.Uint32(b[40:44]),
	}, nil
}

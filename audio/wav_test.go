package audio

import (
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAVHeader(t *testing.T) {
	pcm := make([]byte, 4800)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	out := WAV(pcm)
	require.Len(t, out, 44+len(pcm))

	h, err := ParseHeader(out)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), h.AudioFormat)
	assert.Equal(t, uint16(1), h.Channels)
	assert.Equal(t, uint32(24000), h.SampleRate)
	assert.Equal(t, uint16(16), h.BitsPerSample)
	assert.Equal(t, uint32(48000), h.ByteRate)
	assert.Equal(t, uint16(2), h.BlockAlign)
	assert.Equal(t, uint32(len(pcm)), h.DataSize)
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(out[4:8]))
	assert.Equal(t, pcm, out[44:])
}

func TestWAVEmptyInput(t *testing.T) {
	h, err := ParseHeader(WAV(nil))
	require.NoError(t, err)
	assert.Zero(t, h.DataSize)
}

func TestWAVFromBase64(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	out, err := WAVFromBase64(base64.StdEncoding.EncodeToString(pcm))
	require.NoError(t, err)
	h, err := ParseHeader(out)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), h.DataSize)

	_, err = WAVFromBase64("not base64!")
	assert.Error(t, err)
}

func TestParseHeaderRejectsGarbage(t *testing.T) {
	_, err := ParseHeader([]byte("short"))
	assert.Error(t, err)
	_, err = ParseHeader(make([]byte, 44))
	assert.Error(t, err)
}

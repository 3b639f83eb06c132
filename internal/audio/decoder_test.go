package audio

import (
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildWAV assembles a minimal PCM WAV container around the given samples.
func buildWAV(samples []int16, sampleRate, channels int) []byte {
	data := samplesToBytes(samples)
	buf := make([]byte, 0, 44+len(data))

	u32 := func(v uint32) []byte { b := make([]byte, 4); binary.LittleEndian.PutUint32(b, v); return b }
	u16 := func(v uint16) []byte { b := make([]byte, 2); binary.LittleEndian.PutUint16(b, v); return b }

	buf = append(buf, []byte("RIFF")...)
	buf = append(buf, u32(uint32(36+len(data)))...)
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = append(buf, u32(16)...)
	buf = append(buf, u16(1)...) // PCM
	buf = append(buf, u16(uint16(channels))...)
	buf = append(buf, u32(uint32(sampleRate))...)
	buf = append(buf, u32(uint32(sampleRate*channels*2))...)
	buf = append(buf, u16(uint16(channels*2))...)
	buf = append(buf, u16(16)...)
	buf = append(buf, []byte("data")...)
	buf = append(buf, u32(uint32(len(data)))...)
	buf = append(buf, data...)
	return buf
}

func TestDecodeWAVPassthrough(t *testing.T) {
	d := NewDecoder(24000, 1)
	samples := []int16{0, 1000, -1000, 32000, -32000}
	payload := base64.StdEncoding.EncodeToString(buildWAV(samples, 24000, 1))

	pcm, err := d.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, samples, bytesToSamples(pcm))
}

func TestDecodeWAVDownmixesStereo(t *testing.T) {
	d := NewDecoder(24000, 1)
	// Interleaved L/R frames: (100,200), (-100,100).
	stereo := []int16{100, 200, -100, 100}

	pcm, err := d.DecodeBytes(buildWAV(stereo, 24000, 2))
	require.NoError(t, err)
	assert.Equal(t, []int16{150, 0}, bytesToSamples(pcm))
}

func TestDecodeWAVResamples(t *testing.T) {
	d := NewDecoder(24000, 1)
	samples := make([]int16, 48000) // one second at 48kHz

	pcm, err := d.DecodeBytes(buildWAV(samples, 48000, 1))
	require.NoError(t, err)
	assert.Equal(t, 24000, len(bytesToSamples(pcm)), "one second must stay one second")
}

func TestDecodeRejectsEmptyPayload(t *testing.T) {
	d := NewDecoder(24000, 1)

	_, err := d.Decode("")
	assert.ErrorIs(t, err, ErrDecode)

	_, err = d.DecodeBytes(nil)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeRejectsInvalidBase64(t *testing.T) {
	d := NewDecoder(24000, 1)
	_, err := d.Decode("!!!not base64!!!")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeRejectsUnknownContainer(t *testing.T) {
	d := NewDecoder(24000, 1)
	_, err := d.DecodeBytes([]byte("this is not audio at all, not even close"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeRejectsTruncatedWAV(t *testing.T) {
	d := NewDecoder(24000, 1)
	wav := buildWAV([]int16{1, 2, 3, 4}, 24000, 1)

	_, err := d.DecodeBytes(wav[:20])
	assert.ErrorIs(t, err, ErrDecode)

	// Header intact but data chunk length lies past the end.
	_, err = d.DecodeBytes(wav[:len(wav)-2])
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeRejectsNonPCMWAV(t *testing.T) {
	d := NewDecoder(24000, 1)
	wav := buildWAV([]int16{1, 2}, 24000, 1)
	wav[20] = 3 // IEEE float format tag

	_, err := d.DecodeBytes(wav)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestSniffFormat(t *testing.T) {
	assert.Equal(t, "wav", sniffFormat([]byte("RIFFxxxxWAVE")))
	assert.Equal(t, "mp3", sniffFormat([]byte("ID3xxxx")))
	assert.Equal(t, "mp3", sniffFormat([]byte{0xFF, 0xFB, 0x90}))
	assert.Equal(t, "", sniffFormat([]byte("nope")))
}

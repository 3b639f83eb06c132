package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// Decoder converts transport-encoded audio payloads into s16le PCM at a
// fixed output format. It holds no shared state; one decoder can serve any
// number of concurrent callers.
type Decoder struct {
	SampleRate int
	Channels   int
}

// NewDecoder creates a decoder targeting the given sample rate and channel
// count.
func NewDecoder(sampleRate, channels int) *Decoder {
	return &Decoder{SampleRate: sampleRate, Channels: channels}
}

// Decode decodes a base64 audio payload into PCM at the target format.
func (d *Decoder) Decode(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrDecode, err)
	}
	return d.DecodeBytes(raw)
}

// DecodeBytes decodes raw container bytes (WAV or MP3, sniffed from the
// header) into PCM at the target format.
func (d *Decoder) DecodeBytes(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	switch sniffFormat(raw) {
	case "wav":
		return d.decodeWAV(raw)
	case "mp3":
		return d.decodeMP3(raw)
	default:
		return nil, fmt.Errorf("%w: unrecognized container", ErrDecode)
	}
}

// sniffFormat identifies the container from its leading bytes.
func sniffFormat(data []byte) string {
	if len(data) >= 4 && string(data[0:4]) == "RIFF" {
		return "wav"
	}
	if len(data) >= 3 && string(data[0:3]) == "ID3" {
		return "mp3"
	}
	if len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0 {
		return "mp3"
	}
	return ""
}

func (d *Decoder) decodeWAV(raw []byte) ([]byte, error) {
	if len(raw) < 44 || string(raw[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: truncated RIFF header", ErrDecode)
	}

	var (
		srcRate     int
		srcChannels int
		bits        int
		data        []byte
		haveFmt     bool
	)

	// Walk the chunk list; only fmt and data matter.
	pos := 12
	for pos+8 <= len(raw) {
		id := string(raw[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(raw) {
			return nil, fmt.Errorf("%w: chunk %q overruns payload", ErrDecode, id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: short fmt chunk", ErrDecode)
			}
			format := binary.LittleEndian.Uint16(raw[body : body+2])
			if format != 1 {
				return nil, fmt.Errorf("%w: unsupported WAV format %d", ErrDecode, format)
			}
			srcChannels = int(binary.LittleEndian.Uint16(raw[body+2 : body+4]))
			srcRate = int(binary.LittleEndian.Uint32(raw[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(raw[body+14 : body+16]))
			haveFmt = true
		case "data":
			data = raw[body : body+size]
		}

		pos = body + size
		if size%2 == 1 {
			pos++ // chunks are word aligned
		}
	}

	if !haveFmt || data == nil {
		return nil, fmt.Errorf("%w: missing fmt or data chunk", ErrDecode)
	}
	if bits != 16 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrDecode, bits)
	}
	if srcChannels < 1 || srcRate <= 0 || len(data) == 0 {
		return nil, fmt.Errorf("%w: empty or malformed data chunk", ErrDecode)
	}

	return d.convert(bytesToSamples(data), srcRate, srcChannels)
}

func (d *Decoder) decodeMP3(raw []byte) ([]byte, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("%w: no audio frames", ErrDecode)
	}
	// go-mp3 always emits 16-bit two-channel output.
	return d.convert(bytesToSamples(pcm), dec.SampleRate(), 2)
}

// convert downmixes and resamples interleaved s16 samples to the target
// format.
func (d *Decoder) convert(samples []int16, srcRate, srcChannels int) ([]byte, error) {
	mono := downmix(samples, srcChannels)
	if srcRate != d.SampleRate {
		mono = resampleLinear(mono, srcRate, d.SampleRate)
	}

	out := mono
	if d.Channels == 2 {
		out = make([]int16, 0, len(mono)*2)
		for _, s := range mono {
			out = append(out, s, s)
		}
	}
	return samplesToBytes(out), nil
}

// downmix averages interleaved frames into a single channel.
func downmix(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += int(samples[i*channels+c])
		}
		out[i] = int16(sum / channels)
	}
	return out
}

// resampleLinear interpolates mono samples from srcRate to dstRate.
func resampleLinear(samples []int16, srcRate, dstRate int) []int16 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}
	outLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if outLen == 0 {
		outLen = 1
	}
	out := make([]int16, outLen)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = int16(float64(samples[j])*(1-frac) + float64(samples[j+1])*frac)
	}
	return out
}

func bytesToSamples(data []byte) []int16 {
	n := len(data) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}
	return out
}

func samplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(s))
	}
	return out
}

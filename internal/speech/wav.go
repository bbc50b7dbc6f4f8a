package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrInvalidWAV = errors.New("speech: invalid wav data")

const wavFormatPCM = 1

// WAVHeader is the part of a RIFF/WAVE header a recognizer needs.
type WAVHeader struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	BitsPerSample uint16
	// DataOffset is where the PCM samples start; DataSize their length.
	DataOffset int
	DataSize   uint32
}

func (h WAVHeader) Duration() float64 {
	bytesPerSecond := float64(h.SampleRate) * float64(h.NumChannels) * float64(h.BitsPerSample) / 8
	if bytesPerSecond == 0 {
		return 0
	}
	return float64(h.DataSize) / bytesPerSecond
}

// ParseWAVHeader walks the RIFF chunks of a WAVE file and returns its fmt and
// data descriptions. Only uncompressed PCM is accepted. Chunks other than fmt
// and data (LIST, fact) are skipped. A data size of 0 or 0xFFFFFFFF, which
// streaming recorders write, is replaced by the bytes actually present.
func ParseWAVHeader(data []byte) (WAVHeader, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return WAVHeader{}, fmt.Errorf("%w: missing RIFF/WAVE tag", ErrInvalidWAV)
	}

	var h WAVHeader
	haveFmt := false
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		body := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return WAVHeader{}, fmt.Errorf("%w: short fmt chunk", ErrInvalidWAV)
			}
			var f struct {
				AudioFormat   uint16
				NumChannels   uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(bytes.NewReader(data[body:body+16]), binary.LittleEndian, &f); err != nil {
				return WAVHeader{}, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
			}
			h.AudioFormat = f.AudioFormat
			h.NumChannels = f.NumChannels
			h.SampleRate = f.SampleRate
			h.BitsPerSample = f.BitsPerSample
			haveFmt = true
		case "data":
			if !haveFmt {
				return WAVHeader{}, fmt.Errorf("%w: data chunk before fmt", ErrInvalidWAV)
			}
			h.DataOffset = body
			available := uint32(len(data) - body)
			h.DataSize = size
			if size == 0 || size > available {
				h.DataSize = available
			}
			return h, validatePCM(h)
		}

		next := body + int(size) + int(size&1)
		if size > uint32(len(data)) || next <= pos {
			break
		}
		pos = next
	}
	if !haveFmt {
		return WAVHeader{}, fmt.Errorf("%w: no fmt chunk", ErrInvalidWAV)
	}
	return WAVHeader{}, fmt.Errorf("%w: no data chunk", ErrInvalidWAV)
}

func validatePCM(h WAVHeader) error {
	switch {
	case h.AudioFormat != wavFormatPCM:
		return fmt.Errorf("%w: audio format %d is not PCM", ErrInvalidWAV, h.AudioFormat)
	case h.NumChannels == 0:
		return fmt.Errorf("%w: zero channels", ErrInvalidWAV)
	case h.SampleRate == 0:
		return fmt.Errorf("%w: zero sample rate", ErrInvalidWAV)
	case h.BitsPerSample != 16:
		return fmt.Errorf("%w: %d-bit samples, want 16", ErrInvalidWAV, h.BitsPerSample)
	}
	return nil
}

// EncodeWAV wraps 16-bit little-endian PCM samples in a minimal WAVE header.
func EncodeWAV(pcm []byte, sampleRate uint32, channels uint16) []byte {
	var buf bytes.Buffer
	blockAlign := channels * 2
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVEfmt ")
	for _, v := range []any{
		uint32(16),
		uint16(wavFormatPCM),
		channels,
		sampleRate,
		sampleRate * uint32(blockAlign),
		blockAlign,
		uint16(16),
	} {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

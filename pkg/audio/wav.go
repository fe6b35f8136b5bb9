package audio

import (
	"bytes"
	"encoding/binary"
	"os"
)

// FloatToPCM16 converts mono float32 samples in [-1, 1] to signed 16-bit
// little-endian PCM, clamping out-of-range samples rather than wrapping.
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// NewWavBuffer wraps 16-bit mono PCM in a RIFF/WAVE header at sampleRate.
func NewWavBuffer(pcm []byte, sampleRate int) []byte {
	buf := new(bytes.Buffer)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// WriteSegmentFile writes a mono float32 segment to path as a 16-bit PCM WAV
// file, for the segment archive the transcription worker (C9) maintains
// alongside each history entry.
func WriteSegmentFile(path string, samples []float32, sampleRate int) error {
	data := NewWavBuffer(FloatToPCM16(samples), sampleRate)
	return os.WriteFile(path, data, 0o644)
}

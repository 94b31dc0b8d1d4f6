package audio

import (
	"bytes"
	"encoding/binary"

	"paperscope/internal/util"
)

const (
	// PCM format emitted by the TTS service and expected by WriteWAV.
	SampleRate    = 24000
	BitsPerSample = 16
	NumChannels   = 1
)

// WriteWAV wraps raw little-endian 16-bit mono PCM in a RIFF container
// and writes it atomically.
func WriteWAV(path string, pcm []byte) error {
	var buf bytes.Buffer

	byteRate := SampleRate * NumChannels * BitsPerSample / 8
	blockAlign := NumChannels * BitsPerSample / 8

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(NumChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(BitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return util.WriteBytesAtomic(path, buf.Bytes())
}

// Silence returns zeroed PCM covering the given duration in seconds.
func Silence(seconds float64) []byte {
	samples := int(seconds * SampleRate)
	return make([]byte, samples*NumChannels*BitsPerSample/8)
}

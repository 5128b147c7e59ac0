package audio

import (
	"encoding/binary"
	"time"
)

const wavHeaderSize = 44

// Artifact is one finalized, immutable recording payload with its declared
// encoding. It is produced exactly once per capture session and never
// mutated afterwards.
type Artifact struct {
	Data       []byte
	MIME       string
	Filename   string
	SampleRate int
	Channels   int
}

// Duration reports the audible length of a PCM16 WAV artifact.
func (a Artifact) Duration() time.Duration {
	if a.SampleRate <= 0 || a.Channels <= 0 || len(a.Data) <= wavHeaderSize {
		return 0
	}
	samples := (len(a.Data) - wavHeaderSize) / (2 * a.Channels)
	return time.Duration(samples) * time.Second / time.Duration(a.SampleRate)
}

// NewWAVArtifact frames raw little-endian PCM16 bytes into a WAV container.
func NewWAVArtifact(pcm []byte, sampleRate int, channels int) Artifact {
	if channels <= 0 {
		channels = 1
	}
	return Artifact{
		Data:       encodePCM16WAV(pcm, sampleRate, channels),
		MIME:       "audio/wav",
		Filename:   "recording.wav",
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// encodePCM16WAV prepends a minimal RIFF/WAVE header to raw PCM bytes.
func encodePCM16WAV(pcm []byte, sampleRate int, channels int) []byte {
	const bitsPerSample = 16
	byteRate := sampleRate * channels * (bitsPerSample / 8)
	blockAlign := channels * (bitsPerSample / 8)

	out := make([]byte, wavHeaderSize+len(pcm))
	copy(out[0:4], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], []byte("WAVE"))
	copy(out[12:16], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)
	copy(out[36:40], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[wavHeaderSize:], pcm)
	return out
}

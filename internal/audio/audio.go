package audio

import (
	"errors"
	"math"
)

const (
	DefaultSampleRate       = 44100
	DefaultBlockSize        = 4096
	DefaultSilenceThreshold = 200

	fullScale = 32767
)

// ErrSourceClosed is returned by a FrameSource that will never yield again.
// Any other read error is transient.
var ErrSourceClosed = errors.New("frame source closed")

// Block is a run of signed 16-bit mono samples.
type Block []int16

// FrameSource yields fixed-size blocks, blocking until one is available.
type FrameSource interface {
	ReadBlock() (Block, error)
	Close() error
}

// Device opens capture streams on audio input hardware
type Device interface {
	Open(deviceID string, sampleRate, blockSize int) (FrameSource, error)
	ListDevices() ([]AudioDevice, error)
	Close() error
}

// AudioDevice represents an audio input device
type AudioDevice struct {
	ID      string
	Name    string
	Default bool
}

// Peak returns the largest absolute sample value in b.
func Peak(b Block) int {
	peak := 0
	for _, s := range b {
		v := int(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// IsSilent reports whether every sample stays strictly below threshold.
func IsSilent(b Block, threshold int) bool {
	return Peak(b) < threshold
}

// Bytes encodes b as little-endian byte pairs.
func Bytes(b Block) []byte {
	out := make([]byte, len(b)*2)
	for i, s := range b {
		out[2*i] = byte(s)
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}

// Level maps the block peak to a 0-100 meter value on a dBFS scale.
func Level(b Block) int {
	peak := Peak(b)
	if peak == 0 {
		return 0
	}
	db := 20 * math.Log10(float64(peak)/fullScale)
	level := int(1.25*db + 100)
	switch {
	case level < 0:
		return 0
	case level > 100:
		return 100
	}
	return level
}

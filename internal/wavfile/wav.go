package wavfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	// HeaderSize is the RIFF, fmt and data chunk headers together.
	HeaderSize = 44

	// riffHeaderLen is what totalDataLen holds for an empty payload.
	riffHeaderLen = 36
	// dataChunkHeaderLen is the "data" id plus its length field.
	dataChunkHeaderLen = 8

	formatPCM = 1
)

var (
	// ErrMalformed is returned when a buffer cannot hold a container.
	ErrMalformed = errors.New("malformed wav container")
	// ErrInvalidParameter is returned by setters for out-of-range values.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// header mirrors the canonical 44 byte PCM WAV header.
type header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // 36 + audio length
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // audio length
}

// Container is a PCM WAV file followed by an id3 metadata block.
type Container struct {
	sampleRate    uint32
	channels      uint8
	bitsPerSample uint8
	audio         []byte
	metadata      *Metadata
}

// New creates an empty 16-bit container with every metadata tag unset.
func New(sampleRate uint32, channels uint8) (*Container, error) {
	c := &Container{
		bitsPerSample: 16,
		metadata:      NewMetadata(),
	}
	if err := c.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	if err := c.SetChannels(channels); err != nil {
		return nil, err
	}
	return c, nil
}

// FromBytes parses a serialized container.
func FromBytes(p []byte) (*Container, error) {
	if len(p) < HeaderSize {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrMalformed, HeaderSize, len(p))
	}

	totalDataLen := binary.LittleEndian.Uint32(p[4:8])
	end := uint64(totalDataLen) + dataChunkHeaderLen
	if end < HeaderSize || end > uint64(len(p)) {
		return nil, fmt.Errorf("%w: riff length %d does not fit %d byte buffer", ErrMalformed, totalDataLen, len(p))
	}

	sampleRate := binary.LittleEndian.Uint32(p[24:28])
	channels := p[22]

	c, err := New(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if bits := p[34]; bits == 8 {
		c.bitsPerSample = bits
	}

	c.metadata = decodeMetadata(p[end:])
	c.AppendAudio(p[HeaderSize:end])

	return c, nil
}

// Merge returns a new container with a's format and metadata and the audio
// of a followed by b. Formats are not compared.
func Merge(a, b *Container) *Container {
	c := &Container{
		sampleRate:    a.sampleRate,
		channels:      a.channels,
		bitsPerSample: a.bitsPerSample,
		metadata:      a.metadata.Clone(),
	}
	c.audio = make([]byte, 0, len(a.audio)+len(b.audio))
	c.AppendAudio(a.audio)
	c.AppendAudio(b.audio)
	return c
}

func (c *Container) SampleRate() uint32    { return c.sampleRate }
func (c *Container) Channels() uint8       { return c.channels }
func (c *Container) BitsPerSample() uint8  { return c.bitsPerSample }
func (c *Container) Metadata() *Metadata   { return c.metadata }
func (c *Container) Tag(tag string) string { return c.metadata.Get(tag) }

// SetTag assigns a metadata value; "" unsets it.
func (c *Container) SetTag(tag, value string) {
	c.metadata.Set(tag, value)
}

// Audio returns the PCM payload. Callers must not modify it.
func (c *Container) Audio() []byte {
	return c.audio
}

// AppendAudio appends raw PCM bytes to the payload.
func (c *Container) AppendAudio(p []byte) {
	c.audio = append(c.audio, p...)
}

// SetSampleRate rejects zero.
func (c *Container) SetSampleRate(rate uint32) error {
	if rate < 1 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidParameter, rate)
	}
	c.sampleRate = rate
	return nil
}

// SetChannels rejects zero.
func (c *Container) SetChannels(channels uint8) error {
	if channels < 1 {
		return fmt.Errorf("%w: channels %d", ErrInvalidParameter, channels)
	}
	c.channels = channels
	return nil
}

// SetBitsPerSample accepts 8 or 16.
func (c *Container) SetBitsPerSample(bits uint8) error {
	if bits != 8 && bits != 16 {
		return fmt.Errorf("%w: bits per sample %d", ErrInvalidParameter, bits)
	}
	c.bitsPerSample = bits
	return nil
}

// BlockAlign is the size in bytes of one frame across all channels.
func (c *Container) BlockAlign() uint32 {
	return uint32(c.channels) * uint32(c.bitsPerSample) / 8
}

func (c *Container) ByteRate() uint32 {
	return c.sampleRate * c.BlockAlign()
}

// Duration of the audio payload.
func (c *Container) Duration() time.Duration {
	rate := c.ByteRate()
	if rate == 0 {
		return 0
	}
	return time.Duration(uint64(len(c.audio)) * uint64(time.Second) / uint64(rate))
}

func (c *Container) header() header {
	audioLen := uint32(len(c.audio))
	return header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     riffHeaderLen + audioLen,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   formatPCM,
		NumChannels:   uint16(c.channels),
		SampleRate:    c.sampleRate,
		ByteRate:      c.ByteRate(),
		// Only the low byte is stored, matching existing recordings.
		BlockAlign:    uint16(uint8(c.BlockAlign())),
		BitsPerSample: uint16(c.bitsPerSample),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: audioLen,
	}
}

// Header returns the 44 byte header for the current state.
func (c *Container) Header() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize))
	// Writes to a bytes.Buffer of a fixed-size struct cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, c.header())
	return buf.Bytes()
}

// Bytes serializes header, audio and metadata block in that order.
func (c *Container) Bytes() []byte {
	meta := encodeMetadata(c.metadata)
	out := make([]byte, 0, HeaderSize+len(c.audio)+len(meta))
	out = append(out, c.Header()...)
	out = append(out, c.audio...)
	return append(out, meta...)
}

// WriteTo implements io.WriterTo.
func (c *Container) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Bytes())
	return int64(n), err
}

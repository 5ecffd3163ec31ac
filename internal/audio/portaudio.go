package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/petems/memo-tray/internal/config"
)

type portAudioDevice struct {
	cfg config.AudioConfig
}

// New initializes PortAudio. Close must be called to release it.
func New(cfg config.AudioConfig) (Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioDevice{cfg: cfg}, nil
}

func (p *portAudioDevice) Open(deviceID string, sampleRate, blockSize int) (FrameSource, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	var fallback *portaudio.DeviceInfo
	if deviceID == "" {
		fallback, err = portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default input device: %w", err)
		}
	}

	device := selectDevice(devices, deviceID, fallback)
	if device == nil {
		return nil, fmt.Errorf("device not found: %s", deviceID)
	}

	// Open stream: mono, 16-bit, one block per read
	buffer := make([]int16, blockSize)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: len(buffer),
	}, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}

	return &portAudioSource{stream: stream, buffer: buffer}, nil
}

func (p *portAudioDevice) ListDevices() ([]AudioDevice, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]AudioDevice, 0, len(devices))
	defaultDevice, _ := portaudio.DefaultInputDevice()

	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, AudioDevice{
				ID:      d.Name,
				Name:    d.Name,
				Default: d == defaultDevice,
			})
		}
	}

	return result, nil
}

func (p *portAudioDevice) Close() error {
	return portaudio.Terminate()
}

// selectDevice returns fallback when id is empty, otherwise the input device named id.
func selectDevice(devices []*portaudio.DeviceInfo, id string, fallback *portaudio.DeviceInfo) *portaudio.DeviceInfo {
	if id == "" {
		return fallback
	}
	for _, d := range devices {
		if d.Name == id && d.MaxInputChannels > 0 {
			return d
		}
	}
	return nil
}

type portAudioSource struct {
	stream *portaudio.Stream
	buffer []int16
	closed bool
}

// ReadBlock blocks until the stream has filled one block.
func (s *portAudioSource) ReadBlock() (Block, error) {
	if s.closed {
		return nil, ErrSourceClosed
	}
	if err := s.stream.Read(); err != nil {
		return nil, fmt.Errorf("read audio stream: %w", err)
	}
	return copyBlock(s.buffer), nil
}

// Close must not be called while ReadBlock is running.
func (s *portAudioSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.stream.Stop(); err != nil {
		s.stream.Close()
		return fmt.Errorf("stop audio stream: %w", err)
	}
	return s.stream.Close()
}

// copyBlock detaches samples from the stream buffer, which is reused on every read.
func copyBlock(buf []int16) Block {
	b := make(Block, len(buf))
	copy(b, buf)
	return b
}

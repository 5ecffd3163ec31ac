package audio

import (
	"testing"

	"github.com/gordonklaus/portaudio"
)

func TestSelectDeviceDefault(t *testing.T) {
	def := &portaudio.DeviceInfo{Name: "Built-in", MaxInputChannels: 1}
	devices := []*portaudio.DeviceInfo{def, {Name: "USB Mic", MaxInputChannels: 1}}

	if got := selectDevice(devices, "", def); got != def {
		t.Fatalf("expected default device, got %v", got)
	}
}

func TestSelectDeviceByName(t *testing.T) {
	usb := &portaudio.DeviceInfo{Name: "USB Mic", MaxInputChannels: 2}
	devices := []*portaudio.DeviceInfo{
		{Name: "Speakers", MaxOutputChannels: 2},
		usb,
	}

	if got := selectDevice(devices, "USB Mic", nil); got != usb {
		t.Fatalf("expected USB Mic, got %v", got)
	}
	if got := selectDevice(devices, "Speakers", nil); got != nil {
		t.Fatalf("expected output-only device to be rejected, got %v", got.Name)
	}
	if got := selectDevice(devices, "missing", nil); got != nil {
		t.Fatalf("expected nil for unknown device, got %v", got.Name)
	}
}

func TestCopyBlockDetachesBuffer(t *testing.T) {
	buf := []int16{1, 2, 3}
	b := copyBlock(buf)
	buf[0] = 99

	if b[0] != 1 {
		t.Fatalf("expected copied block to keep 1, got %d", b[0])
	}
	if len(b) != len(buf) {
		t.Fatalf("expected %d samples, got %d", len(buf), len(b))
	}
}

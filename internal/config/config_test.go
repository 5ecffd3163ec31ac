package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Audio.BlockSize != 4096 || cfg.Audio.SilenceThreshold != 200 {
		t.Errorf("unexpected audio defaults: %+v", cfg.Audio)
	}
	if cfg.Storage.Backend != BackendFS {
		t.Errorf("expected fs backend, got %q", cfg.Storage.Backend)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
audio:
  sample_rate: 16000
  device_id: "USB Mic"
storage:
  backend: s3
  bucket: memos
  prefix: team/
profile:
  name: Ann
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Audio.SampleRate != 16000 || cfg.Audio.DeviceID != "USB Mic" {
		t.Errorf("audio not overridden: %+v", cfg.Audio)
	}
	if cfg.Audio.BlockSize != 4096 {
		t.Errorf("expected default block size to survive, got %d", cfg.Audio.BlockSize)
	}
	if cfg.Storage.Backend != BackendS3 || cfg.Storage.Bucket != "memos" || cfg.Storage.Prefix != "team/" {
		t.Errorf("storage not overridden: %+v", cfg.Storage)
	}
	if cfg.Profile.Name != "Ann" || cfg.Logging.Level != "debug" {
		t.Errorf("unexpected profile/logging: %+v %+v", cfg.Profile, cfg.Logging)
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"bad yaml", "audio: [", "failed to parse"},
		{"zero rate", "audio:\n  sample_rate: 0\n", "sample_rate"},
		{"bad backend", "storage:\n  backend: ftp\n", "unknown backend"},
		{"bucket missing", "storage:\n  backend: gcs\n", "bucket"},
		{"half credentials", "storage:\n  access_key: x\n", "access_key"},
		{"bad level", "logging:\n  level: loud\n", "invalid level"},
		{"zero queue", "audio:\n  queue_size: 0\n", "queue_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Default()
	cfg.Profile.Surname = "Nowak"
	cfg.Metrics.Address = "127.0.0.1:9101"

	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if got.Profile.Surname != "Nowak" || got.Metrics.Address != "127.0.0.1:9101" {
		t.Errorf("unexpected reloaded config: %+v", got)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Port != 8080 || cfg.Mode != "release" {
		t.Errorf("Expected default port/mode, got %d/%s", cfg.Port, cfg.Mode)
	}
	if cfg.Socket.PongWait != 60*time.Second || cfg.Socket.SendBuffer != 64 {
		t.Errorf("Unexpected socket defaults %+v", cfg.Socket)
	}
	if cfg.JWT.Expiration != 24*time.Hour {
		t.Errorf("Expected 24h token lifetime, got %v", cfg.JWT.Expiration)
	}
	if cfg.RateLimit.Messages != 20 || cfg.RateLimit.Interval != 10*time.Second {
		t.Errorf("Unexpected rate limit %+v", cfg.RateLimit)
	}
	if len(cfg.ICEServers) != 2 {
		t.Errorf("Expected 2 default STUN servers, got %d", len(cfg.ICEServers))
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	yaml := `mode: debug
port: 9000
socket:
  pong_wait: 30s
ice_servers:
  - urls: ["turn:turn.example.com:3478"]
    username: user
    credential: pass
  - urls: []
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VOICE_PORT", "9100")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Mode != "debug" {
		t.Errorf("Expected debug mode from file, got %s", cfg.Mode)
	}
	if cfg.Port != 9100 {
		t.Errorf("Expected env override 9100, got %d", cfg.Port)
	}
	if cfg.Socket.PongWait != 30*time.Second || cfg.Socket.WriteWait != 5*time.Second {
		t.Errorf("Expected file value merged with defaults, got %+v", cfg.Socket)
	}

	servers := cfg.WebRTCICEServers()
	if len(servers) != 1 {
		t.Fatalf("Expected entries without urls skipped, got %d", len(servers))
	}
	s := servers[0]
	if s.URLs[0] != "turn:turn.example.com:3478" || s.Username != "user" || s.Credential != "pass" {
		t.Errorf("Unexpected ICE server %+v", s)
	}
	if s.CredentialType != webrtc.ICECredentialTypePassword {
		t.Errorf("Expected password credential type, got %v", s.CredentialType)
	}
}

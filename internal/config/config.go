package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`
	DBPath     string        `mapstructure:"db_path"`
	QueueSize  int           `mapstructure:"queue_size"`
	Socket     SocketConfig  `mapstructure:"socket"`
	JWT        JWTConfig     `mapstructure:"jwt"`
	RateLimit  RateLimit     `mapstructure:"rate_limit"`
	ICEServers []ICEServer   `mapstructure:"ice_servers"`
	Shutdown   time.Duration `mapstructure:"shutdown_timeout"`
}

// SocketConfig tunes every signaling WebSocket.
type SocketConfig struct {
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// RateLimit caps chat frames per user per interval.
type RateLimit struct {
	Messages int           `mapstructure:"messages"`
	Interval time.Duration `mapstructure:"interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "change-me")
	v.SetDefault("log_level", "info")
	v.SetDefault("db_path", "voice.db")
	v.SetDefault("queue_size", 1024)
	v.SetDefault("shutdown_timeout", "5s")
	v.SetDefault("socket.read_limit", 65536)
	v.SetDefault("socket.ping_period", "54s")
	v.SetDefault("socket.pong_wait", "60s")
	v.SetDefault("socket.write_wait", "5s")
	v.SetDefault("socket.send_buffer", 64)
	v.SetDefault("jwt.secret", "replace-me")
	v.SetDefault("jwt.issuer", "voice")
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("rate_limit.messages", 20)
	v.SetDefault("rate_limit.interval", "10s")
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
		{"urls": []string{"stun:stun1.l.google.com:19302"}},
	})
}

// Load reads config/config.<CONFIG_ENV>.yaml on top of the defaults.
// VOICE_* environment variables override both.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("VOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}

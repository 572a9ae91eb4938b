// Package config loads server, game and peer settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FINSPAN_GAME_SEED.
const EnvPrefix = "FINSPAN"

// Config is the full application configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	P2P     P2PConfig     `mapstructure:"p2p"`
}

// LoggingConfig selects the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig groups the listening endpoints.
type ServerConfig struct {
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// WebSocketConfig is the peer endpoint.
type WebSocketConfig struct {
	Address string `mapstructure:"address"`
	Path    string `mapstructure:"path"`
}

// GRPCConfig is the health endpoint.
type GRPCConfig struct {
	Address              string `mapstructure:"address"`
	MaxConcurrentStreams int    `mapstructure:"max_concurrent_streams"`
}

// MetricsConfig is the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Path    string `mapstructure:"path"`
}

// GameConfig controls how matches are dealt and scored.
type GameConfig struct {
	Players []string `mapstructure:"players"`
	// Seed 0 picks a random seed per match.
	Seed uint64 `mapstructure:"seed"`
	// CatalogPath empty uses the built-in card set.
	CatalogPath  string `mapstructure:"catalog_path"`
	DiveReward   string `mapstructure:"dive_reward"`
	Achievements bool   `mapstructure:"achievements"`
}

// P2PConfig identifies this peer and the peers to dial at startup.
type P2PConfig struct {
	PeerID      string        `mapstructure:"peer_id"`
	Peers       []string      `mapstructure:"peers"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Host        bool          `mapstructure:"host"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.websocket.address", ":8765")
	v.SetDefault("server.websocket.path", "/p2p")
	v.SetDefault("server.grpc.address", ":9090")
	v.SetDefault("server.grpc.max_concurrent_streams", 100)
	v.SetDefault("server.metrics.enabled", true)
	v.SetDefault("server.metrics.address", ":9100")
	v.SetDefault("server.metrics.path", "/metrics")

	v.SetDefault("game.players", []string{"Ava", "Ben"})
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.catalog_path", "")
	v.SetDefault("game.dive_reward", "activate")
	v.SetDefault("game.achievements", false)

	v.SetDefault("p2p.peer_id", "")
	v.SetDefault("p2p.peers", []string{})
	v.SetDefault("p2p.dial_timeout", 10*time.Second)
	v.SetDefault("p2p.host", true)
}

// Load reads the YAML file at path, applies defaults and FINSPAN_ environment
// overrides. A missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	var errs []error
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	if len(c.Game.Players) < 2 {
		errs = append(errs, fmt.Errorf("game.players needs at least 2 names, got %d", len(c.Game.Players)))
	}
	switch c.Game.DiveReward {
	case "", "activate", "none":
	default:
		errs = append(errs, fmt.Errorf("game.dive_reward must be activate or none, got %q", c.Game.DiveReward))
	}
	if c.P2P.DialTimeout <= 0 {
		errs = append(errs, errors.New("p2p.dial_timeout must be positive"))
	}
	return errors.Join(errs...)
}

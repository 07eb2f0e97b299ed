package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/anthanhphan/go-distributed-id-generator/pkg/idgen"
	"github.com/anthanhphan/gosdk/conflux"
	"github.com/anthanhphan/gosdk/logger"
)

const (
	ClockSystem = "system"
	ClockRedis  = "redis"
)

// Config holds ID Service configuration
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Generator GeneratorConfig `json:"generator" yaml:"generator"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	Gossip    GossipConfig    `json:"gossip" yaml:"gossip"`
	Logger    logger.Config   `json:"logger" yaml:"logger"`
}

type ServerConfig struct {
	HTTPAddr string `json:"http_addr" yaml:"http_addr"`
	GRPCPort int    `json:"grpc_port" yaml:"grpc_port"`
}

type GeneratorConfig struct {
	EpochMS int64 `json:"epoch_ms" yaml:"epoch_ms"`
	// OriginID and ProcessID take precedence over IDGEN_ORIGIN_ID and
	// IDGEN_PROCESS_ID. Leave unset to use the environment.
	OriginID           *int64 `json:"origin_id" yaml:"origin_id"`
	ProcessID          *int64 `json:"process_id" yaml:"process_id"`
	AllowIntrospection bool   `json:"allow_introspection" yaml:"allow_introspection"`

	Clock             string `json:"clock" yaml:"clock"`                         // "system", "redis"
	RegressionPolicy  string `json:"regression_policy" yaml:"regression_policy"` // "reject", "wait"
	MaxBackwardWaitMS int    `json:"max_backward_wait_ms" yaml:"max_backward_wait_ms"`
	PollIntervalUS    int    `json:"poll_interval_us" yaml:"poll_interval_us"`
	MaxBatch          int    `json:"max_batch" yaml:"max_batch"`
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

type GossipConfig struct {
	Enabled  bool     `json:"enabled" yaml:"enabled"`
	NodeName string   `json:"node_name" yaml:"node_name"`
	BindAddr string   `json:"bind_addr" yaml:"bind_addr"`
	Port     int      `json:"port" yaml:"port"`
	Seeds    []string `json:"seeds" yaml:"seeds"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: ":8090",
			GRPCPort: 9090,
		},
		Generator: GeneratorConfig{
			EpochMS:           idgen.DefaultEpoch,
			Clock:             ClockSystem,
			RegressionPolicy:  string(idgen.RegressionReject),
			MaxBackwardWaitMS: int(idgen.DefaultMaxBackwardWait / time.Millisecond),
			PollIntervalUS:    100,
			MaxBatch:          4096,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Gossip: GossipConfig{
			BindAddr: "0.0.0.0",
			Port:     7946,
		},
		Logger: logger.Config{
			LogLevel:    logger.LevelInfo,
			LogEncoding: logger.EncodingJSON,
		},
	}
}

// Validate rejects settings the generator cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Generator.Clock {
	case ClockSystem, ClockRedis:
	default:
		errs = append(errs, fmt.Errorf("generator.clock: unknown clock %q", c.Generator.Clock))
	}
	if _, err := idgen.ParseRegressionPolicy(c.Generator.RegressionPolicy); err != nil {
		errs = append(errs, fmt.Errorf("generator.regression_policy: %w", err))
	}
	if c.Generator.EpochMS < 0 {
		errs = append(errs, fmt.Errorf("generator.epoch_ms: must not be negative"))
	}
	if c.Generator.MaxBatch <= 0 {
		errs = append(errs, fmt.Errorf("generator.max_batch: must be positive"))
	}
	if c.Generator.MaxBackwardWaitMS < 0 || c.Generator.PollIntervalUS < 0 {
		errs = append(errs, fmt.Errorf("generator: wait settings must not be negative"))
	}
	if c.Server.GRPCPort <= 0 && c.Server.HTTPAddr == "" {
		errs = append(errs, fmt.Errorf("server: at least one of http_addr, grpc_port is required"))
	}
	if c.Gossip.Enabled && c.Gossip.Port <= 0 {
		errs = append(errs, fmt.Errorf("gossip.port: must be positive when gossip is enabled"))
	}

	return errors.Join(errs...)
}

// GeneratorSettings converts the generator section into idgen settings. The
// clock and identifiers are filled in by the caller.
func (c *Config) GeneratorSettings() idgen.Config {
	policy, _ := idgen.ParseRegressionPolicy(c.Generator.RegressionPolicy)
	return idgen.Config{
		Epoch:            c.Generator.EpochMS,
		RegressionPolicy: policy,
		MaxBackwardWait:  time.Duration(c.Generator.MaxBackwardWaitMS) * time.Millisecond,
		PollInterval:     time.Duration(c.Generator.PollIntervalUS) * time.Microsecond,
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	configPath := path
	if configPath == "" {
		env := os.Getenv("ENV")
		if env == "" {
			env = "local"
		}
		configPath = filepath.Join("internal", "idservice", "config", env+".yaml")
	}

	cfg := DefaultConfig()

	parsedCfg, err := conflux.ParseConfig(configPath, cfg)
	if err != nil {
		// The logger is not initialised yet.
		log.Printf("Config file not found or failed to parse, using defaults if file not specified. Path: %s, Error: %v", configPath, err)
		if path != "" {
			return nil, err
		}
		parsedCfg = cfg
	}

	if err := parsedCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return parsedCfg, nil
}

// MustLoad loads configuration or exits on error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

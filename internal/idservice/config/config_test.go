package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/anthanhphan/go-distributed-id-generator/pkg/idgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, int64(idgen.DefaultEpoch), cfg.Generator.EpochMS)
	assert.Nil(t, cfg.Generator.OriginID)
	assert.Nil(t, cfg.Generator.ProcessID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "unknown clock", mutate: func(c *Config) { c.Generator.Clock = "ntp" }, wantErr: "generator.clock"},
		{name: "unknown policy", mutate: func(c *Config) { c.Generator.RegressionPolicy = "ignore" }, wantErr: "generator.regression_policy"},
		{name: "negative epoch", mutate: func(c *Config) { c.Generator.EpochMS = -1 }, wantErr: "generator.epoch_ms"},
		{name: "zero batch", mutate: func(c *Config) { c.Generator.MaxBatch = 0 }, wantErr: "generator.max_batch"},
		{name: "negative wait", mutate: func(c *Config) { c.Generator.PollIntervalUS = -1 }, wantErr: "wait settings"},
		{name: "no listeners", mutate: func(c *Config) { c.Server.HTTPAddr = ""; c.Server.GRPCPort = 0 }, wantErr: "server"},
		{name: "gossip without port", mutate: func(c *Config) { c.Gossip.Enabled = true; c.Gossip.Port = 0 }, wantErr: "gossip.port"},
		{name: "redis clock", mutate: func(c *Config) { c.Generator.Clock = ClockRedis }},
		{name: "wait policy", mutate: func(c *Config) { c.Generator.RegressionPolicy = "wait" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGeneratorSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generator.RegressionPolicy = "wait"
	cfg.Generator.MaxBackwardWaitMS = 20
	cfg.Generator.PollIntervalUS = 250

	got := cfg.GeneratorSettings()
	assert.Equal(t, int64(idgen.DefaultEpoch), got.Epoch)
	assert.Equal(t, idgen.RegressionWait, got.RegressionPolicy)
	assert.Equal(t, 20*time.Millisecond, got.MaxBackwardWait)
	assert.Equal(t, 250*time.Microsecond, got.PollInterval)
	assert.Nil(t, got.Clock)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilesec-ms/reportgen/api/schemas"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// Verify a few key defaults to ensure the mechanism works.
	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "reportgen", cfg.Logger().ServiceName)
	assert.Equal(t, 8005, cfg.Server().Port)
	assert.Equal(t, "0.0.0.0:8005", cfg.Server().Addr())
	assert.Equal(t, 10*time.Second, cfg.Upstreams().DefaultTimeout)
	assert.Equal(t, "http://apkscanner:8001", cfg.Upstream(schemas.ServiceAPKScanner).BaseURL)
	assert.Equal(t, "http://networkinspector:8004", cfg.Upstream(schemas.ServiceNetworkInspector).BaseURL)
	assert.Equal(t, "MobileSec-MS", cfg.Report().Platform)
	assert.Equal(t, "1.0.0", cfg.Report().Version)
	assert.Equal(t, 5, cfg.Report().MaxPDFRecommendations)
	for _, s := range schemas.Services {
		assert.Zero(t, cfg.Upstream(s).RateLimit, "rate limiting is off by default for %s", s)
	}
	assert.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestUpstreamsConfig_For(t *testing.T) {
	u := UpstreamsConfig{
		DefaultTimeout: 3 * time.Second,
		Services: map[string]UpstreamConfig{
			"apkscanner":   {BaseURL: "http://apk", Timeout: 7 * time.Second},
			"secrethunter": {BaseURL: "http://secrets", RateLimit: 2.5},
		},
	}

	apk := u.For(schemas.ServiceAPKScanner)
	assert.Equal(t, 7*time.Second, apk.Timeout, "explicit timeout wins")

	secrets := u.For(schemas.ServiceSecretHunter)
	assert.Equal(t, 3*time.Second, secrets.Timeout, "default timeout applies")
	assert.Equal(t, 1, secrets.Burst, "burst defaults to 1 when limiting is enabled")

	missing := u.For(schemas.ServiceCryptoCheck)
	assert.Empty(t, missing.BaseURL)
	assert.Equal(t, 3*time.Second, missing.Timeout)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate())

		badPort := *cfg
		badPort.ServerCfg.Port = 0
		err := badPort.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "server.port must be between 1 and 65535")

		badPlatform := *cfg
		badPlatform.ReportCfg.Platform = ""
		err = badPlatform.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "report.platform is a required configuration field")
	})

	t.Run("Upstreams Validation", func(t *testing.T) {
		valid := NewDefaultConfig().UpstreamsCfg
		assert.NoError(t, valid.Validate())

		noTimeout := valid
		noTimeout.DefaultTimeout = 0
		err := noTimeout.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "default_timeout must be a positive duration")

		relative := UpstreamsConfig{DefaultTimeout: time.Second, Services: map[string]UpstreamConfig{}}
		for k, sc := range valid.Services {
			relative.Services[k] = sc
		}
		relative.Services["cryptocheck"] = UpstreamConfig{BaseURL: "cryptocheck:8003"}
		err = relative.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "services.cryptocheck.base_url")
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
server:
  port: 9090
upstreams:
  default_timeout: 4s
  services:
    secrethunter:
      base_url: "http://localhost:18002"
      timeout: 1500ms
      rate_limit: 5
      burst: 10
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server().Port)
		assert.Equal(t, 4*time.Second, cfg.Upstreams().DefaultTimeout)
		secrets := cfg.Upstream(schemas.ServiceSecretHunter)
		assert.Equal(t, "http://localhost:18002", secrets.BaseURL)
		assert.Equal(t, 1500*time.Millisecond, secrets.Timeout)
		assert.Equal(t, 5.0, secrets.RateLimit)
		assert.Equal(t, 10, secrets.Burst)
		// Untouched services keep their defaults.
		assert.Equal(t, "http://apkscanner:8001", cfg.Upstream(schemas.ServiceAPKScanner).BaseURL)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("upstreams.default_timeout", "0s")

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("Legacy Environment Variable Binding", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)

		t.Setenv("APKSCANNER_URL", "http://10.0.0.5:8001")
		t.Setenv("PORT", "18005")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "http://10.0.0.5:8001", cfg.Upstream(schemas.ServiceAPKScanner).BaseURL)
		assert.Equal(t, 18005, cfg.Server().Port)
	})

	t.Run("Prefixed Variable Wins Over Legacy", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)

		t.Setenv("REPORTGEN_CRYPTOCHECK_URL", "http://prefixed:8003")
		t.Setenv("CRYPTOCHECK_URL", "http://legacy:8003")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "http://prefixed:8003", cfg.Upstream(schemas.ServiceCryptoCheck).BaseURL)
	})
}

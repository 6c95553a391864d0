package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matheuscscp/lark-oidc-proxy/internal/constants"
)

const (
	defaultConfigFile = "/etc/" + constants.LarkOIDCProxy + "/config/config.yaml"
	configFileEnv     = "LARK_OIDC_PROXY_CONFIG"
)

type Config struct {
	Provider ProviderConfig `yaml:"provider" json:"provider"`
	Server   ServerConfig   `yaml:"server" json:"server"`
}

// Load reads the config file named by LARK_OIDC_PROXY_CONFIG. Without the
// variable the default path is read if present, otherwise defaults apply.
func Load() (*Config, error) {
	fileName := defaultConfigFile
	explicit := false
	if fn := os.Getenv(configFileEnv); fn != "" {
		fileName = fn
		explicit = true
	}

	f, err := os.Open(fileName)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		var cfg Config
		if err := cfg.ValidateAndInitialize(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f)
}

func Decode(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.ValidateAndInitialize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ValidateAndInitialize() error {
	if err := c.Provider.validateAndInitialize(); err != nil {
		return err
	}
	c.Server.validateAndInitialize()
	return nil
}

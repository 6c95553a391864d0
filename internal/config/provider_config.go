package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matheuscscp/lark-oidc-proxy/internal/constants"
)

type ProviderConfig struct {
	BaseURL string        `yaml:"baseURL" json:"baseURL"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

func (p *ProviderConfig) validateAndInitialize() error {
	if p.BaseURL == "" {
		p.BaseURL = constants.DefaultProviderBaseURL
	}
	p.BaseURL = strings.TrimSuffix(p.BaseURL, "/")

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse provider.baseURL '%s': %w", p.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("provider.baseURL must use http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("provider.baseURL must have a host")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("provider.baseURL must not have a query or fragment")
	}

	if p.Timeout < 0 {
		return fmt.Errorf("provider.timeout must not be negative")
	}

	return nil
}

package config

const (
	defaultServerAddr    = ":8080"
	defaultServerOpsAddr = ":9090"

	// OpsDisabled as server.opsAddr turns the operations listener off.
	OpsDisabled = "-"
)

type ServerConfig struct {
	Addr    string `yaml:"addr" json:"addr"`
	OpsAddr string `yaml:"opsAddr" json:"opsAddr"`
}

func (s *ServerConfig) OpsEnabled() bool {
	return s.OpsAddr != OpsDisabled
}

func (s *ServerConfig) validateAndInitialize() {
	if s.Addr == "" {
		s.Addr = defaultServerAddr
	}
	if s.OpsAddr == "" {
		s.OpsAddr = defaultServerOpsAddr
	}
}

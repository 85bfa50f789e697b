package config

import (
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server ServerConfig
	OpenAI OpenAIConfig
	Intel  IntelConfig
	Agent  AgentConfig
}

type ServerConfig struct {
	Port         string        `envconfig:"SERVER_PORT" default:"8000"`
	Host         string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"60s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	RateLimit    int           `envconfig:"SERVER_RATE_LIMIT" default:"30"`
	RateWindow   time.Duration `envconfig:"SERVER_RATE_WINDOW" default:"1m"`
}

type OpenAIConfig struct {
	APIKey      string `envconfig:"OPENAI_API_KEY" required:"true"`
	APIEndpoint string `envconfig:"OPENAI_ENDPOINT" default:""`
	Model       string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
}

// IntelConfig holds the outbound lookup endpoints and credentials. Endpoints
// are configurable so tests can point them at local stubs. A missing API key
// disables the corresponding lookup rather than erroring.
type IntelConfig struct {
	DoHEndpoint          string        `envconfig:"INTEL_DOH_ENDPOINT" default:"https://dns.google/resolve"`
	GeoIPEndpoint        string        `envconfig:"INTEL_GEOIP_ENDPOINT" default:"https://ipinfo.io"`
	GeoIPToken           string        `envconfig:"INTEL_IPINFO_TOKEN" default:""`
	RDAPBootstrapURL     string        `envconfig:"INTEL_RDAP_BOOTSTRAP_URL" default:"https://data.iana.org/rdap/dns.json"`
	WhoisAPIEndpoint     string        `envconfig:"INTEL_WHOIS_ENDPOINT" default:"https://www.whoisxmlapi.com/whoisserver/WhoisService"`
	WhoisAPIKey          string        `envconfig:"INTEL_WHOIS_API_KEY" default:""`
	SafeBrowsingEndpoint string        `envconfig:"INTEL_SAFEBROWSING_ENDPOINT" default:"https://safebrowsing.googleapis.com/v4/threatMatches:find"`
	SafeBrowsingKey      string        `envconfig:"INTEL_SAFEBROWSING_API_KEY" default:""`
	Timeout              time.Duration `envconfig:"INTEL_TIMEOUT" default:"10s"`
}

type AgentConfig struct {
	Enabled         bool  `envconfig:"AGENT_ENABLED" default:"true"`
	MaxTurns        int   `envconfig:"AGENT_MAX_TURNS" default:"6"`
	MaxOutputTokens int64 `envconfig:"AGENT_MAX_OUTPUT_TOKENS" default:"2048"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("configuration loaded successfully")
	return &cfg, nil
}

package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultBaseURL     = "http://localhost:3001/api"
	defaultTimeout     = 10 * time.Second
	defaultStorePath   = "cyberguard_session.json"
	defaultGatewayAddr = "localhost:8123"
)

type Config struct {
	API     API     `yaml:"api"`
	Store   Store   `yaml:"store"`
	Gateway Gateway `yaml:"gateway"`
}

type API struct {
	BaseURL string `yaml:"base_url"`

	// Timeout is not yaml-addressable; set CYBERGUARD_API_TIMEOUT instead.
	Timeout time.Duration `yaml:"-"`
}

type Store struct {
	Path string `yaml:"path"`
}

type Gateway struct {
	Addr string `yaml:"addr"`
}

// New loads configuration from the yaml file at path, applies defaults for
// anything unset, and lets environment variables override the result. A
// missing file is not an error; a file that exists but does not parse is.
func New(path string) (*Config, error) {
	c := &Config{
		API: API{
			BaseURL: defaultBaseURL,
			Timeout: defaultTimeout,
		},
		Store: Store{
			Path: defaultStorePath,
		},
		Gateway: Gateway{
			Addr: defaultGatewayAddr,
		},
	}

	b, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// .env is optional, same as the config file
	_ = godotenv.Load()

	if v := os.Getenv("CYBERGUARD_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("CYBERGUARD_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("CYBERGUARD_GATEWAY_ADDR"); v != "" {
		c.Gateway.Addr = v
	}
	if v := os.Getenv("CYBERGUARD_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, err
		}
		c.API.Timeout = d
	}

	return c, nil
}

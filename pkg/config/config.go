package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// RuntimeConfig holds derived runtime values that other packages may query
// at runtime (populated during startup after merging env+file).
type RuntimeConfig struct {
	JWTSecret string
}

var (
	runtimeMu  sync.RWMutex
	runtimeCfg *RuntimeConfig
)

// SetRuntime sets the canonical runtime config used by the running server.
func SetRuntime(rc *RuntimeConfig) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtimeCfg = rc
}

// JWTSecret returns the configured token signing secret, or empty when
// auth is not configured.
func JWTSecret() string {
	runtimeMu.RLock()
	defer runtimeMu.RUnlock()
	if runtimeCfg == nil {
		return ""
	}
	return runtimeCfg.JWTSecret
}

type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
		TLS     struct {
			CertFile string `yaml:"cert_file"`
			KeyFile  string `yaml:"key_file"`
		} `yaml:"tls"`
	} `yaml:"server"`
	Storage struct {
		DBPath      string `yaml:"db_path"`
		IndexPath   string `yaml:"index_path"`
		StateDir    string `yaml:"state_dir"`
		AnalysisDir string `yaml:"analysis_dir"`
	} `yaml:"storage"`
	Security struct {
		JWTSecret string `yaml:"jwt_secret"`
		CORS      struct {
			AllowedOrigins []string `yaml:"allowed_origins"`
		} `yaml:"cors"`
		RateLimit struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
		IPWhitelist []string `yaml:"ip_whitelist"`
	} `yaml:"security"`
	Blog struct {
		URL      string `yaml:"url"`
		Enabled  bool   `yaml:"enabled"`
		Schedule string `yaml:"schedule"` // cron expression
	} `yaml:"blog"`
	AI struct {
		Provider string `yaml:"provider"` // ollama|anthropic|none
		Ollama   struct {
			Host  string `yaml:"host"`
			Model string `yaml:"model"`
		} `yaml:"ollama"`
		Anthropic struct {
			Model     string `yaml:"model"`
			MaxTokens int64  `yaml:"max_tokens"`
		} `yaml:"anthropic"`
		Embedding struct {
			Provider string `yaml:"provider"` // ollama|local
			Model    string `yaml:"model"`
			Host     string `yaml:"host"`
		} `yaml:"embedding"`
	} `yaml:"ai"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8200
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// ApplyDefaults fills zero-valued fields with working local defaults so a
// bare config file still yields a runnable service.
func (c *Config) ApplyDefaults() {
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = "./.data/events"
	}
	if c.Storage.IndexPath == "" {
		c.Storage.IndexPath = "./.data/index"
	}
	if c.Storage.StateDir == "" {
		c.Storage.StateDir = "./.data/state"
	}
	if c.Storage.AnalysisDir == "" {
		c.Storage.AnalysisDir = "./.data/analysis"
	}
	if c.Blog.Schedule == "" {
		c.Blog.Schedule = "0 3 */2 * *"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "ollama"
	}
	if c.AI.Ollama.Host == "" {
		c.AI.Ollama.Host = "http://localhost:11434"
	}
	if c.AI.Ollama.Model == "" {
		c.AI.Ollama.Model = "llama3.1:8b"
	}
	if c.AI.Anthropic.Model == "" {
		c.AI.Anthropic.Model = "claude-3-5-haiku-latest"
	}
	if c.AI.Anthropic.MaxTokens == 0 {
		c.AI.Anthropic.MaxTokens = 1024
	}
	if c.AI.Embedding.Provider == "" {
		c.AI.Embedding.Provider = "local"
	}
	if c.AI.Embedding.Model == "" {
		c.AI.Embedding.Model = "nomic-embed-text"
	}
	if c.AI.Embedding.Host == "" {
		c.AI.Embedding.Host = c.AI.Ollama.Host
	}
	if c.Security.RateLimit.RPS == 0 {
		c.Security.RateLimit.RPS = 10
	}
	if c.Security.RateLimit.Burst == 0 {
		c.Security.RateLimit.Burst = 30
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

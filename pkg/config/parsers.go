package config

import (
	"flag"
	"net"
	"os"
	"strconv"
	"strings"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// EffectiveConfigResult is the merged view of file, env and flag sources.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // "flags", "env", or "config"
}

// ParseConfigFlags parses command-line flags and returns them as a Flags struct.
func ParseConfigFlags() Flags {
	addrPtr := flag.String("addr", ":8200", "HTTP listen address")
	dbPtr := flag.String("db", "./.data/events", "event DB path")
	cfgPtr := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: setFlags}
}

// ResolveConfigPath decides the config file path using the flag-provided
// value and FLANERGIDE_CONFIG when the flag was not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("FLANERGIDE_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

// LoadEnvOverrides applies FLANERGIDE_* environment overrides onto cfg and
// reports whether any env var was used.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false
	parseList := func(v string) []string {
		if v == "" {
			return nil
		}
		parts := []string{}
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	if v := os.Getenv("FLANERGIDE_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("FLANERGIDE_DB_PATH"); v != "" {
		envUsed = true
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("FLANERGIDE_INDEX_PATH"); v != "" {
		envUsed = true
		cfg.Storage.IndexPath = v
	}
	if v := os.Getenv("FLANERGIDE_STATE_DIR"); v != "" {
		envUsed = true
		cfg.Storage.StateDir = v
	}
	if v := os.Getenv("FLANERGIDE_ANALYSIS_DIR"); v != "" {
		envUsed = true
		cfg.Storage.AnalysisDir = v
	}
	if v := os.Getenv("FLANERGIDE_JWT_SECRET"); v != "" {
		envUsed = true
		cfg.Security.JWTSecret = v
	}
	if v := os.Getenv("FLANERGIDE_CORS_ORIGINS"); v != "" {
		envUsed = true
		cfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := os.Getenv("FLANERGIDE_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("FLANERGIDE_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("FLANERGIDE_IP_WHITELIST"); v != "" {
		envUsed = true
		cfg.Security.IPWhitelist = parseList(v)
	}
	if v := os.Getenv("FLANERGIDE_BLOG_URL"); v != "" {
		envUsed = true
		cfg.Blog.URL = v
		cfg.Blog.Enabled = true
	}
	if v := os.Getenv("FLANERGIDE_BLOG_SCHEDULE"); v != "" {
		envUsed = true
		cfg.Blog.Schedule = v
	}
	if v := os.Getenv("FLANERGIDE_AI_PROVIDER"); v != "" {
		envUsed = true
		cfg.AI.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("FLANERGIDE_OLLAMA_HOST"); v != "" {
		envUsed = true
		cfg.AI.Ollama.Host = v
	}
	if v := os.Getenv("FLANERGIDE_EMBEDDING_PROVIDER"); v != "" {
		envUsed = true
		cfg.AI.Embedding.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if c := os.Getenv("FLANERGIDE_TLS_CERT"); c != "" {
		envUsed = true
		cfg.Server.TLS.CertFile = c
	}
	if k := os.Getenv("FLANERGIDE_TLS_KEY"); k != "" {
		envUsed = true
		cfg.Server.TLS.KeyFile = k
	}
	return envUsed
}

// LoadEffective loads the config file (when present), overlays env vars,
// then overlays explicit flags, and returns the merged result. Precedence
// is flags > env > file; Source names the highest source that contributed.
func LoadEffective(flags Flags) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult

	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := Load(cfgPath)
	if err != nil {
		if flags.Set["config"] {
			return res, err
		}
		cfg = &Config{}
	} else {
		res.Source = "config"
	}

	if LoadEnvOverrides(cfg) {
		res.Source = "env"
	}

	if flags.Set["addr"] {
		res.Source = "flags"
		if h, p, err := net.SplitHostPort(flags.Addr); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = flags.Addr
		}
	}
	if flags.Set["db"] {
		res.Source = "flags"
		cfg.Storage.DBPath = flags.DB
	}
	if res.Source == "" {
		res.Source = "config"
	}

	cfg.ApplyDefaults()
	res.Config = cfg
	res.Addr = cfg.Addr()
	res.DBPath = cfg.Storage.DBPath
	return res, nil
}

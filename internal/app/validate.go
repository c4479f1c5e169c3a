package app

import (
	"fmt"

	"flanergide/pkg/config"
)

// validateConfig fails fast on settings that would only surface as runtime
// errors much later.
func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.Config == nil {
		return fmt.Errorf("no effective config")
	}
	cfg := eff.Config
	if eff.DBPath == "" {
		return fmt.Errorf("event DB path is empty; set storage.db_path or -db")
	}
	if cfg.Storage.IndexPath == "" {
		return fmt.Errorf("index path is empty; set storage.index_path")
	}
	switch cfg.AI.Provider {
	case "", "ollama", "anthropic", "none":
	default:
		return fmt.Errorf("unknown ai.provider %q (want ollama, anthropic or none)", cfg.AI.Provider)
	}
	switch cfg.AI.Embedding.Provider {
	case "", "ollama", "local":
	default:
		return fmt.Errorf("unknown ai.embedding.provider %q (want ollama or local)", cfg.AI.Embedding.Provider)
	}
	if cfg.Blog.Enabled && cfg.Blog.URL == "" {
		return fmt.Errorf("blog.enabled is set but blog.url is empty")
	}
	return nil
}

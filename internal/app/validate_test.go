package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"flanergide/pkg/config"
)

func validEff() config.EffectiveConfigResult {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return config.EffectiveConfigResult{Config: cfg, Addr: cfg.Addr(), DBPath: cfg.Storage.DBPath}
}

func TestValidateConfigOK(t *testing.T) {
	require.NoError(t, validateConfig(validEff()))
}

func TestValidateConfigRejects(t *testing.T) {
	eff := validEff()
	eff.DBPath = ""
	require.Error(t, validateConfig(eff))

	eff = validEff()
	eff.Config.AI.Provider = "gpt"
	require.Error(t, validateConfig(eff))

	eff = validEff()
	eff.Config.AI.Embedding.Provider = "openai"
	require.Error(t, validateConfig(eff))

	eff = validEff()
	eff.Config.Blog.Enabled = true
	eff.Config.Blog.URL = ""
	require.Error(t, validateConfig(eff))

	require.Error(t, validateConfig(config.EffectiveConfigResult{}))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("EDU_TEST_HOST", "db.internal")

	cases := map[string]string{
		"host: ${EDU_TEST_HOST}":            "host: db.internal",
		"host: ${EDU_TEST_HOST:localhost}":  "host: db.internal",
		"port: ${EDU_TEST_UNSET_PORT:5432}": "port: 5432",
		"key: ${EDU_TEST_UNSET_KEY:}":       "key: ",
		// 未设置且无默认值时保留原样
		"raw: ${EDU_TEST_UNSET_RAW}": "raw: ${EDU_TEST_UNSET_RAW}",
	}
	for in, want := range cases {
		assert.Equal(t, want, expandEnv(in), in)
	}
}

func TestLoadFrom_MergesEnvFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	base := `
database:
  driver: postgres
llm:
  default_provider: main
  providers:
    main:
      model: gpt-test
      api_key: ${EDU_TEST_KEY:fallback-key}
security:
  jwt:
    secret: s3cret
`
	overlay := `
database:
  driver: sqlite
generation:
  timeout: 45s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(base), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.staging.yaml"), []byte(overlay), 0o600))
	t.Setenv("APP_ENV", "staging")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 45*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.Equal(t, "content_v1", cfg.Generation.ContentPromptID)

	name, p, err := cfg.ResolveProvider()
	require.NoError(t, err)
	assert.Equal(t, "main", name)
	assert.Equal(t, ProviderTypeOpenAI, p.Type)
	assert.Equal(t, "gpt-test", p.Model)
	assert.Equal(t, "fallback-key", p.APIKey)
}

func TestLoadFrom_RequiresSecret(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("app:\n  name: x\n"), 0o600))
	t.Setenv("APP_ENV", "none")

	_, err := LoadFrom(dir)
	assert.ErrorContains(t, err, "security.jwt.secret")
}

func TestResolveProvider_GenerationOverrides(t *testing.T) {
	cfg := &Config{
		LLM: LLMConfig{
			DefaultProvider: "a",
			Providers: map[string]ProviderConfig{
				"a": {Type: ProviderTypeOpenAI, Model: "m-a"},
				"b": {Type: ProviderTypeAnthropic, Model: "m-b"},
			},
		},
		Generation: GenerationConfig{Provider: "b", Model: "override"},
	}

	name, p, err := cfg.ResolveProvider()
	require.NoError(t, err)
	assert.Equal(t, "b", name)
	assert.Equal(t, ProviderTypeAnthropic, p.Type)
	assert.Equal(t, "override", p.Model)

	cfg.Generation.Provider = "missing"
	_, _, err = cfg.ResolveProvider()
	assert.Error(t, err)
}

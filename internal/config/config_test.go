package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesAllSections(t *testing.T) {
	path := writeConfig(t, `
[llm]
provider = "claude"
model = "claude-sonnet-4-20250514"
intent_model = "claude-3-5-haiku-20241022"
api_key = "sk-test"
temperature = 0.7

[neo4j]
uri = "bolt://graph:7687"
user = "neo4j"
password = "secret"

[websearch]
api_key = "serper-key"
max_results = 3

[retrieval]
top_entities = 10
max_relations = 8
cache_ttl_seconds = 120

[escalation]
refusal_markers = ["no idea"]

[ingest]
chunk_size = 1500
workers = 5
input_dir = "data/books"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, "claude-3-5-haiku-20241022", cfg.LLM.IntentModel)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 0.001)
	assert.Equal(t, "bolt://graph:7687", cfg.Neo4j.URI)
	assert.Equal(t, 3, cfg.WebSearch.MaxResults)
	assert.Equal(t, 10, cfg.Retrieval.TopEntities)
	assert.Equal(t, 120, cfg.Retrieval.CacheTTLSeconds)
	assert.Equal(t, []string{"no idea"}, cfg.Escalation.RefusalMarkers)
	assert.Equal(t, 1500, cfg.Ingest.ChunkSize)
	assert.Equal(t, "data/books", cfg.Ingest.InputDir)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.IntentModel)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, 5, cfg.WebSearch.MaxResults)
	assert.Equal(t, 5, cfg.Retrieval.TopEntities)
	assert.Equal(t, 5, cfg.Retrieval.MaxRelations)
	assert.Equal(t, DefaultRefusalMarkers(), cfg.Escalation.RefusalMarkers)
	assert.Equal(t, 3000, cfg.Ingest.ChunkSize)
	assert.Equal(t, 3, cfg.Ingest.Workers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadMalformedTOML(t *testing.T) {
	path := writeConfig(t, "[llm\nprovider =")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("LLM_API_KEY", "env-key")
	t.Setenv("NEO4J_URI", "bolt://env:7687")
	t.Setenv("NEO4J_PASSWORD", "env-secret")
	t.Setenv("SERPER_API_KEY", "env-serper")
	t.Setenv("WEB_SEARCH_MAX_RESULTS", "7")

	path := writeConfig(t, `
[llm]
provider = "openai"
api_key = "file-key"
`)

	cfg, err := LoadWithEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, "bolt://env:7687", cfg.Neo4j.URI)
	assert.Equal(t, "env-secret", cfg.Neo4j.Password)
	assert.Equal(t, "env-serper", cfg.WebSearch.APIKey)
	assert.Equal(t, 7, cfg.WebSearch.MaxResults)
}

func TestApplyEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("WEB_SEARCH_MAX_RESULTS", "not-a-number")

	cfg := &Config{}
	cfg.applyDefaults()
	cfg.ApplyEnv()

	assert.Equal(t, 5, cfg.WebSearch.MaxResults)
}

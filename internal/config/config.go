package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	IntentModel string  `toml:"intent_model"`
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Temperature float32 `toml:"temperature"`
}

type Neo4jConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type WebSearchConfig struct {
	APIKey     string `toml:"api_key"`
	Endpoint   string `toml:"endpoint"`
	MaxResults int    `toml:"max_results"`
}

type RetrievalConfig struct {
	TopEntities     int `toml:"top_entities"`
	MaxRelations    int `toml:"max_relations"`
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`
}

type EscalationConfig struct {
	// Phrases whose presence in a graph-context answer means "nothing found".
	// Policy, not structure: override per deployment language.
	RefusalMarkers []string `toml:"refusal_markers"`
}

type IngestConfig struct {
	ChunkSize int    `toml:"chunk_size"`
	Workers   int    `toml:"workers"`
	InputDir  string `toml:"input_dir"`
}

type Prompts struct {
	Intent     string `toml:"intent"`
	System     string `toml:"system"`
	Extraction string `toml:"extraction"`
}

type Config struct {
	LLM        LLMConfig        `toml:"llm"`
	Neo4j      Neo4jConfig      `toml:"neo4j"`
	WebSearch  WebSearchConfig  `toml:"websearch"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Escalation EscalationConfig `toml:"escalation"`
	Ingest     IngestConfig     `toml:"ingest"`
	Prompts    Prompts          `toml:"prompts"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadWithEnv loads the TOML file and then applies environment overrides,
// so deployments can keep secrets out of the config file.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_INTENT_MODEL"); v != "" {
		c.LLM.IntentModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("NEO4J_URI"); v != "" {
		c.Neo4j.URI = v
	}
	if v := os.Getenv("NEO4J_USERNAME"); v != "" {
		c.Neo4j.User = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		c.Neo4j.Password = v
	}
	if v := os.Getenv("SERPER_API_KEY"); v != "" {
		c.WebSearch.APIKey = v
	}
	if v := os.Getenv("WEB_SEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.WebSearch.MaxResults = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o"
	}
	if c.LLM.IntentModel == "" {
		c.LLM.IntentModel = "gpt-4o-mini"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.Neo4j.URI == "" {
		c.Neo4j.URI = "bolt://localhost:7687"
	}
	if c.WebSearch.MaxResults == 0 {
		c.WebSearch.MaxResults = 5
	}
	if c.Retrieval.TopEntities == 0 {
		c.Retrieval.TopEntities = 5
	}
	if c.Retrieval.MaxRelations == 0 {
		c.Retrieval.MaxRelations = 5
	}
	if len(c.Escalation.RefusalMarkers) == 0 {
		c.Escalation.RefusalMarkers = DefaultRefusalMarkers()
	}
	if c.Ingest.ChunkSize == 0 {
		c.Ingest.ChunkSize = 3000
	}
	if c.Ingest.Workers == 0 {
		c.Ingest.Workers = 3
	}
	if c.Ingest.InputDir == "" {
		c.Ingest.InputDir = "data/input"
	}
}

// DefaultRefusalMarkers returns the stock Vietnamese refusal phrases:
// "not found", "no information", "sorry".
func DefaultRefusalMarkers() []string {
	return []string{"không tìm thấy", "không có thông tin", "xin lỗi"}
}

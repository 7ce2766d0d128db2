package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		Provider       string  `yaml:"provider"`
		BaseURL        string  `yaml:"base_url"`
		Model          string  `yaml:"model"`
		EmbeddingModel string  `yaml:"embedding_model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
		APIKey         string  `yaml:"-"`
	} `yaml:"llm"`

	Store struct {
		Backend     string `yaml:"backend"`
		URL         string `yaml:"url"`
		Collection  string `yaml:"collection"`
		VectorDim   int    `yaml:"vector_dim"`
		BatchSize   int    `yaml:"batch_size"`
		SearchLimit int    `yaml:"search_limit"`
		APIKey      string `yaml:"-"`
	} `yaml:"store"`

	Splitter struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"splitter"`

	Crawl struct {
		MaxDepth          int      `yaml:"max_depth"`
		MaxPages          int      `yaml:"max_pages"`
		RateLimit         float64  `yaml:"rate_limit"`
		IgnorePatterns    []string `yaml:"ignore_patterns"`
		AllowedExtensions []string `yaml:"allowed_extensions"`
	} `yaml:"crawl"`

	Catalog struct {
		Path string `yaml:"path"`
	} `yaml:"catalog"`

	UI struct {
		Streaming bool `yaml:"streaming"`
	} `yaml:"ui"`
}

func LoadConfig(path string) (*Config, error) {
	// Secrets and connection strings may live in a .env file; a missing
	// file is not an error.
	_ = godotenv.Load()

	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"distill.yaml",
			"distill.yml",
			filepath.Join(os.Getenv("HOME"), ".config/distill/config.yaml"),
			"/etc/distill/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "ollama"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "llama3"
	}
	if config.LLM.EmbeddingModel == "" {
		config.LLM.EmbeddingModel = "nomic-embed-text"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.BaseURL == "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Store.Backend == "" {
		config.Store.Backend = "pgvector"
	}
	if config.Store.Collection == "" {
		config.Store.Collection = "distill"
	}
	if config.Store.VectorDim == 0 {
		// nomic-embed-text produces 768-dimensional vectors.
		config.Store.VectorDim = 768
	}
	if config.Store.BatchSize == 0 {
		config.Store.BatchSize = 64
	}
	if config.Store.SearchLimit == 0 {
		config.Store.SearchLimit = 4
	}

	if config.Splitter.ChunkSize == 0 {
		config.Splitter.ChunkSize = 1000
	}
	if config.Splitter.ChunkOverlap == 0 {
		config.Splitter.ChunkOverlap = 200
	}

	if config.Crawl.MaxDepth == 0 {
		config.Crawl.MaxDepth = 2
	}
	if config.Crawl.MaxPages == 0 {
		config.Crawl.MaxPages = 50
	}
	if config.Crawl.RateLimit == 0 {
		config.Crawl.RateLimit = 2.0
	}
	if len(config.Crawl.AllowedExtensions) == 0 {
		config.Crawl.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}

	if config.Catalog.Path == "" {
		config.Catalog.Path = filepath.Join(os.Getenv("HOME"), ".distill", "catalog.db")
	}
}

func mergeWithEnv(config *Config) {
	if provider := os.Getenv("DISTILL_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Store.URL = dbURL
	}
	if backend := os.Getenv("DISTILL_STORE_BACKEND"); backend != "" {
		config.Store.Backend = backend
	}
	if qdrantURL := os.Getenv("QDRANT_URL"); qdrantURL != "" && config.Store.Backend == "qdrant" {
		config.Store.URL = qdrantURL
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" {
		config.Store.APIKey = key
	}
}

package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Schema   string `yaml:"schema"`
}

// ConnString builds the pgx connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

// OllamaConfig holds the local LLM endpoint settings.
type OllamaConfig struct {
	URL        string `yaml:"url"`
	Model      string `yaml:"model"`
	EmbedModel string `yaml:"embed_model"`
}

// IndexConfig points at the guideline index directory on disk.
type IndexConfig struct {
	Dir string `yaml:"dir"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	Index    IndexConfig    `yaml:"index"`
}

// Load reads the YAML config file, expands ${VAR} references, then
// applies environment-variable overrides on top. A missing file is not
// an error; env vars and defaults carry the whole configuration.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path == "" {
		path = "configs/chroniccare.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		expanded := os.Expand(string(data), os.Getenv)
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Username: "postgres",
			Database: "chroniccare",
			Schema:   "public",
		},
		Ollama: OllamaConfig{
			URL:        "http://127.0.0.1:11434",
			Model:      "llama3.2",
			EmbedModel: "nomic-embed-text",
		},
		Index: IndexConfig{Dir: "data/guideline_index"},
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)

	cfg.Database.Host = getEnv("CHRONICCARE_DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("CHRONICCARE_DB_PORT", cfg.Database.Port)
	cfg.Database.Username = getEnv("CHRONICCARE_DB_USERNAME", cfg.Database.Username)
	cfg.Database.Password = getEnv("CHRONICCARE_DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Database = getEnv("CHRONICCARE_DB_DATABASE", cfg.Database.Database)
	cfg.Database.Schema = getEnv("CHRONICCARE_DB_SCHEMA", cfg.Database.Schema)

	cfg.Ollama.URL = getEnv("OLLAMA_URL", cfg.Ollama.URL)
	cfg.Ollama.Model = getEnv("OLLAMA_MODEL", cfg.Ollama.Model)
	cfg.Ollama.EmbedModel = getEnv("OLLAMA_EMBED_MODEL", cfg.Ollama.EmbedModel)

	cfg.Index.Dir = getEnv("GUIDELINE_INDEX_DIR", cfg.Index.Dir)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}

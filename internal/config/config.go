package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Puzzle   PuzzleConfig
	GCP      GCPConfig
	Gemini   GeminiConfig
	Client   ClientConfig
	Import   ImportConfig
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// PuzzleConfig holds the board dimension shared by every puzzle.
type PuzzleConfig struct {
	Size int
}

// GCPConfig selects the VertexAI project. An empty ProjectID disables photo import.
type GCPConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Region    string
}

// GeminiConfig holds model settings.
type GeminiConfig struct {
	Model string
}

// ClientConfig points the terminal player at a server.
type ClientConfig struct {
	APIURL string `mapstructure:"api_url"`
}

// ImportConfig holds archive import settings.
type ImportConfig struct {
	Dir string
}

// Load reads configuration from file and env. Env var overrides use prefix
// GRIDWIT_; PORT, GCP_PROJECT_ID and GCP_REGION are honored too.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "gridwit", "gridwit.db"))
	v.SetDefault("puzzle.size", 15)
	v.SetDefault("gcp.project_id", "")
	v.SetDefault("gcp.region", "europe-west1")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("client.api_url", "http://localhost:8080")
	v.SetDefault("import.dir", "nyt_crosswords")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("GRIDWIT_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "gridwit"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("GRIDWIT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("server.port", "GRIDWIT_SERVER_PORT", "PORT")
	_ = v.BindEnv("gcp.project_id", "GRIDWIT_GCP_PROJECT_ID", "GCP_PROJECT_ID")
	_ = v.BindEnv("gcp.region", "GRIDWIT_GCP_REGION", "GCP_REGION")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Puzzle.Size <= 0 {
		return Config{}, fmt.Errorf("puzzle.size must be positive, got %d", c.Puzzle.Size)
	}
	return c, nil
}

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	AMQP      AMQPConfig
	Scheduler SchedulerConfig
	LogPath   string
	Sources   map[string]*SourceConfig
}

type HTTPConfig struct {
	Port string
}

type DatabaseConfig struct {
	// URL points at Postgres; when empty the service runs on the local
	// SQLite file at Path instead.
	URL  string
	Path string
}

type AMQPConfig struct {
	URL      string
	Prefetch int
}

type SchedulerConfig struct {
	StatsCron string
	Interval  time.Duration
}

// SourceConfig describes one scraping source: which queue its messages
// arrive on and how its site-specific vocabulary maps onto the canonical
// one. Keys in the alias maps are lowercased site phrases.
type SourceConfig struct {
	ID            string            `yaml:"id"`
	Name          string            `yaml:"name"`
	Queue         string            `yaml:"queue"`
	DealTypes     map[string]string `yaml:"deal_types"`
	PropertyTypes map[string]string `yaml:"property_types"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTP: HTTPConfig{
			Port: getEnv("HTTP_PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL:  os.Getenv("DATABASE_URL"),
			Path: getEnv("DB_PATH", "backoffice.db"),
		},
		AMQP: AMQPConfig{
			URL:      os.Getenv("AMQP_URL"),
			Prefetch: getEnvInt("AMQP_PREFETCH", 10),
		},
		Scheduler: SchedulerConfig{
			StatsCron: getEnv("STATS_CRON", "0 * * * *"),
		},
		LogPath: getEnv("LOG_PATH", "logs/backoffice.log"),
		Sources: make(map[string]*SourceConfig),
	}

	if interval := os.Getenv("STATS_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Scheduler.StatsCron = ""
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadSourceConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadSourceConfigs() error {
	configDir := "config/sources"
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var source SourceConfig
		if err := yaml.Unmarshal(data, &source); err != nil {
			return err
		}

		c.Sources[source.ID] = &source
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

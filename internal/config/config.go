package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Workflow Workflow `yaml:"workflow"`
}

type Server struct {
	ListenAddr    string `yaml:"listenAddr"`
	Store         string `yaml:"store"` // postgres, memory
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	BlobURL       string `yaml:"blobURL"`
}

type Workflow struct {
	RejectDuplicateAssociations bool          `yaml:"rejectDuplicateAssociations"`
	MaxConflictRetries          int           `yaml:"maxConflictRetries"`
	UserCacheTTL                time.Duration `yaml:"userCacheTTL"` // capped at 30 days for memcached
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if err := config.applyDefaults(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Default is the configuration used when no file is given: in-memory
// stores and blobs under ./Documents.
func Default() (Config, error) {
	config := Config{Server: Server{Store: StoreMemory}}
	if err := config.applyDefaults(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) applyDefaults() error {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8000"
	}
	if c.Server.Store == "" {
		c.Server.Store = StorePostgres
	}
	if c.Server.BlobURL == "" {
		dir, err := filepath.Abs("Documents")
		if err != nil {
			return err
		}
		c.Server.BlobURL = "file://" + filepath.ToSlash(dir)
	}
	if c.Workflow.MaxConflictRetries <= 0 {
		c.Workflow.MaxConflictRetries = 3
	}
	if c.Workflow.UserCacheTTL <= 0 {
		c.Workflow.UserCacheTTL = 10 * time.Minute
	}
	return nil
}

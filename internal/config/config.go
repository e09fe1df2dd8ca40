package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wms-platform/outbound-scan-service/pkg/kafka"
	"github.com/wms-platform/outbound-scan-service/pkg/mongodb"
)

// Config holds the full service configuration. Values come from an
// optional YAML file with environment variables taking precedence.
type Config struct {
	ServerAddr   string          `yaml:"server_addr"`
	SnapshotPath string          `yaml:"snapshot_path"`
	Factory      string          `yaml:"factory"`
	Stations     []StationConfig `yaml:"stations"`
	MongoDB      MongoConfig     `yaml:"mongodb"`
	Kafka        KafkaConfig     `yaml:"kafka"`
	Tracing      TracingConfig   `yaml:"tracing"`
}

// StationConfig declares a scan station opened at startup. A non-zero
// camera port starts a TCP listener feeding decoded barcodes into the
// station's queue.
type StationConfig struct {
	StationID  string `yaml:"station_id"`
	Factory    string `yaml:"factory"`
	CameraPort int    `yaml:"camera_port"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

type TracingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Load reads the YAML file at path when it exists, then applies
// environment overrides. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	config := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(config)
	return config, nil
}

func defaults() *Config {
	return &Config{
		ServerAddr:   ":8011",
		SnapshotPath: "data/snapshots.db",
		Factory:      "ASM001",
		MongoDB: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "wms_outbound",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
		},
		Tracing: TracingConfig{
			Enabled:      true,
			OTLPEndpoint: "localhost:4317",
		},
	}
}

func applyEnv(config *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		config.ServerAddr = v
	}
	if v := os.Getenv("SNAPSHOT_PATH"); v != "" {
		config.SnapshotPath = v
	}
	if v := os.Getenv("FACTORY_CODE"); v != "" {
		config.Factory = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		config.MongoDB.URI = v
	}
	if v := os.Getenv("MONGODB_DATABASE"); v != "" {
		config.MongoDB.Database = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		config.Kafka.Brokers = []string{v}
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		config.Tracing.OTLPEndpoint = v
	}
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		config.Tracing.Enabled = v == "true"
	}
}

// MongoClientConfig maps the loaded values onto the shared client config.
func (c *Config) MongoClientConfig() *mongodb.Config {
	cfg := mongodb.DefaultConfig()
	cfg.URI = c.MongoDB.URI
	cfg.Database = c.MongoDB.Database
	cfg.ConnectTimeout = 10 * time.Second
	return cfg
}

// KafkaProducerConfig maps the loaded values onto the shared producer
// config.
func (c *Config) KafkaProducerConfig(serviceName string) *kafka.Config {
	cfg := kafka.DefaultConfig()
	cfg.Brokers = c.Kafka.Brokers
	cfg.ClientID = serviceName
	return cfg
}

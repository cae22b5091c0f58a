package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Tracker  TrackerConfig  `yaml:"tracker"`
}

// StorageConfig selects where the two package collections are kept.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "file" | "memory" | "redis" | "postgres"
	FileDir string `yaml:"file_dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                    string `yaml:"host"`
	Port                    int    `yaml:"port"`
	PackageChangedTopicName string `yaml:"package_changed_topic_name"`
	PackageUpdatedTopicName string `yaml:"package_updated_topic_name"`
}

type RedisConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	KeyPrefix string `yaml:"key_prefix"`
}

type TrackerConfig struct {
	GRPCAddr           string `yaml:"grpc_addr"`
	GRPCDialAddr       string `yaml:"grpc_dial_addr"`
	HTTPAddr           string `yaml:"http_addr"`
	SwaggerPath        string `yaml:"swagger_path"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

// Enabled reports whether a broker address is configured.
func (k KafkaConfig) Enabled() bool {
	return k.Host != "" && k.Port > 0
}

func (k KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", k.Host, k.Port)}
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (d DatabaseConfig) ConnString() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.DBName, sslMode)
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}

package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
}

// AuthConfig - параметры выпуска токенов, передаются в AuthService явно
type AuthConfig struct {
	SecretKey       string        `yaml:"secret_key"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

type ConfigSchema struct {
	Databases struct {
		// Driver: "sqlite" (по умолчанию) или "postgres"
		Driver   string     `yaml:"driver"`
		Path     string     `yaml:"path"`
		Master   DBConfig   `yaml:"master"`
		Replicas []DBConfig `yaml:"replicas"`
	} `yaml:"db"`
	Redis struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		FeedCacheTTL time.Duration `yaml:"feed_cache_ttl"`
	} `yaml:"redis"`
	RabbitMQ struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
		Queue    string `yaml:"queue"`
	} `yaml:"rabbitmq"`
	Backend struct {
		Host           string   `yaml:"host"`
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"backend"`
	Auth AuthConfig `yaml:"auth"`
	Logs struct {
		Level string `yaml:"level"`
	} `yaml:"logs"`
}

var AppConfig *ConfigSchema

// Defaults возвращает конфигурацию, пригодную для локального запуска
func Defaults() *ConfigSchema {
	conf := &ConfigSchema{}
	conf.Databases.Driver = "sqlite"
	conf.Databases.Path = "blog.db"
	conf.Redis.FeedCacheTTL = 5 * time.Minute
	conf.RabbitMQ.Exchange = "blog_events"
	conf.RabbitMQ.Queue = "blog_notify_queue"
	conf.Backend.Port = 8080
	conf.Auth.SecretKey = "your-secret-key"
	conf.Auth.AccessTokenTTL = 30 * time.Minute
	conf.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
	conf.Logs.Level = "info"
	return conf
}

// LoadConfig читает YAML поверх значений по умолчанию и сохраняет результат в AppConfig
func LoadConfig(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	conf, err := Parse(data)
	if err != nil {
		return err
	}
	AppConfig = conf
	return nil
}

func Parse(data []byte) (*ConfigSchema, error) {
	conf := Defaults()
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, err
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		conf.Auth.SecretKey = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		conf.RabbitMQ.URL = v
	}
	return conf, nil
}

package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type SessionConfig struct {
	SigningSecret string `mapstructure:"signing_secret"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type RetentionConfig struct {
	AuditDays       int           `mapstructure:"audit_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Log       LogConfig       `mapstructure:"log"`
	Retention RetentionConfig `mapstructure:"retention"`
	Cipher    CipherConfig
}

// CipherConfig comes from the environment only; field keys never live
// in the config file.
type CipherConfig struct {
	RecordKey string `envconfig:"RECORD_CIPHER_KEY"`
	ICKey     string `envconfig:"IC_CIPHER_KEY"`
}

// secretOverrides are environment values that take precedence over
// anything in config.yaml.
type secretOverrides struct {
	DBPassword    string `envconfig:"DB_PASSWORD"`
	SigningSecret string `envconfig:"SESSION_SIGNING_SECRET"`
	SMTPPassword  string `envconfig:"SMTP_PASSWORD"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 10*time.Second)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("retention.audit_days", 365)
	viper.SetDefault("retention.cleanup_interval", time.Hour)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var secrets secretOverrides
	if err := envconfig.Process("clinic", &secrets); err != nil {
		return nil, fmt.Errorf("failed to read environment secrets: %w", err)
	}
	if secrets.DBPassword != "" {
		cfg.Database.Password = secrets.DBPassword
	}
	if secrets.SigningSecret != "" {
		cfg.Session.SigningSecret = secrets.SigningSecret
	}
	if secrets.SMTPPassword != "" {
		cfg.SMTP.Password = secrets.SMTPPassword
	}

	if err := envconfig.Process("clinic", &cfg.Cipher); err != nil {
		return nil, fmt.Errorf("failed to read cipher keys: %w", err)
	}

	return &cfg, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageDriverDisk   = "disk"
	StorageDriverGridFS = "gridfs"
)

// Config is built once at startup and handed to every constructor.
type Config struct {
	App          AppConfig          `yaml:"app"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	Auth         AuthConfig         `yaml:"auth"`
	Storage      StorageConfig      `yaml:"storage"`
	Notification NotificationConfig `yaml:"notification"`
	Phone        PhoneConfig        `yaml:"phone"`
}

type AppConfig struct {
	Env          string        `yaml:"env"`
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type DatabaseConfig struct {
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SSLMode    string `yaml:"ssl_mode"`
	MaxRetries int    `yaml:"max_retries"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
}

type KafkaConfig struct {
	Broker                  string        `yaml:"broker"`
	EmployeeLifecycleTopic  string        `yaml:"employee_lifecycle_topic"`
	NotificationTopic       string        `yaml:"notification_topic"`
	LifecycleConsumerGroup  string        `yaml:"lifecycle_consumer_group"`
	NotificationConsumerGrp string        `yaml:"notification_consumer_group"`
	OutboxPollInterval      time.Duration `yaml:"outbox_poll_interval"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	TempCodeTTL   time.Duration `yaml:"temp_code_ttl"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`
	AdminName     string        `yaml:"admin_name"`
}

type StorageConfig struct {
	Driver             string        `yaml:"driver"`
	DiskRoot           string        `yaml:"disk_root"`
	MongoURI           string        `yaml:"mongo_uri"`
	MongoDatabase      string        `yaml:"mongo_database"`
	RecordingsBucket   string        `yaml:"recordings_bucket"`
	DocumentsBucket    string        `yaml:"documents_bucket"`
	MaxUploadBytes     int64         `yaml:"max_upload_bytes"`
	MaxDocumentBytes   int64         `yaml:"max_document_bytes"`
	PurgeSweepInterval time.Duration `yaml:"purge_sweep_interval"`
}

type NotificationConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	// SMTPTLS is one of "mandatory", "opportunistic" or "none".
	SMTPTLS     string        `yaml:"smtp_tls"`
	SMTPTimeout time.Duration `yaml:"smtp_timeout"`
	From        string        `yaml:"from"`
}

type PhoneConfig struct {
	DefaultRegion string `yaml:"default_region"`
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the key/value connection string understood by the postgres driver.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// URL is the form golang-migrate expects.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func Default() Config {
	return Config{
		App: AppConfig{
			Env:          "development",
			Port:         "5000",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:       "localhost",
			Port:       "5432",
			SSLMode:    "disable",
			MaxRetries: 5,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{
			EmployeeLifecycleTopic:  "callsync.employee.lifecycle.v1",
			NotificationTopic:       "callsync.notification.requested.v1",
			LifecycleConsumerGroup:  "callsync-welcome-notifier",
			NotificationConsumerGrp: "callsync-notification-delivery",
			OutboxPollInterval:      3 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL:    30 * 24 * time.Hour,
			TempCodeTTL: 10 * time.Minute,
			AdminName:   "Admin",
		},
		Storage: StorageConfig{
			Driver:             StorageDriverDisk,
			DiskRoot:           "uploads",
			MongoDatabase:      "callsync",
			RecordingsBucket:   "recordings",
			DocumentsBucket:    "employee_docs",
			MaxUploadBytes:     50 << 20,
			MaxDocumentBytes:   10 << 20,
			PurgeSweepInterval: time.Minute,
		},
		Notification: NotificationConfig{SMTPPort: 587, SMTPTLS: "mandatory", SMTPTimeout: 15 * time.Second},
		Phone:        PhoneConfig{DefaultRegion: "IN"},
	}
}

// Load starts from Default, overlays the YAML file at path (if any) and then
// the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("APP_ENV", &c.App.Env)
	str("PORT", &c.App.Port)

	str("DB_HOST", &c.Database.Host)
	str("DB_PORT", &c.Database.Port)
	str("DB_USER", &c.Database.User)
	str("DB_PASSWORD", &c.Database.Password)
	str("DB_NAME", &c.Database.Name)
	str("DB_SSLMODE", &c.Database.SSLMode)

	str("REDIS_ADDR", &c.Redis.Addr)
	str("KAFKA_BROKER", &c.Kafka.Broker)

	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("ADMIN_EMAIL", &c.Auth.AdminEmail)
	str("ADMIN_PASSWORD", &c.Auth.AdminPassword)
	str("ADMIN_NAME", &c.Auth.AdminName)

	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_DISK_ROOT", &c.Storage.DiskRoot)
	str("MONGO_URI", &c.Storage.MongoURI)
	str("MONGO_DATABASE", &c.Storage.MongoDatabase)

	str("SMTP_HOST", &c.Notification.SMTPHost)
	str("SMTP_USER", &c.Notification.SMTPUser)
	str("SMTP_PASSWORD", &c.Notification.SMTPPassword)
	str("SMTP_FROM", &c.Notification.From)
	str("SMTP_TLS", &c.Notification.SMTPTLS)

	str("PHONE_DEFAULT_REGION", &c.Phone.DefaultRegion)

	if v, ok := lookup("TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: TOKEN_TTL: %w", err)
		}
		c.Auth.TokenTTL = d
	}
	if v, ok := lookup("TEMP_CODE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: TEMP_CODE_TTL: %w", err)
		}
		c.Auth.TempCodeTTL = d
	}
	if v, ok := lookup("SMTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: SMTP_PORT: %w", err)
		}
		c.Notification.SMTPPort = port
	}
	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: MAX_UPLOAD_BYTES: %w", err)
		}
		c.Storage.MaxUploadBytes = n
	}

	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("config: auth.jwt_secret must be set")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("config: auth.token_ttl must be positive")
	}
	if c.Auth.TempCodeTTL <= 0 {
		return fmt.Errorf("config: auth.temp_code_ttl must be positive")
	}

	switch c.Storage.Driver {
	case StorageDriverDisk:
		if c.Storage.DiskRoot == "" {
			return fmt.Errorf("config: storage.disk_root must be set for the disk driver")
		}
	case StorageDriverGridFS:
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("config: storage.mongo_uri must be set for the gridfs driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Notification.SMTPTLS {
	case "mandatory", "opportunistic", "none":
	default:
		return fmt.Errorf("config: unknown notification.smtp_tls %q", c.Notification.SMTPTLS)
	}

	if c.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: storage.max_upload_bytes must be positive")
	}
	if c.Database.MaxRetries <= 0 {
		c.Database.MaxRetries = 1
	}
	c.Auth.AdminEmail = strings.ToLower(strings.TrimSpace(c.Auth.AdminEmail))

	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envAliases are the short environment names accepted next to the
// generated ones (DATABASE_POSTGRES_USER and so on).
var envAliases = map[string][]string{
	"database.postgres.user":     {"DB_USER"},
	"database.postgres.password": {"DB_PASSWORD"},
	"database.redis.address":     {"REDIS_ADDR"},
	"aws.region":                 {"AWS_REGION", "AWS_DEFAULT_REGION"},
	"aws.endpoint":               {"AWS_ENDPOINT_URL"},
	"aws.ses.from_email":         {"SES_FROM_EMAIL"},
	"camunda.broker_address":     {"ZEEBE_ADDRESS"},
	"logging.level":              {"LOG_LEVEL"},
}

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// over it and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range []string{"./configs", "../../configs", "."} {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName("config." + env)
	_ = v.MergeInConfig()

	return decode(v)
}

// LoadFromFile reads a single config file without an environment overlay.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		envs := append([]string{strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))}, names...)
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}
	return v
}

// setDefaults registers every scalar key so AutomaticEnv can override keys
// the YAML file leaves out.
func setDefaults(v *viper.Viper) {
	defaults := map[string]interface{}{
		"app.name":        "shop-documents",
		"app.environment": "development",

		"server.port":             8080,
		"server.read_timeout":     30000,
		"server.write_timeout":    60000,
		"server.shutdown_timeout": 15000,
		"server.max_body_bytes":   64 << 20,

		"camunda.enabled":         false,
		"camunda.broker_address":  "",
		"camunda.max_jobs_active": 10,
		"camunda.timeout":         30000,
		"camunda.request_timeout": 30000,

		"database.postgres.host":            "",
		"database.postgres.port":            5432,
		"database.postgres.database":        "",
		"database.postgres.user":            "",
		"database.postgres.password":        "",
		"database.postgres.max_connections": 25,
		"database.postgres.max_idle":        5,
		"database.postgres.sslmode":         "disable",
		"database.postgres.query_timeout":   10000,

		"database.elasticsearch.url":         "",
		"database.elasticsearch.username":    "",
		"database.elasticsearch.password":    "",
		"database.elasticsearch.max_retries": 3,

		"database.redis.address":        "",
		"database.redis.password":       "",
		"database.redis.db":             0,
		"database.redis.pool_size":      10,
		"database.redis.min_idle_conns": 2,
		"database.redis.dial_timeout":   5000,
		"database.redis.io_timeout":     3000,

		"aws.region":                    "",
		"aws.endpoint":                  "",
		"aws.request_timeout":           20000,
		"aws.ses.enabled":               false,
		"aws.ses.from_email":            "",
		"aws.ses.configuration_set":     "",
		"aws.sns.enabled":               false,
		"aws.sns.default_sms_sender_id": "",

		"documents.max_image_bytes":    5 << 20,
		"documents.evidence_title":     "FORMATO DE EVIDENCIAS FOTOGRÁFICAS",
		"documents.compact_slots":      12,
		"documents.shop_logo_path":     "configs/assets/shop_logo.b64",
		"documents.contract_text_path": "configs/templates/contrato.txt",
		"documents.audit_index":        "document-audit",

		"shop.name": "Servicio Automotriz Trotamundos",

		"cache.order_record_ttl": 0,
		"cache.key_prefix":       "shopdocs:order:",

		"logging.level":  "info",
		"logging.format": "json",
		"logging.output": "stdout",
	}
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
}

func decode(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	normalize(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found between the working directory and
// the module root. Variables already set win.
func loadEnvFile() {
	candidates := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if godotenv.Load(path) == nil {
			return
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} references left in string values. A
// reference to an unset variable keeps the literal text.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		raw, ok := v.Get(key).(string)
		if !ok || !strings.Contains(raw, "$") {
			continue
		}
		if expanded := os.ExpandEnv(raw); expanded != "" && expanded != raw {
			v.Set(key, expanded)
		}
	}
}

// normalize fills values that depend on other keys or on map entries
// viper defaults cannot reach.
func normalize(cfg *Config) {
	es := &cfg.Database.Elasticsearch
	if es.URL == "" && len(es.Addresses) > 0 {
		es.URL = es.Addresses[0]
	}

	for name, w := range cfg.Workers {
		if w.MaxJobsActive <= 0 {
			w.MaxJobsActive = defaultWorker.MaxJobsActive
		}
		if w.Timeout <= 0 {
			w.Timeout = defaultWorker.Timeout
		}
		if w.MaxRetries <= 0 {
			w.MaxRetries = defaultWorker.MaxRetries
		}
		cfg.Workers[name] = w
	}
}

// validateConfig reports every problem at once.
func validateConfig(cfg *Config) error {
	var errs []error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	pg := cfg.Database.Postgres
	check(pg.Host != "", "database.postgres.host is required")
	check(pg.Database != "", "database.postgres.database is required")
	check(pg.User != "", "database.postgres.user is required (or set DB_USER)")

	check(!cfg.Camunda.Enabled || cfg.Camunda.BrokerAddress != "",
		"camunda.broker_address is required when camunda is enabled")

	aws := cfg.AWS
	check(!aws.SES.Enabled || aws.SES.FromEmail != "", "aws.ses.from_email is required when ses is enabled")
	check(!(aws.SES.Enabled || aws.SNS.Enabled) || aws.Region != "",
		"aws.region is required when ses or sns is enabled")
	check(len(aws.SNS.DefaultSMSSenderID) <= 11, "aws.sns.default_sms_sender_id must be at most 11 characters")

	check(cfg.Documents.MaxImageBytes > 0, "documents.max_image_bytes must be positive")
	check(cfg.Documents.CompactSlots > 0 && cfg.Documents.CompactSlots%4 == 0,
		"documents.compact_slots must be a multiple of 4, got %d", cfg.Documents.CompactSlots)
	check(cfg.Cache.OrderRecordTTL >= 0, "cache.order_record_ttl must not be negative")

	return errors.Join(errs...)
}

// GetDuration converts a millisecond config value.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

var defaultWorker = WorkerConfig{
	Enabled:       true,
	MaxJobsActive: 5,
	Timeout:       30000,
	MaxRetries:    3,
}

// GetWorkerConfig returns the settings for a task type. Task types missing
// from the file run with the defaults.
func GetWorkerConfig(cfg *Config, taskType string) WorkerConfig {
	if w, ok := cfg.Workers[taskType]; ok {
		return w
	}
	return defaultWorker
}

func IsWorkerEnabled(cfg *Config, taskType string) bool {
	return GetWorkerConfig(cfg, taskType).Enabled
}

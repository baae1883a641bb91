package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Config struct {
	DatabaseURL string `env:"DATABASE_URL" validate:"required_if=StoreDriver postgres"`
	Port        int    `env:"PORT" envDefault:"8080" validate:"gt=0,lt=65536"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres" validate:"oneof=postgres memory"`
	SchemaPath  string `env:"SCHEMA_PATH" envDefault:"config/schema.yaml" validate:"required"`

	InboundDir    string `env:"INBOUND_DIR" envDefault:"data/import/inbound" validate:"required"`
	ProcessingDir string `env:"PROCESSING_DIR" envDefault:"data/import/processing" validate:"required"`
	SuccessDir    string `env:"SUCCESS_DIR" envDefault:"data/import/success" validate:"required"`
	ErrorDir      string `env:"ERROR_DIR" envDefault:"data/import/error" validate:"required"`
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"data/import/upload" validate:"required"`

	MediaDir          string `env:"MEDIA_DIR" envDefault:"data/media" validate:"required"`
	MediaBaseURL      string `env:"MEDIA_BASE_URL" envDefault:"/media"`
	MediaCategoryType string `env:"MEDIA_CATEGORY_TYPE" envDefault:"CmsCategory" validate:"required"`

	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"10s" validate:"gt=0"`
	PollEnabled  bool          `env:"POLL_ENABLED" envDefault:"true"`

	DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"en" validate:"bcp47_language_tag"`
	AuthTokens    string `env:"AUTH_TOKENS"`

	InitialDataEnabled      bool   `env:"INITIAL_DATA_ENABLED" envDefault:"false"`
	InitialDataMediaEnabled bool   `env:"INITIAL_DATA_MEDIA_ENABLED" envDefault:"false"`
	InitialDataPath         string `env:"INITIAL_DATA_PATH" envDefault:"data/initial"`
	InitialProject          string `env:"INITIAL_PROJECT" envDefault:"default"`

	KafkaBrokers  string `env:"KAFKA_BROKERS"`
	KafkaJobTopic string `env:"KAFKA_JOB_TOPIC" envDefault:"dataimport.jobs" validate:"required_with=KafkaBrokers"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// LoadEnv loads the given dotenv files, skipping the ones that do not exist.
// Variables already set in the process environment win.
func LoadEnv(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", f, err)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// LoadConfig reads and validates the configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Locale() language.Tag {
	tag, err := language.Parse(c.DefaultLocale)
	if err != nil {
		return language.English
	}
	return tag
}

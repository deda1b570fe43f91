package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ignatij/logreport/pkg/models"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Elastic configures the log search backend.
type Elastic struct {
	URL                string        `env:"URL" envDefault:"https://localhost:9200"`
	Username           string        `env:"USERNAME"`
	Password           string        `env:"PASSWORD"`
	Index              string        `env:"INDEX" envDefault:"api_logs"`
	InsecureSkipVerify bool          `env:"INSECURE_SKIP_VERIFY"`
	Timeout            time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Email configures the SMTP submission server and the fixed addresses.
type Email struct {
	SMTPServer string         `env:"SMTP_SERVER"`
	Port       int            `env:"PORT" envDefault:"587"`
	UseSSL     bool           `env:"USE_SSL"` // TLS on connect; STARTTLS otherwise
	Username   string         `env:"USERNAME"`
	Password   string         `env:"PASSWORD"`
	Sender     models.Mailbox `envPrefix:"SENDER_"`
	Recipient  string         `env:"RECIPIENT"`
	Timeout    time.Duration  `env:"TIMEOUT" envDefault:"30s"`
}

type Config struct {
	Elastic           Elastic `envPrefix:"ELASTICSEARCH_"`
	Email             Email   `envPrefix:"EMAIL_"`
	HTTPPort          string  `env:"HTTP_PORT" envDefault:"8080"`
	ReportSchedule    string  `env:"REPORT_SCHEDULE"`
	SendRatePerMinute int     `env:"SEND_RATE_PER_MINUTE"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load(files...)
	return FromEnv()
}

// FromEnv parses the current environment without touching .env files.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse environment")
	}
	return cfg, nil
}

// Validate checks the email section. Retrieval-only commands do not need it.
func (e Email) Validate() error {
	var missing []string
	if e.SMTPServer == "" {
		missing = append(missing, "EMAIL_SMTP_SERVER")
	}
	if e.Port <= 0 {
		missing = append(missing, "EMAIL_PORT")
	}
	if e.Sender.Address == "" {
		missing = append(missing, "EMAIL_SENDER_EMAIL")
	}
	if e.Recipient == "" {
		missing = append(missing, "EMAIL_RECIPIENT")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing email configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

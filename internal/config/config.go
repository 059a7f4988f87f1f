package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Postgres holds connection settings for the event store.
type Postgres struct {
	Host         string `envconfig:"PGHOST" required:"true"`
	User         string `envconfig:"PGUSER" required:"true"`
	Password     string `envconfig:"PGPASSWORD" required:"true"`
	Database     string `envconfig:"PGDATABASE" required:"true"`
	Port         int    `envconfig:"PGPORT" required:"true"`
	SSLMode      string `envconfig:"PGSSLMODE" default:"require"`
	MaxOpenConns int    `envconfig:"PG_MAX_OPEN_CONNS" default:"5"`
}

// Luma holds settings for the Luma public API.
type Luma struct {
	APIKey           string `envconfig:"LUMA_API_KEY"`
	LookupEndpoint   string `envconfig:"LUMA_LOOKUP_ENDPOINT" default:"https://api.lu.ma/public/v1/entity/lookup"`
	AddEventEndpoint string `envconfig:"LUMA_ADD_EVENT_ENDPOINT" default:"https://api.lu.ma/public/v1/calendar/add-event"`
	TimeoutSec       int    `envconfig:"LUMA_TIMEOUT_SEC" default:"10"`
	LookupDelayMs    int    `envconfig:"LUMA_LOOKUP_DELAY_MS" default:"500"`
	SubmitDelayMs    int    `envconfig:"LUMA_SUBMIT_DELAY_MS" default:"1000"`
}

type Config struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" default:"development"`
	CalendarURL string `envconfig:"CALENDAR_URL" default:"https://api.lu.ma/ics/get?entity=calendar&id=cal-4dWxlBFjW9Cd6ou"`
	Postgres    Postgres
	Luma        Luma
}

// Load builds the configuration from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

// DSN renders the Postgres connection string for database/sql.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	validation "github.com/go-ozzo/ozzo-validation"
)

type Config struct {
	IsTestMode bool `env:"TEST_MODE"`

	PostgresqlURL string `env:"POSTGRESQL_URL,required"`
	RedisURL      string `env:"REDIS_URL"`

	CodeLength       int           `env:"CODE_LENGTH" envDefault:"32"`
	ActivationWindow time.Duration `env:"ACTIVATION_WINDOW" envDefault:"72h"`
	ReminderWindow   time.Duration `env:"REMINDER_WINDOW" envDefault:"72h"`
	SweepPeriod      time.Duration `env:"SWEEP_PERIOD" envDefault:"1h"`

	PasswordSecret string `env:"PASSWORD_SECRET"`
	BcryptCost     int    `env:"BCRYPT_COST" envDefault:"10"`
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.CodeLength, validation.Min(16), validation.Max(256)),
		validation.Field(&c.ActivationWindow, validation.Min(time.Minute)),
		validation.Field(&c.ReminderWindow, validation.Min(time.Minute)),
		validation.Field(&c.SweepPeriod, validation.Min(time.Second)),
	)
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("could not parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

package main

import (
	"fmt"
	"time"
)

type Config struct {
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=5000"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	SweepInterval        time.Duration `env:"SWEEP_INTERVAL,default=15s"`
	InactivityThreshold  time.Duration `env:"INACTIVITY_THRESHOLD,default=10s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	RequestTimeout       time.Duration `env:"REQUEST_TIMEOUT,default=3s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
	AllowedOrigin        string        `env:"ALLOWED_ORIGIN,default=*"`
	CensoredWords        string        `env:"CENSORED_WORDS"`
	CharacterReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
}

func (c Config) Validate() error {
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	if c.InactivityThreshold <= 0 {
		return fmt.Errorf("INACTIVITY_THRESHOLD must be positive, got %s", c.InactivityThreshold)
	}
	_, err := c.CharacterRune()
	return err
}

func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.CharacterReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			c.CharacterReplacement,
		)
	}
	return r[0], nil
}

package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Config struct {
	Roots     []string `yaml:"roots"`
	AgeMonths float64  `yaml:"ageMonths"`
	LastAge   float64  `yaml:"lastAge"`
	SafeMode  bool     `yaml:"safeMode"`
	Inline    bool     `yaml:"inline"`
	Theme     string   `yaml:"theme"`
	LogLevel  string   `yaml:"logLevel"`
	LogFile   string   `yaml:"logFile"`
}

type fileConfig struct {
	Roots     []string `yaml:"roots"`
	AgeMonths *float64 `yaml:"ageMonths"`
	LastAge   *float64 `yaml:"lastAge"`
	SafeMode  *bool    `yaml:"safeMode"`
	Inline    *bool    `yaml:"inline"`
	Theme     *string  `yaml:"theme"`
	LogLevel  *string  `yaml:"logLevel"`
	LogFile   *string  `yaml:"logFile"`
}

// Error is an invalid configuration value, reported before any scan or
// deletion starts.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("invalid %s: %v", e.Field, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// ValidateAgeMonths enforces the age cap precondition: a finite number
// greater than zero.
func ValidateAgeMonths(months float64) error {
	if math.IsNaN(months) || math.IsInf(months, 0) {
		return &Error{Field: "age", Err: fmt.Errorf("%v is not a number of months", months)}
	}
	if months <= 0 {
		return &Error{Field: "age", Err: fmt.Errorf("must be greater than zero, got %v", months)}
	}
	return nil
}

// ParseAgeMonths parses user input such as "3" or "1.5".
func ParseAgeMonths(input string) (float64, error) {
	value := strings.TrimSpace(input)
	if value == "" {
		return 0, &Error{Field: "age", Err: fmt.Errorf("enter a number of months")}
	}
	months, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &Error{Field: "age", Err: fmt.Errorf("%q is not a number", value)}
	}
	if err := ValidateAgeMonths(months); err != nil {
		return 0, err
	}
	return months, nil
}

func (config Config) Validate() error {
	if config.AgeMonths != 0 {
		if err := ValidateAgeMonths(config.AgeMonths); err != nil {
			return err
		}
	}
	switch strings.ToLower(config.Theme) {
	case "", "dark", "light":
	default:
		return &Error{Field: "theme", Err: fmt.Errorf("unknown theme %q", config.Theme)}
	}
	return nil
}

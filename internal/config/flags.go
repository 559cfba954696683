package config

import "github.com/spf13/pflag"

// BindFlags registers the flags that override config file values.
func BindFlags(flags *pflag.FlagSet, base Config) {
	flags.Float64P("age", "a", base.AgeMonths, "Minimum age in months of node_modules to list (prompted when unset)")
	flags.Bool("safe-mode", base.SafeMode, "Refuse to delete anything not named node_modules or under system paths")
	flags.Bool("inline", base.Inline, "Run workers as goroutines instead of subprocesses")
	flags.String("theme", base.Theme, "Color theme: dark or light")
	flags.String("log-level", base.LogLevel, "Log level: debug, info, warn, error")
	flags.String("log-file", base.LogFile, "Write logs to this file (disabled when empty)")
}

// ApplyFlags overlays only the flags the user actually set.
func ApplyFlags(flags *pflag.FlagSet, base Config) (Config, error) {
	merged := base
	var err error
	if flags.Changed("age") {
		if merged.AgeMonths, err = flags.GetFloat64("age"); err != nil {
			return base, err
		}
	}
	if flags.Changed("safe-mode") {
		if merged.SafeMode, err = flags.GetBool("safe-mode"); err != nil {
			return base, err
		}
	}
	if flags.Changed("inline") {
		if merged.Inline, err = flags.GetBool("inline"); err != nil {
			return base, err
		}
	}
	if flags.Changed("theme") {
		if merged.Theme, err = flags.GetString("theme"); err != nil {
			return base, err
		}
	}
	if flags.Changed("log-level") {
		if merged.LogLevel, err = flags.GetString("log-level"); err != nil {
			return base, err
		}
	}
	if flags.Changed("log-file") {
		if merged.LogFile, err = flags.GetString("log-file"); err != nil {
			return base, err
		}
	}
	return merged, merged.Validate()
}

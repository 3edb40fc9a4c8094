// Package config loads and validates the fuefit configuration from all
// sources: defaults, config file, profile section, FUEFIT_* environment
// variables and command-line flags, in ascending precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gfon/fuefit/pkg/fit"
	"github.com/gfon/fuefit/pkg/fit/tabio"
)

const (
	EnvPrefix         = "FUEFIT"
	DefaultConfigName = "fuefit"
)

// LoadAndValidate loads configuration from all sources, validates the merged
// result, sets up the logger and returns the populated fit.Options.
func LoadAndValidate(cfgFile, profileName, appVersion string, verbose bool, flags *pflag.FlagSet) (fit.Options, *slog.Logger, error) {
	var opts fit.Options
	v := viper.New()

	// Basic logger for errors raised before the final logger exists.
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return opts, tempLogger, fmt.Errorf("failed to get user home directory: %w", err)
		}
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
		v.AddConfigPath(filepath.Join(home, "."+DefaultConfigName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			tempLogger.Debug("No configuration file found, using defaults/env/flags.")
		} else {
			used := cfgFile
			if used == "" {
				used = fmt.Sprintf("searched locations for %s.yaml", DefaultConfigName)
			}
			return opts, tempLogger, fmt.Errorf("%w: error reading config file '%s': %w", fit.ErrConfiguration, used, err)
		}
	} else {
		opts.ConfigFilePath = v.ConfigFileUsed()
		tempLogger.Debug("Using configuration file", slog.String("path", opts.ConfigFilePath))
	}

	// Merge the requested profile section over the base settings.
	opts.ProfileName = profileName
	if profileName != "" {
		profileKey := "profiles." + profileName
		if !v.IsSet(profileKey) {
			configPath := v.ConfigFileUsed()
			if configPath == "" {
				configPath = "(no config file found)"
			}
			return opts, tempLogger, fmt.Errorf("%w: profile '%s' not found in config file '%s'", fit.ErrConfiguration, profileName, configPath)
		}
		profile := v.Sub(profileKey)
		if profile == nil {
			return opts, tempLogger, fmt.Errorf("%w: failed to load profile '%s' from '%s'", fit.ErrConfiguration, profileName, v.ConfigFileUsed())
		}
		if err := v.MergeConfigMap(profile.AllSettings()); err != nil {
			return opts, tempLogger, fmt.Errorf("%w: error merging profile '%s': %w", fit.ErrConfiguration, profileName, err)
		}
		tempLogger.Debug("Applied configuration profile", slog.String("profile", profileName))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Flags have the highest priority. The keys mirror the flag names
	// defined in cmd/fuefit.
	flagKeys := []string{
		"ifile", "icolumns", "irenames", "iformat", "iopts",
		"override", "model",
		"ofile", "oformat", "oopts", "append",
		"verbose", "debug",
	}
	for _, key := range flagKeys {
		if flag := flags.Lookup(key); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return opts, tempLogger, fmt.Errorf("error binding flag '--%s': %w", key, err)
			}
		} else {
			tempLogger.Debug("Flag lookup failed during binding", slog.String("flag", key))
		}
	}
	v.RegisterAlias("overrides", "override")

	opts.AppVersion = appVersion
	if err := v.Unmarshal(&opts); err != nil {
		return opts, tempLogger, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Array flag overrides: viper re-splits bound stringArray values on
	// commas, which would break comma-separated specs like "RPM,P,FC,X".
	// Take explicitly set array flags straight from pflag instead.
	arrayFlags := map[string]*[]string{
		"ifile":    &opts.InputFiles,
		"icolumns": &opts.ColumnSpecs,
		"irenames": &opts.Renames,
		"iformat":  &opts.Formats,
		"iopts":    &opts.ReadOpts,
		"override": &opts.Overrides,
		"oopts":    &opts.WriteOpts,
	}
	for key, dst := range arrayFlags {
		if flags.Changed(key) {
			if vals, err := flags.GetStringArray(key); err == nil {
				*dst = vals
			}
		}
	}

	// Boolean flag overrides: an explicit flag always wins over file/env.
	if flags.Changed("verbose") {
		opts.Verbose, _ = flags.GetBool("verbose")
	}
	if verbose {
		opts.Verbose = true
	}
	if flags.Changed("debug") {
		opts.Debug, _ = flags.GetBool("debug")
	}
	if flags.Changed("append") {
		opts.Append, _ = flags.GetBool("append")
	}
	if flags.Changed("no-tui") {
		if noTui, _ := flags.GetBool("no-tui"); noTui {
			opts.TuiEnabled = false
		}
	}

	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logHandler)
	opts.Logger = logHandler

	if err := validateOptions(&opts, logger); err != nil {
		return opts, logger, err
	}

	logger.Debug("Configuration loading and validation complete",
		slog.String("configFile", opts.ConfigFilePath),
		slog.String("profile", opts.ProfileName),
		slog.Bool("verbose", opts.Verbose),
	)
	return opts, logger, nil
}

// setDefaults establishes the default values for configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("verbose", fit.DefaultVerbose)
	v.SetDefault("debug", false)
	v.SetDefault("tuiEnabled", fit.DefaultTuiEnabled)
	v.SetDefault("ifile", []string{})
	v.SetDefault("icolumns", []string{})
	v.SetDefault("irenames", []string{})
	v.SetDefault("iformat", []string{})
	v.SetDefault("iopts", []string{})
	v.SetDefault("override", []string{})
	v.SetDefault("model", "")
	v.SetDefault("ofile", "")
	v.SetDefault("oformat", string(tabio.FormatAuto))
	v.SetDefault("oopts", []string{})
	v.SetDefault("append", fit.DefaultAppend)
}

// validateOptions performs the semantic checks the engine would otherwise
// report mid-run, so bad command lines fail before any file is touched.
func validateOptions(opts *fit.Options, logger *slog.Logger) error {
	if len(opts.InputFiles) == 0 {
		err := fmt.Errorf("%w: at least one input file is required (-i, --ifile)", fit.ErrConfiguration)
		logger.Error(err.Error(), slog.String("key", "ifile"))
		return err
	}
	for _, path := range opts.InputFiles {
		if path == "" {
			err := fmt.Errorf("%w: input file path must not be empty", fit.ErrConfiguration)
			logger.Error(err.Error(), slog.String("key", "ifile"))
			return err
		}
	}

	for _, name := range opts.Formats {
		if _, err := tabio.ParseFormat(name); err != nil {
			err = fmt.Errorf("%w: %w", fit.ErrConfiguration, err)
			logger.Error(err.Error(), slog.String("key", "iformat"), slog.String("value", name))
			return err
		}
	}
	if _, err := tabio.ParseFormat(opts.OutputFormat); err != nil {
		err = fmt.Errorf("%w: %w", fit.ErrConfiguration, err)
		logger.Error(err.Error(), slog.String("key", "oformat"), slog.String("value", opts.OutputFormat))
		return err
	}

	if opts.Append && (opts.OutputFile == "" || opts.OutputFile == "-") {
		err := fmt.Errorf("%w: --append requires an output file (-o, --ofile)", fit.ErrConfiguration)
		logger.Error(err.Error(), slog.String("key", "append"))
		return err
	}

	if opts.ModelFile != "" {
		if _, err := os.Stat(opts.ModelFile); err != nil {
			err = fmt.Errorf("%w: model file '%s' cannot be accessed: %w", fit.ErrConfiguration, opts.ModelFile, err)
			logger.Error(err.Error(), slog.String("key", "model"), slog.String("value", opts.ModelFile))
			return err
		}
	}

	// Verbose output and the TUI share stderr; verbose wins.
	if opts.Verbose && opts.TuiEnabled {
		logger.Debug("Verbose mode enabled, TUI disabled")
		opts.TuiEnabled = false
	}
	return nil
}

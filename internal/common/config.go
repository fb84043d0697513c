package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	DataPath string        `yaml:"data_path"`
	Utility  string        `yaml:"utility_name"`
	History  HistoryConfig `yaml:"history"`
	Convert  ConvertConfig `yaml:"convert"`
}

// HistoryConfig selects the history store backing the bill table.
type HistoryConfig struct {
	// Format is "csv" or "sqlite".
	Format string `yaml:"format"`
	// SaveStatements controls archival of parsed PDFs under their
	// canonical name.
	SaveStatements bool `yaml:"save_statements"`
}

// ConvertConfig holds the external PDF-to-HTML converter invocation.
type ConvertConfig struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout_seconds"`
}

// Defaults returns the configuration used when nothing is set: a ./data
// directory, CSV history, and the pdf2txt converter on PATH.
func Defaults() Config {
	return Config{
		DataPath: "data",
		History: HistoryConfig{
			Format:         "csv",
			SaveStatements: true,
		},
		Convert: ConvertConfig{
			Command: "pdf2txt.py",
			Timeout: 60,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, then
// environment variables (highest precedence). envFile, when non-empty, is a
// .env file loaded into the process environment first.
func Load(cfgFile, envFile string) (Config, error) {
	cfg := Defaults()

	if envFile != "" {
		if err := godotenv.Overload(envFile); err != nil {
			return cfg, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}

	if cfgFile != "" {
		raw, err := os.ReadFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", cfgFile, err)
		}
	}

	if v := os.Getenv("DATA_PATH"); v != "" {
		cfg.DataPath = v
	}
	if v := os.Getenv("UTILITY_NAME"); v != "" {
		cfg.Utility = v
	}
	if v := os.Getenv("HISTORY_FORMAT"); v != "" {
		cfg.History.Format = v
	}
	if v := os.Getenv("SAVE_STATEMENTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.History.SaveStatements = b
		}
	}
	if v := os.Getenv("PDF_TO_HTML_CMD"); v != "" {
		cfg.Convert.Command = v
	}

	switch cfg.History.Format {
	case "csv", "sqlite":
	default:
		return cfg, fmt.Errorf("%w: history format %q (want csv or sqlite)", ErrInvalidInput, cfg.History.Format)
	}
	return cfg, nil
}

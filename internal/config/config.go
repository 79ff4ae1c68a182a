// =============================================================================
// RAML XML to CSV Converter - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a YAML file.
//
// CONFIGURATION FILE (config.yaml):
//   namespace: raml20.xsd
//   input_dir: ./input
//   output_dir: ./output
//   input_archive_dir: ./input_archive
//   archive_on_success: true
//   output_format: csv
//   csv_delimiter: ","
//   csv_crlf: false
//   verify_output: false
//   log_level: info
//   expires_on: ""
//   metrics_file: ""
//   watch_settle: 2s
//
// Every key is optional. A missing config file at the default location is
// not an error; defaults apply and command-line flags override them.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/raml"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// expiresOnLayout is the date layout of the expires_on key.
const expiresOnLayout = "2006-01-02"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DOCUMENT SETTINGS
	// =========================================================================

	// Namespace is the XML namespace URI every looked-up element must carry.
	// Default: "raml20.xsd"
	Namespace string `yaml:"namespace"`

	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for *.xml files by the process and watch commands.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the exported files.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after a successful conversion.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// ArchiveOnSuccess moves converted inputs to InputArchiveDir.
	// Only the process and watch commands archive.
	ArchiveOnSuccess bool `yaml:"archive_on_success"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFormat selects the exporter: "csv" or "xlsx".
	// Default: "csv"
	OutputFormat string `yaml:"output_format"`

	// CSVDelimiter is the single-character field separator.
	// Default: ","
	CSVDelimiter string `yaml:"csv_delimiter"`

	// CSVCRLF terminates CSV lines with \r\n.
	CSVCRLF bool `yaml:"csv_crlf"`

	// VerifyOutput re-reads each output file after writing and checks the row count.
	VerifyOutput bool `yaml:"verify_output"`

	// =========================================================================
	// LOGGING & METRICS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// MetricsFile, when set, receives Prometheus metrics in text format
	// after each batch.
	MetricsFile string `yaml:"metrics_file"`

	// =========================================================================
	// WATCH SETTINGS
	// =========================================================================

	// WatchSettle is how long a file must stay unchanged before the watch
	// command converts it.
	// Default: 2s
	WatchSettle time.Duration `yaml:"watch_settle"`

	// =========================================================================
	// EXPIRATION
	// =========================================================================

	// ExpiresOn optionally disables conversions after this date (YYYY-MM-DD).
	// Empty means never.
	ExpiresOn string `yaml:"expires_on"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	config := &MainConfig{}
	applyMainConfigDefaults(config)
	return config
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file.
//   - optional: When true, a missing file yields the defaults.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or is invalid.
func LoadMainConfig(configPath string, optional bool) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.Namespace == "" {
		config.Namespace = raml.DefaultNamespace
	}
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputFormat == "" {
		config.OutputFormat = FormatCSV
	}
	if config.CSVDelimiter == "" {
		config.CSVDelimiter = ","
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.WatchSettle == 0 {
		config.WatchSettle = 2 * time.Second
	}
}

// Validate checks the configuration values. Directories are not created
// here; commands that need them create them.
func (c *MainConfig) Validate() error {
	c.OutputFormat = strings.ToLower(strings.TrimSpace(c.OutputFormat))
	switch c.OutputFormat {
	case FormatCSV, FormatXLSX:
	default:
		return fmt.Errorf("output_format must be %q or %q, got %q", FormatCSV, FormatXLSX, c.OutputFormat)
	}

	if utf8.RuneCountInString(c.CSVDelimiter) != 1 {
		return fmt.Errorf("csv_delimiter must be a single character, got %q", c.CSVDelimiter)
	}
	switch r := c.Delimiter(); r {
	case '"', '\r', '\n', utf8.RuneError:
		return fmt.Errorf("csv_delimiter %q is not allowed", r)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}

	if c.WatchSettle < 0 {
		return fmt.Errorf("watch_settle must not be negative")
	}

	if _, err := c.ExpiryDate(); err != nil {
		return err
	}

	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Delimiter returns CSVDelimiter as a rune.
func (c *MainConfig) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.CSVDelimiter)
	return r
}

// OutputExtension returns the file extension of the configured format.
func (c *MainConfig) OutputExtension() string {
	return "." + c.OutputFormat
}

// ExpiryDate parses ExpiresOn. The zero time means no expiry.
func (c *MainConfig) ExpiryDate() (time.Time, error) {
	if strings.TrimSpace(c.ExpiresOn) == "" {
		return time.Time{}, nil
	}
	date, err := time.ParseInLocation(expiresOnLayout, strings.TrimSpace(c.ExpiresOn), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("expires_on must be YYYY-MM-DD: %w", err)
	}
	return date, nil
}

// Expired reports whether now falls after the ExpiresOn date.
// The expiry day itself is still allowed.
func (c *MainConfig) Expired(now time.Time) bool {
	date, err := c.ExpiryDate()
	if err != nil || date.IsZero() {
		return false
	}
	y, m, d := now.In(date.Location()).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	return today.After(date)
}

// =============================================================================
// RAML XML to CSV Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (raml2csv)
//   ├── convertCmd (raml2csv convert)
//   ├── processCmd (raml2csv process)
//   ├── watchCmd   (raml2csv watch)
//   └── versionCmd (raml2csv version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose, --namespace)
//   2. Loading the configuration file before any subcommand runs
//   3. Building the zap logger shared by all subcommands
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// namespaceOverride replaces the configured namespace when set.
var namespaceOverride string

// appConfig is the loaded configuration, available once PersistentPreRunE ran.
var appConfig *config.MainConfig

// logger is the application logger, available once PersistentPreRunE ran.
var logger = zap.NewNop()

// now is the clock used by the expiry gate.
var now = time.Now

// ErrExpired is returned by conversion commands after the configured expiry date.
var ErrExpired = errors.New("this application has expired")

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "raml2csv",
	Short: "RAML XML to CSV Converter - Flatten managed-object dumps into CSV tables",
	Long: `RAML XML to CSV Converter reads a RAML managed-object XML dump and writes
one CSV row per managedObject element. Each row carries the source file name,
the dump's header timestamp, the object's version, distName and id, and one
column per <p> property.

Example Usage:
  raml2csv convert --file dump.xml --out ./output   # Convert one file
  raml2csv process                                 # Convert every XML in input_dir
  raml2csv watch                                   # Convert files as they arrive`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.SilenceErrors = true

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file (optional when left at the default)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&namespaceOverride,
		"namespace",
		"",
		"XML namespace URI of RAML elements (default from config, raml20.xsd)",
	)
}

// initialize loads the configuration and builds the logger.
// An explicitly given --config file must exist; the default one may not.
func initialize(cmd *cobra.Command) error {
	optional := !cmd.Flags().Changed("config")

	cfg, err := config.LoadMainConfig(cfgFile, optional)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if namespaceOverride != "" {
		cfg.Namespace = namespaceOverride
	}
	appConfig = cfg

	l, err := newLogger(cfg.LogLevel, verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	logger = l

	return nil
}

// newLogger builds a console logger writing to stderr.
func newLogger(level string, debug bool) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	if debug {
		atomicLevel.SetLevel(zapcore.DebugLevel)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Development = false
	cfg.Level = atomicLevel
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	return cfg.Build()
}

// checkExpiry refuses to run once the configured expiry date has passed.
func checkExpiry() error {
	if appConfig.Expired(now()) {
		logger.Warn("conversion refused, application expired", zap.String("expires_on", appConfig.ExpiresOn))
		return ErrExpired
	}
	return nil
}

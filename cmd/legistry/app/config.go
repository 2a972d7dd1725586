package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from config files,
// environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Store configuration
	StoreBackend string // memory, sqlite, postgres
	StorePath    string // sqlite database file
	PostgresDSN  string

	// Data layout
	DataDir          string // scraper snapshot root, one subdirectory per jurisdiction
	JurisdictionsDir string // jurisdiction metadata YAML files

	// Import tuning
	BillWorkers int

	// MetricsAddr, when set, serves Prometheus metrics during imports.
	MetricsAddr string

	// Logging configuration
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from all sources in order of precedence:
// command-line flags (handled by cobra), environment variables, .env files,
// the config file, then defaults.
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".legistry")
		}
	}
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		StoreBackend: viper.GetString("store_backend"),
		StorePath:    viper.GetString("store_path"),
		PostgresDSN:  viper.GetString("postgres_dsn"),

		DataDir:          viper.GetString("data_dir"),
		JurisdictionsDir: viper.GetString("jurisdictions_dir"),

		BillWorkers: viper.GetInt("bill_workers"),
		MetricsAddr: viper.GetString("metrics_addr"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
	}

	// Defaults
	if config.StoreBackend == "" {
		config.StoreBackend = "sqlite"
	}
	if config.StorePath == "" {
		config.StorePath = "legistry.db"
	}
	if config.DataDir == "" {
		config.DataDir = "data"
	}
	if config.JurisdictionsDir == "" {
		config.JurisdictionsDir = "jurisdictions"
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags so flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files; .env.local
// overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if
// not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

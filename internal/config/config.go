// Package config centralizes importer configuration. Every tunable is a
// command-line flag whose default is seeded from an environment variable,
// so `-help` lists all knobs and a .env file or the process environment can
// drive unattended runs.
//
// Typical usage:
//
//	cfg := config.Load() // reads os.Args and os.Environ
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg := config.LoadFromArgs(fs, getenv, []string{"-batch_size=10"})
package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all process configuration derived from flags and
// environment variables.
type Config struct {
	// Input selection. The first non-empty source wins:
	// Files, then FileList, then InputDir+Pattern, then the default list.
	Files    []string // Explicit report paths.
	FileList string   // Text file with one report path per line.
	InputDir string   // Directory scanned with Pattern.
	Pattern  string   // Glob applied inside InputDir.

	// DB describes the target database. MSSQL and SQLite need a full DSN;
	// for Postgres it can be built from the discrete parts.
	DBDriver   string // "postgres", "mssql" or "sqlite".
	DSN        string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	BatchSize    int  // Max rows per upsert statement.
	EnsureSchema bool // Create missing tables before importing.
	DryRun       bool // Parse and project only; no database.

	LogLevel  string
	LogFormat string // "json" or "console".

	PushgatewayURL string // Empty disables metrics push.
	MetricsJob     string

	// StartupDelay waits before connecting (e.g. for a database container).
	StartupDelay time.Duration
}

// LoadFromArgs builds a Config by defining flags on fs, wiring each flag
// to an environment-variable fallback via getenv, and then parsing args.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) *Config {
	cfg := &Config{}

	envOrDefaultFn := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	intEnvOrDefaultFn := func(k string, d int) int {
		if v := getenv(k); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
		return d
	}
	boolEnvOrDefaultFn := func(k string, d bool) bool {
		return parseBool(getenv(k), d)
	}
	durationEnvOrDefaultFn := func(k string, d time.Duration) time.Duration {
		if v := getenv(k); v != "" {
			if dur, err := time.ParseDuration(v); err == nil {
				return dur
			}
		}
		return d
	}

	var files string

	// Inputs
	fs.StringVar(&files, "files", getenv("FILES"), "Comma-separated report files to import, in order.")
	fs.StringVar(&cfg.FileList, "file_list", getenv("FILE_LIST"), "Path to a text file listing report files, one per line.")
	fs.StringVar(&cfg.InputDir, "input_dir", getenv("INPUT_DIR"), "Directory to scan for report files.")
	fs.StringVar(&cfg.Pattern, "pattern", envOrDefaultFn("INPUT_PATTERN", "*.txt"), "Glob used with -input_dir.")

	// DB connectivity
	fs.StringVar(&cfg.DBDriver, "db_driver", envOrDefaultFn("DB_DRIVER", "postgres"), "Database driver: 'postgres', 'mssql' or 'sqlite'.")
	fs.StringVar(&cfg.DSN, "dsn", getenv("DB_DSN"), "Full DSN (required for mssql and sqlite).")

	fs.StringVar(&cfg.DBUser, "db_user", envOrDefaultFn("DB_USER", "user"), "DB user")
	fs.StringVar(&cfg.DBPassword, "db_password", envOrDefaultFn("DB_PASSWORD", "password"), "DB password")
	fs.StringVar(&cfg.DBHost, "db_host", envOrDefaultFn("DB_HOST", "localhost"), "DB host")
	fs.StringVar(&cfg.DBPort, "db_port", envOrDefaultFn("DB_PORT", "5432"), "DB port")
	fs.StringVar(&cfg.DBName, "db_name", envOrDefaultFn("DB_NAME", "sales"), "DB name")

	// Import behaviour
	fs.IntVar(&cfg.BatchSize, "batch_size", intEnvOrDefaultFn("BATCH_SIZE", 1000), "Max rows per upsert statement")
	fs.BoolVar(&cfg.EnsureSchema, "ensure_schema", boolEnvOrDefaultFn("ENSURE_SCHEMA", false), "Create missing tables before importing")
	fs.BoolVar(&cfg.DryRun, "dry_run", boolEnvOrDefaultFn("DRY_RUN", false), "Parse and project files without touching the database")
	fs.DurationVar(&cfg.StartupDelay, "startup_delay", durationEnvOrDefaultFn("STARTUP_DELAY", 0), "Wait before connecting to the database")

	// Observability
	fs.StringVar(&cfg.LogLevel, "log_level", envOrDefaultFn("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log_format", envOrDefaultFn("LOG_FORMAT", "json"), "Log format: 'json' or 'console'")
	fs.StringVar(&cfg.PushgatewayURL, "pushgateway", getenv("PUSHGATEWAY_URL"), "Prometheus Pushgateway URL (empty disables metrics)")
	fs.StringVar(&cfg.MetricsJob, "metrics_job", envOrDefaultFn("METRICS_JOB", "sales"), "Pushgateway job name")

	if args == nil {
		args = []string{}
	}
	_ = fs.Parse(args)

	cfg.Files = SplitList(files)
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	return cfg
}

// LoadFrom is LoadFromArgs without explicit args.
func LoadFrom(fs *flag.FlagSet, getenv func(string) string) *Config {
	return LoadFromArgs(fs, getenv, nil)
}

// Load is the production entry point. It wires the loader to the process
// flag set (flag.CommandLine), reads environment variables via os.Getenv,
// and parses os.Args[1:] as the CLI arguments.
func Load() *Config {
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}

// PostgresDSN returns DSN when set, otherwise a postgres:// URL assembled
// from the discrete connection parts.
func (c *Config) PostgresDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   c.DBHost + ":" + c.DBPort,
		Path:   "/" + c.DBName,
	}
	return u.String()
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	if c.DryRun {
		return nil
	}
	switch strings.ToLower(c.DBDriver) {
	case "postgres", "pgx":
	case "mssql", "sqlserver", "sqlite", "sqlite3":
		if c.DSN == "" {
			return fmt.Errorf("config: -dsn is required for driver %q", c.DBDriver)
		}
	default:
		return fmt.Errorf("config: unsupported db driver %q", c.DBDriver)
	}
	return nil
}

// SplitList splits a comma-separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseBool accepts common truthy/falsey forms ("1/0", "true/false",
// "yes/no", "on/off", case-insensitive); anything else yields d.
func parseBool(v string, d bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

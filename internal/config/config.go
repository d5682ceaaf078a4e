package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvDB     = "WORRYLOG_DB"
	EnvFormat = "WORRYLOG_FORMAT"
	EnvPIN    = "WORRYLOG_PIN"
	EnvStyle  = "WORRYLOG_STYLE"
)

const (
	appDir        = "worrylog"
	dbFile        = "worrylog.db"
	defaultFormat = "text"
	defaultStyle  = "dark"
)

// Config holds the defaults for the global flags.
type Config struct {
	DBPath string
	Format string
	PIN    string
	Style  string
}

// New loads .env from the working directory, if present, and reads the
// environment.
func New() *Config {
	return Load()
}

// Load reads the given env files (".env" when none are given) and then the
// environment. Missing files are ignored. Variables already set in the
// environment win over file values.
func Load(files ...string) *Config {
	_ = godotenv.Load(files...)

	return &Config{
		DBPath: getEnv(EnvDB, DefaultDBPath()),
		Format: getEnv(EnvFormat, defaultFormat),
		PIN:    getEnv(EnvPIN, ""),
		Style:  getEnv(EnvStyle, defaultStyle),
	}
}

// DefaultDBPath is $XDG_DATA_HOME/worrylog/worrylog.db, falling back to the
// user config directory and then the working directory.
func DefaultDBPath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appDir, dbFile)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDir, dbFile)
	}
	return dbFile
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

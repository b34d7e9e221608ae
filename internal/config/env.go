// Package config provides centralized configuration management.
// All WORKPLAN_* environment lookups live here.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

// WorkplanEnv holds all workplan environment variables.
type WorkplanEnv struct {
	// Project is the current project name (WORKPLAN_PROJECT)
	Project string

	// SessionID is the session identifier stamped on history records (WORKPLAN_SESSION_ID)
	SessionID string

	// Dir overrides the plan data directory (WORKPLAN_DIR)
	Dir string

	// Store selects the persistence backend, "file" or "sqlite" (WORKPLAN_STORE)
	Store string

	// Lock guards mutating commands with an advisory lock file (WORKPLAN_LOCK)
	Lock bool
}

var (
	env     *WorkplanEnv
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Env() *WorkplanEnv {
	envOnce.Do(func() {
		env = &WorkplanEnv{
			Project:   os.Getenv("WORKPLAN_PROJECT"),
			SessionID: os.Getenv("WORKPLAN_SESSION_ID"),
			Dir:       os.Getenv("WORKPLAN_DIR"),
			Store:     getEnvDefault("WORKPLAN_STORE", "file"),
			Lock:      os.Getenv("WORKPLAN_LOCK") == "1",
		}
	})
	return env
}

// ResetEnv resets the cached environment (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Paths holds standard workplan directory paths.
type Paths struct {
	// Home is the workplan home directory (~/.workplan)
	Home string

	// EnvFile is the .env file path (~/.workplan/.env)
	EnvFile string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		wpHome := filepath.Join(home, ".workplan")

		paths = &Paths{
			Home:    wpHome,
			EnvFile: filepath.Join(wpHome, ".env"),
		}
	})
	return paths
}

// DefaultDirName is the project-local plan directory name.
const DefaultDirName = ".workplan"

// ResolveDir picks the plan data directory: an explicit flag value wins,
// then WORKPLAN_DIR, then ./.workplan.
func ResolveDir(flag string) string {
	if flag != "" {
		return flag
	}
	if d := Env().Dir; d != "" {
		return d
	}
	return DefaultDirName
}

// LoadEnvFile loads variables from a local .env and from ~/.workplan/.env.
// Existing environment variables win; missing files are not errors.
func LoadEnvFile() {
	_ = godotenv.Load()
	_ = godotenv.Load(GetPaths().EnvFile)
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

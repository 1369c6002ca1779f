package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// RegionsYAML holds the built-in region/state lookup tables.
//
//go:embed regions.yaml
var RegionsYAML []byte

// Settings captures operator configuration resolved from the environment.
// CLI flags in cmd/server take precedence over these values.
type Settings struct {
	Workbook    string
	Sheet       string
	AllowedDirs []string
	StatesURL   string
	RegionsURL  string
	Offline     bool
	HTTPAddr    string
	LogLevel    string
	LogoPath    string
}

// LoadDotEnv reads a .env file from the working directory when present.
// A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// FromEnv builds Settings from GASDASH_* variables, falling back to defaults.
func FromEnv() Settings {
	s := Settings{
		Workbook:   envOr("GASDASH_WORKBOOK", DefaultWorkbook),
		Sheet:      envOr("GASDASH_SHEET", DefaultSheet),
		StatesURL:  envOr("GASDASH_STATES_URL", DefaultStatesURL),
		RegionsURL: envOr("GASDASH_REGIONS_URL", DefaultRegionsURL),
		Offline:    envBool("GASDASH_OFFLINE"),
		HTTPAddr:   strings.TrimSpace(os.Getenv("GASDASH_HTTP_ADDR")),
		LogLevel:   envOr("GASDASH_LOG_LEVEL", "info"),
		LogoPath:   strings.TrimSpace(os.Getenv("GASDASH_LOGO")),
	}
	if list := os.Getenv("GASDASH_ALLOWED_DIRS"); list != "" {
		s.AllowedDirs = filepath.SplitList(list)
	}
	return s
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes"
}

// Package config reads the dashboard settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr         string
	DataPath     string
	GeoPath      string
	NameProperty string
	LogLevel     string
	LogConsole   bool
	CacheSize    int

	// AllowedOrigins feeds the CORS middleware.
	AllowedOrigins []string
}

// FromEnv loads .env when present and reads every setting, falling back to
// defaults for unset or malformed values.
func FromEnv() Config {
	_ = godotenv.Load()

	size := getint("PAGE_CACHE_SIZE", 64)
	if size < 1 {
		size = 1
	}

	return Config{
		Addr:           getenv("ADDR", ":8080"),
		DataPath:       getenv("DATA_PATH", "df_final_compressed.csv.gz"),
		GeoPath:        getenv("GEO_PATH", "switzerland.geojson"),
		NameProperty:   getenv("GEO_NAME_PROPERTY", "name"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogConsole:     getbool("LOG_CONSOLE", false),
		CacheSize:      size,
		AllowedOrigins: splitList(getenv("ALLOWED_ORIGINS", "*")),
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

// "a, b,,c" -> [a b c]
func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

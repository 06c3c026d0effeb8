// Package config resolves runtime settings from .env, the environment and flags.
package config

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const DefaultEchoURL = "http://127.0.0.1:8085/api/kml"

type Config struct {
	DataDir  string
	OutDir   string
	EchoURL  string
	NoEcho   bool
	OpenPath string
}

// Load reads .env files (missing ones are ignored), then applies env vars, then flags.
// Precedence: flag > env > default.
func Load(args []string) (Config, error) {
	_ = godotenv.Load(".env")

	dataDir := envOr("KMLGEN_DATA_DIR", defaultDataDir())
	// a .env next to the state file fills in whatever the working directory did not
	if p := filepath.Join(dataDir, ".env"); fileExists(p) {
		_ = godotenv.Load(p)
	}
	c := Config{
		DataDir: dataDir,
		OutDir:  envOr("KMLGEN_OUT_DIR", "."),
		EchoURL: envOr("KMLGEN_ECHO_URL", DefaultEchoURL),
	}

	fs := flag.NewFlagSet("kmlgen", flag.ContinueOnError)
	fs.StringVar(&c.DataDir, "data-dir", c.DataDir, "directory for state.sqlite and the log file")
	fs.StringVar(&c.OutDir, "out", c.OutDir, "directory exported KML files are written to")
	fs.StringVar(&c.EchoURL, "echo-url", c.EchoURL, "endpoint receiving a copy of each export")
	fs.BoolVar(&c.NoEcho, "no-echo", false, "do not send exports to the echo endpoint")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		c.OpenPath = fs.Arg(0)
	}
	return c, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultDataDir() string {
	if x := os.Getenv("XDG_DATA_HOME"); x != "" {
		return filepath.Join(x, "kmlgen")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "kmlgen")
	}
	return "."
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

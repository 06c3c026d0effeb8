// Command kmlsink receives the copies kmlgen uploads after each export.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"kmlgen/internal/logger"
	"kmlgen/internal/sink"
)

func main() {
	_ = godotenv.Load(".env")
	addr := flag.String("addr", envOr("KMLSINK_ADDR", "127.0.0.1:8085"), "listen address")
	dir := flag.String("dir", envOr("KMLSINK_DIR", "received"), "directory uploads are stored in")
	flag.Parse()

	log := logger.Setup(os.Stderr)
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := sink.NewRouter(*dir)
	log.Info("sink_listen", "addr", *addr, "dir", *dir)
	if err := r.Run(*addr); err != nil {
		log.Error("sink_run_failed", "err", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

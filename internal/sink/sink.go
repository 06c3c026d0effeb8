// Package sink receives the echo uploads and stores each KML document on disk.
package sink

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"kmlgen/internal/geom"
	"kmlgen/internal/logger"
)

type uploadRequest struct {
	Name string `json:"name" binding:"required"`
	KML  string `json:"kml" binding:"required"`
}

// NewRouter builds the sink's routes; uploads are written into dir.
func NewRouter(dir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/kml", saveKML(dir))
	}
	return r
}

func saveKML(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req uploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		file := geom.FileName(req.Name) + ".kml"
		if err := os.WriteFile(filepath.Join(dir, file), []byte(req.KML), 0o644); err != nil {
			logger.L().Error("sink_write_failed", "file", file, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "write failed"})
			return
		}
		logger.L().Info("sink_saved", "file", file, "bytes", len(req.KML), "remote", c.ClientIP())
		c.JSON(http.StatusCreated, gin.H{"saved": file})
	}
}

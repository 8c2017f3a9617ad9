package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterHealth mounts GET /healthz, which always answers 200 while the
// process is serving.
func RegisterHealth(r *gin.Engine, version string) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
	})
}

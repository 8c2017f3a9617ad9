package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/KaramelBytes/prophecy-cli/internal/middleware"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Options configures NewRouter.
type Options struct {
	RequestTimeout time.Duration
	Version        string
	Logger         *zerolog.Logger
}

// NewRouter creates a Gin engine with middlewares and routes configured.
//
// Middlewares run in order: RequestID, RequestLogger, Recovery, BodyLimit,
// Timeout. Routes:
//   - GET  /healthz
//   - POST /api/v1/regression
//   - POST /api/v1/valuations
func NewRouter(h *Handler, opt Options) *gin.Engine {
	log := opt.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Recovery(log),
		middleware.BodyLimit(maxBodyBytes),
		middleware.Timeout(opt.RequestTimeout),
	)

	RegisterHealth(router, opt.Version)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/regression", h.PostRegression)
		v1.POST("/valuations", h.PostValuation)
	}
	return router
}

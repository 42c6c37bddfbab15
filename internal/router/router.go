package router

import (
	"github.com/gin-gonic/gin"

	"papertrust/internal/handler"
	"papertrust/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	ocrH *handler.OCRHandler,
	healthH *handler.HealthHandler,
	origins *middleware.OriginMatcher,
) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global middleware. CORS runs on unmatched methods too so preflights get their 200.
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(origins))

	r.NoMethod(handler.MethodNotAllowed)
	r.NoRoute(func(c *gin.Context) {
		handler.RespondError(c, 404, handler.ErrorResponse{Error: "Not found"})
	})

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	api := r.Group("/api")
	api.POST("/ocr", ocrH.Recognize)
	api.POST("/mistral", ocrH.Recognize)
	api.POST("/upload", ocrH.Upload)

	return r
}

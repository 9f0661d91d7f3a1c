package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/deepscience/deepscience/internal/api/middleware"
	"github.com/deepscience/deepscience/internal/api/research"
	"github.com/deepscience/deepscience/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	searchService *service.SearchService,
	answerService *service.AnswerService,
	followUpService *service.FollowUpService,
	suggestService *service.SuggestService,
	logger *zap.Logger,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	// CORS middleware
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Research API
	researchHandler := research.NewHandler(searchService, answerService, followUpService, suggestService, logger)
	apiGroup := r.Group("/api")
	researchHandler.RegisterRoutes(apiGroup)

	return r
}

package research

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/deepscience/deepscience/internal/domain"
	"github.com/deepscience/deepscience/internal/service"
)

// Handler handles research API requests
type Handler struct {
	searchService   *service.SearchService
	answerService   *service.AnswerService
	followUpService *service.FollowUpService
	suggestService  *service.SuggestService
	logger          *zap.Logger
}

// NewHandler creates a new research handler
func NewHandler(
	searchService *service.SearchService,
	answerService *service.AnswerService,
	followUpService *service.FollowUpService,
	suggestService *service.SuggestService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		searchService:   searchService,
		answerService:   answerService,
		followUpService: followUpService,
		suggestService:  suggestService,
		logger:          logger,
	}
}

// RegisterRoutes registers research routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/search/stream", h.SearchStream)
	r.POST("/follow-up", h.FollowUp)
	r.GET("/autocomplete", h.Autocomplete)
}

// SearchStream runs the full retrieval-and-synthesis pipeline for one query
// and streams the result as newline-delimited JSON frames. The response is
// always 200 once streaming starts; pipeline failures arrive as frames.
func (h *Handler) SearchStream(c *gin.Context) {
	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no query provided"})
		return
	}

	c.Header("Content-Type", "application/json")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	// The request context ends when the client disconnects, which cancels
	// the synthesis pipeline and the upstream completion call with it.
	ctx := c.Request.Context()

	papers := h.searchService.Search(ctx, req.Query)
	frames := h.answerService.Synthesize(ctx, req.Query, papers)

	enc := json.NewEncoder(c.Writer)
	for frame := range frames {
		if err := enc.Encode(frame); err != nil {
			h.logger.Warn("stream write failed, client likely gone", zap.Error(err))
			return
		}
		c.Writer.Flush()
	}
}

// FollowUp generates follow-up questions for a completed answer. Generation
// failure still returns 200 with an empty list; only structurally invalid
// requests get a 4xx.
func (h *Handler) FollowUp(c *gin.Context) {
	var req domain.FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query and aiResponse are required"})
		return
	}

	questions := h.followUpService.Generate(c.Request.Context(), req.Query, req.AIResponse)
	c.JSON(http.StatusOK, domain.FollowUpResponse{Questions: questions})
}

// Autocomplete returns search suggestions for a partial query. A blank query
// short-circuits to an empty list.
func (h *Handler) Autocomplete(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		c.JSON(http.StatusOK, domain.SuggestResponse{Suggestions: []string{}})
		return
	}

	suggestions := h.suggestService.Suggest(c.Request.Context(), query)
	c.JSON(http.StatusOK, domain.SuggestResponse{Suggestions: suggestions})
}

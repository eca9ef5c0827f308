package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vnedtech/scratchgraph/internal/core/model"
)

// SearchEngine answers a question, optionally forcing the web-search path.
type SearchEngine interface {
	Search(ctx context.Context, question string, forceWebSearch bool) model.AnswerResult
}

// Server exposes the question-answering engine over HTTP. The engine and its
// collaborators are injected at construction; the server owns nothing.
type Server struct {
	engine SearchEngine
	log    *zap.Logger
}

func New(engine SearchEngine, log *zap.Logger) *Server {
	return &Server{engine: engine, log: log}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.Health)
	r.POST("/search", s.Search)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type SearchRequest struct {
	Question       string `json:"question" binding:"required"`
	ForceWebSearch bool   `json:"force_web_search"`
}

func (s *Server) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result := s.engine.Search(c.Request.Context(), req.Question, req.ForceWebSearch)
	c.JSON(http.StatusOK, result)
}

// Package v1 serves the JSON chat API.
package v1

import (
	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"

	"github.com/hrygo/orbita/internal/observability"
	"github.com/hrygo/orbita/plugin/ai/manager"
)

// APIV1Service implements the /api/v1 routes.
type APIV1Service struct {
	Conversation *manager.Conversation
	Metrics      *observability.Metrics

	markdown goldmark.Markdown
}

// NewAPIV1Service creates the API service. metrics may be nil.
func NewAPIV1Service(conv *manager.Conversation, metrics *observability.Metrics) *APIV1Service {
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	return &APIV1Service{
		Conversation: conv,
		Metrics:      metrics,
		markdown:     newMarkdown(),
	}
}

// RegisterRoutes mounts the API on g, which is expected at /api/v1.
func (s *APIV1Service) RegisterRoutes(g *echo.Group) {
	g.POST("/chat", s.Chat)
	g.GET("/threads", s.ListThreads)
	g.GET("/threads/:id", s.GetThread)
	g.GET("/metrics", s.GetMetrics)
}

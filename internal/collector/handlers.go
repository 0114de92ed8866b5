package collector

import (
	"github.com/gin-gonic/gin"

	"github.com/gvakproject/SteamAnaliticWorker/internal/types"
	"github.com/gvakproject/SteamAnaliticWorker/pkg/response"
)

// GinHandlers contains HTTP handlers for collection control.
type GinHandlers struct {
	orchestrator *Orchestrator
}

// NewGinHandlers creates the HTTP handler set for the orchestrator.
func NewGinHandlers(orchestrator *Orchestrator) *GinHandlers {
	return &GinHandlers{orchestrator: orchestrator}
}

// TriggerCollectionHandler handles POST requests starting an on-demand
// collection run. The response is sent as soon as the run is started; it
// says nothing about the run's eventual outcome. A trigger creates no
// resource, so it answers 200 rather than 201.
func (h *GinHandlers) TriggerCollectionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		runID := h.orchestrator.TriggerAsync()
		response.OK(c, types.CollectionStatus{
			RunID:  runID,
			Status: "started",
		})
	}
}

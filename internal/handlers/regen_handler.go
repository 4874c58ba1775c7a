package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shard-legends/economy-service/internal/models"
	"github.com/shard-legends/economy-service/internal/service"
)

// RegenHandler exposes the regeneration lifecycle on the internal API.
// Session handling lives in other services; they call start on login
// and stop on logout/disconnect.
type RegenHandler struct {
	scheduler *service.RegenScheduler
	logger    *slog.Logger
}

// NewRegenHandler creates a new regeneration handler
func NewRegenHandler(scheduler *service.RegenScheduler, logger *slog.Logger) *RegenHandler {
	return &RegenHandler{
		scheduler: scheduler,
		logger:    logger,
	}
}

// StartRegen handles POST /economy/regen/:player_id/start
func (h *RegenHandler) StartRegen(c *gin.Context) {
	playerID, err := uuid.Parse(c.Param("player_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_player_id",
			Message: "Invalid player ID format",
		})
		return
	}

	h.scheduler.Start(playerID)
	c.JSON(http.StatusOK, gin.H{"running": true})
}

// StopRegen handles POST /economy/regen/:player_id/stop
func (h *RegenHandler) StopRegen(c *gin.Context) {
	playerID, err := uuid.Parse(c.Param("player_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_player_id",
			Message: "Invalid player ID format",
		})
		return
	}

	h.scheduler.Stop(playerID)
	c.JSON(http.StatusOK, gin.H{"running": false})
}

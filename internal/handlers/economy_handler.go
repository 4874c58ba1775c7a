package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shard-legends/economy-service/internal/auth"
	"github.com/shard-legends/economy-service/internal/models"
	"github.com/shard-legends/economy-service/internal/service"
)

// EconomyHandler handles economy related HTTP requests
type EconomyHandler struct {
	economyService service.EconomyService
	logger         *slog.Logger
}

// NewEconomyHandler creates a new economy handler
func NewEconomyHandler(economyService service.EconomyService, logger *slog.Logger) *EconomyHandler {
	return &EconomyHandler{
		economyService: economyService,
		logger:         logger,
	}
}

// playerID extracts the authenticated player's id from the gin context.
// Returns uuid.Nil after writing the error response when extraction fails.
func (h *EconomyHandler) playerID(c *gin.Context) uuid.UUID {
	userValue, exists := c.Get("user")
	if !exists {
		h.logger.Error("User not found in context")
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "missing_user_context",
			Message: "User context not found",
		})
		return uuid.Nil
	}

	user, ok := userValue.(*auth.UserContext)
	if !ok {
		h.logger.Error("Invalid user context type")
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_user_context",
			Message: "Invalid user context type",
		})
		return uuid.Nil
	}

	playerID, err := uuid.Parse(user.UserID)
	if err != nil {
		h.logger.Error("Invalid user ID format", "user_id", user.UserID, "error", err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_user_id",
			Message: "Invalid user ID format",
		})
		return uuid.Nil
	}

	return playerID
}

// ListUpgrades handles GET /economy/upgrades
func (h *EconomyHandler) ListUpgrades(c *gin.Context) {
	playerID := h.playerID(c)
	if playerID == uuid.Nil {
		return
	}

	response, err := h.economyService.ListUpgrades(c.Request.Context(), playerID)
	if err != nil {
		h.writeServiceError(c, playerID, "list upgrades", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// PurchaseUpgrade handles POST /economy/upgrades/:upgrade_id/purchase
func (h *EconomyHandler) PurchaseUpgrade(c *gin.Context) {
	playerID := h.playerID(c)
	if playerID == uuid.Nil {
		return
	}

	upgradeID := c.Param("upgrade_id")
	if upgradeID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_upgrade_id",
			Message: "Upgrade id is required",
		})
		return
	}

	response, err := h.economyService.Purchase(c.Request.Context(), playerID, upgradeID)
	if err != nil {
		h.writeServiceError(c, playerID, "purchase", err)
		return
	}

	h.logger.Info("Purchase completed",
		"player_id", playerID,
		"upgrade_id", upgradeID,
		"new_level", response.NewLevel)
	c.JSON(http.StatusOK, response)
}

// ClaimOffline handles POST /economy/offline/claim
func (h *EconomyHandler) ClaimOffline(c *gin.Context) {
	playerID := h.playerID(c)
	if playerID == uuid.Nil {
		return
	}

	response, err := h.economyService.ClaimOffline(c.Request.Context(), playerID)
	if err != nil {
		h.writeServiceError(c, playerID, "claim offline", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// writeServiceError maps service errors onto stable error codes so the
// client can distinguish "not enough currency" from "locked" from
// "try again" without parsing store errors.
func (h *EconomyHandler) writeServiceError(c *gin.Context, playerID uuid.UUID, op string, err error) {
	var insufficientFunds *service.InsufficientFundsError
	var storeUnavailable *service.StoreUnavailableError
	var reconciliation *service.ReconciliationError

	switch {
	case errors.Is(err, service.ErrUnknownUpgrade):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "unknown_upgrade",
			Message: "Upgrade does not exist",
		})
	case errors.Is(err, service.ErrPlayerNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "player_not_found",
			Message: "Player does not exist",
		})
	case errors.Is(err, service.ErrUpgradeLocked):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "upgrade_locked",
			Message: "Upgrade requirements are not met",
		})
	case errors.Is(err, service.ErrMaxLevelReached):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "max_level_reached",
			Message: "Upgrade is already at max level",
		})
	case errors.As(err, &insufficientFunds):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:    "insufficient_funds",
			Message:  "Not enough currency",
			Required: insufficientFunds.Required,
		})
	case errors.As(err, &reconciliation):
		// Rollback itself failed: already logged as fatal by the service
		h.logger.Error("Reconciliation failure surfaced to handler",
			"player_id", playerID, "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Purchase could not be completed",
		})
	case errors.As(err, &storeUnavailable):
		h.logger.Error("Store unavailable", "player_id", playerID, "op", op, "error", err)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "store_unavailable",
			Message: "Temporary storage failure, try again",
		})
	default:
		h.logger.Error("Unexpected service error", "player_id", playerID, "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Unexpected error",
		})
	}
}

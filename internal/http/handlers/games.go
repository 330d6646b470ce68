package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"multisweeper/internal/logger"
	"multisweeper/internal/session"

	"github.com/gin-gonic/gin"
)

// ListGames returns a summary of every live game.
func (h *Handler) ListGames(c *gin.Context) {
	games := h.Registry.List()
	c.JSON(http.StatusOK, gin.H{
		"games": games,
		"count": len(games),
	})
}

// GetGame returns the redacted state of one live game.
func (h *Handler) GetGame(c *gin.Context) {
	s, err := h.Registry.Get(c.Param("id"))
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// ListResults returns recently finished boards. ?gameId= narrows it to one
// game, ?limit= caps the count.
func (h *Handler) ListResults(c *gin.Context) {
	if h.Results == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "result history not configured"})
		return
	}

	if gameID := c.Query("gameId"); gameID != "" {
		results, err := h.Results.ListByGame(c.Request.Context(), gameID)
		if err != nil {
			logger.Error("failed to list game results", "error", err, "game_id", gameID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load results"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	results, err := h.Results.ListRecent(c.Request.Context(), limit)
	if err != nil {
		logger.Error("failed to list recent results", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load results"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ResultStats aggregates finished boards over the last ?days= days (default 7).
func (h *Handler) ResultStats(c *gin.Context) {
	if h.Results == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "result history not configured"})
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 || days > 365 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
		return
	}

	stats, err := h.Results.Stats(c.Request.Context(), time.Now().AddDate(0, 0, -days))
	if err != nil {
		logger.Error("failed to load result stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coinwatch/bookfeed/internal/orderbook"
	"github.com/coinwatch/bookfeed/pkg/models"
)

// getDepth returns the current top-K view of both sides. Before the first
// successful poll both sides are empty, which is a valid response.
func (s *Server) getDepth(c *gin.Context) {
	resp := models.DepthResponse{
		Bids: []models.Level{},
		Asks: []models.Level{},
	}
	if snap := s.store.Current(); snap != nil {
		resp.Bids = wireLevels(snap.Bids.TopK(s.topK))
		resp.Asks = wireLevels(snap.Asks.TopK(s.topK))
		resp.Sequence = snap.Sequence
	}
	c.JSON(http.StatusOK, resp)
}

// simulateOrder validates the request and runs a read-only market order
// simulation. Malformed or out-of-range input is rejected before any book
// access; insufficient liquidity is a normal result, not an error.
func (s *Server) simulateOrder(c *gin.Context) {
	var req models.MarketOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.simulator.Simulate(req))
}

// healthCheck reports feed liveness: "starting" before the first snapshot,
// "degraded" when the current snapshot is older than staleAfter (the feed
// is failing and the book is going stale), "ok" otherwise.
func (s *Server) healthCheck(c *gin.Context) {
	snap := s.store.Current()
	if snap == nil {
		c.JSON(http.StatusOK, gin.H{"status": "starting"})
		return
	}
	age := time.Since(snap.ObservedAt)
	status := "ok"
	if s.staleAfter > 0 && age > s.staleAfter {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"sequence":    snap.Sequence,
		"age_seconds": age.Seconds(),
		"subscribers": s.hub.Len(),
	})
}

func wireLevels(levels []orderbook.PriceLevel) []models.Level {
	out := make([]models.Level, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, models.NewLevel(lvl.Price, lvl.Quantity))
	}
	return out
}

package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eero-drew/eero-business-dashboard/internal/insights"
)

type InsightHandler struct {
	Aggregator *insights.Aggregator
}

func (h *InsightHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/insights")
	group.GET("/heatmap", h.heatmap)
	group.GET("/uptime", h.uptimeTimeline)
	group.GET("/scorecards", h.scorecards)
	group.GET("/alert-trend", h.alertTrend)
}

func (h *InsightHandler) heatmap(c *gin.Context) {
	if h.Aggregator == nil {
		Error(c, http.StatusInternalServerError, "aggregator unavailable", nil)
		return
	}
	end := timeQuery(c, "end", time.Now().UTC())
	start := timeQuery(c, "start", end.AddDate(0, 0, -7))
	if !end.After(start) {
		Error(c, http.StatusBadRequest, "end must be after start", nil)
		return
	}
	var networkIDs []string
	if raw := strings.TrimSpace(c.Query("networks")); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				networkIDs = append(networkIDs, id)
			}
		}
	}
	hm, err := h.Aggregator.Heatmap(c.Request.Context(), networkIDs, start, end)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, hm, map[string]any{
		"start": start.Format(time.RFC3339),
		"end":   end.Format(time.RFC3339),
	})
}

func (h *InsightHandler) uptimeTimeline(c *gin.Context) {
	if h.Aggregator == nil {
		Error(c, http.StatusInternalServerError, "aggregator unavailable", nil)
		return
	}
	networkID := strings.TrimSpace(c.Query("network_id"))
	if networkID == "" {
		Error(c, http.StatusBadRequest, "network_id is required", nil)
		return
	}
	end := timeQuery(c, "end", time.Now().UTC())
	start := timeQuery(c, "start", end.AddDate(0, 0, -1))
	if !end.After(start) {
		Error(c, http.StatusBadRequest, "end must be after start", nil)
		return
	}
	segments, err := h.Aggregator.UptimeTimeline(c.Request.Context(), networkID, start, end)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, segments, map[string]any{
		"network_id": networkID,
		"start":      start.Format(time.RFC3339),
		"end":        end.Format(time.RFC3339),
	})
}

func (h *InsightHandler) scorecards(c *gin.Context) {
	if h.Aggregator == nil {
		Error(c, http.StatusInternalServerError, "aggregator unavailable", nil)
		return
	}
	cards, err := h.Aggregator.Scorecards(c.Request.Context(), time.Now().UTC())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, cards, nil)
}

func (h *InsightHandler) alertTrend(c *gin.Context) {
	if h.Aggregator == nil {
		Error(c, http.StatusInternalServerError, "aggregator unavailable", nil)
		return
	}
	days := intQuery(c, "days", 7)
	if days < 1 || days > 90 {
		Error(c, http.StatusBadRequest, "days must be between 1 and 90", nil)
		return
	}
	dates, counts, err := h.Aggregator.AlertTrend(c.Request.Context(), time.Now().UTC(), days)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"dates": dates, "counts": counts}, nil)
}

package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eero-drew/eero-business-dashboard/internal/models"
	"github.com/eero-drew/eero-business-dashboard/internal/repository"
)

type NetworkHandler struct {
	Repo repository.Repository
}

func (h *NetworkHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/networks")
	group.GET("", h.listNetworks)
	group.GET("/:id", h.getNetwork)
	group.GET("/:id/metrics", h.listMetrics)
}

// networkStatus is a network joined with its most recent reading.
type networkStatus struct {
	models.Network
	HealthScore  *int       `json:"health_score,omitempty"`
	HealthTier   *string    `json:"health_tier,omitempty"`
	TotalDevices *int       `json:"total_devices,omitempty"`
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
}

func (h *NetworkHandler) listNetworks(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	networks, err := h.Repo.ListNetworks(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	items := make([]networkStatus, 0, len(networks))
	for _, n := range networks {
		item := networkStatus{Network: n}
		latest, err := h.Repo.GetLatestMetric(c.Request.Context(), n.ID)
		if err != nil {
			Error(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
		if latest != nil {
			score := latest.HealthScore
			tier := latest.HealthTier
			seen := latest.Timestamp
			item.HealthScore = &score
			item.HealthTier = &tier
			item.TotalDevices = latest.TotalDevices
			item.LastSeenAt = &seen
		}
		items = append(items, item)
	}
	Ok(c, items, nil)
}

func (h *NetworkHandler) getNetwork(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	network, err := h.Repo.GetNetworkByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if network == nil {
		Error(c, http.StatusNotFound, "network not found", nil)
		return
	}
	latest, err := h.Repo.GetLatestMetric(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"network": network, "latest": latest}, nil)
}

func (h *NetworkHandler) listMetrics(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	end := timeQuery(c, "end", time.Now().UTC())
	start := timeQuery(c, "start", end.Add(-24*time.Hour))
	if !end.After(start) {
		Error(c, http.StatusBadRequest, "end must be after start", nil)
		return
	}
	items, err := h.Repo.ListMetrics(c.Request.Context(), id, start, end)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{
		"start": start.Format(time.RFC3339),
		"end":   end.Format(time.RFC3339),
	})
}

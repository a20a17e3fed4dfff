package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eero-drew/eero-business-dashboard/internal/alerting"
	"github.com/eero-drew/eero-business-dashboard/internal/repository"
)

type AlertHandler struct {
	Repo    repository.Repository
	Manager *alerting.Manager
}

func (h *AlertHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/alerts")
	group.GET("", h.listAlerts)
	group.GET("/summary", h.summary)
	group.POST("/:id/ack", h.acknowledge)
}

func (h *AlertHandler) listAlerts(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	networkID := strings.TrimSpace(c.Query("network_id"))
	kind := strings.TrimSpace(c.Query("kind"))
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	params := repository.ListAlertsParams{Limit: limit, Offset: offset}
	if networkID != "" {
		params.NetworkID = &networkID
	}
	if kind != "" {
		params.Kind = &kind
	}
	if val := c.Query("unresolved"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			params.Unresolved = &b
		}
	}
	if since := strings.TrimSpace(c.Query("since")); since != "" {
		if parsed, err := time.Parse(time.RFC3339, since); err == nil {
			parsed = parsed.UTC()
			params.Since = &parsed
		}
	}

	items, err := h.Repo.ListAlerts(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	meta := paginationMeta(limit, offset, int64(len(items)))
	Ok(c, items, meta)
}

func (h *AlertHandler) summary(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	n, err := h.Repo.CountUnacknowledgedAlerts(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"unacknowledged": n}, nil)
}

func (h *AlertHandler) acknowledge(c *gin.Context) {
	if h.Manager == nil {
		Error(c, http.StatusInternalServerError, "alert manager unavailable", nil)
		return
	}
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid alert id", nil)
		return
	}
	alert, err := h.Manager.Acknowledge(c.Request.Context(), id, time.Now().UTC())
	if errors.Is(err, alerting.ErrNotFound) {
		Error(c, http.StatusNotFound, "alert not found", nil)
		return
	}
	if errors.Is(err, alerting.ErrAlreadyAcknowledged) {
		Error(c, http.StatusConflict, "alert already acknowledged", nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, alert, nil)
}

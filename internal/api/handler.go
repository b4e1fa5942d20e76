package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/disaster-response-agents/internal/broadcast"
	"github.com/mr1hm/disaster-response-agents/internal/models"
	"github.com/mr1hm/disaster-response-agents/internal/repository"
	"github.com/mr1hm/disaster-response-agents/internal/sensor"
)

const (
	defaultLimit = 20
	maxLimit     = 500
)

type Handler struct {
	disasters   repository.DisasterRepository
	alerts      repository.AlertRepository
	broadcaster *broadcast.Broadcaster
	locations   []models.Location
}

func NewHandler(disasters repository.DisasterRepository, alerts repository.AlertRepository, broadcaster *broadcast.Broadcaster, locations []models.Location) *Handler {
	return &Handler{
		disasters:   disasters,
		alerts:      alerts,
		broadcaster: broadcaster,
		locations:   locations,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/api/locations", h.getLocations)
	r.GET("/api/disasters", h.getDisasters)
	r.GET("/api/disasters/:id", h.getDisaster)
	r.GET("/api/disasters/:id/alerts", h.getDisasterAlerts)
	r.GET("/api/alerts", h.getAlerts)
	if h.broadcaster != nil {
		r.GET("/api/alerts/ws", h.streamAlerts)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type locationResponse struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (h *Handler) getLocations(c *gin.Context) {
	out := make([]locationResponse, 0, len(h.locations))
	for _, l := range h.locations {
		out = append(out, locationResponse{Name: l.Name, Latitude: l.Latitude, Longitude: l.Longitude})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getDisasters(c *gin.Context) {
	filter := repository.Filter{Limit: parseLimit(c)}

	if t := c.Query("type"); t != "" {
		if dt, ok := models.ParseDisasterType(t); ok {
			filter.Type = &dt
		}
	}
	if l := c.Query("location"); l != "" {
		filter.Location = &l
	}
	if s := c.Query("min_severity"); s != "" {
		if sev, ok := parseSeverity(s); ok {
			filter.MinSeverity = &sev
		}
	}

	disasters, err := h.disasters.ListDisasters(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch disasters",
		})
		return
	}

	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, toGeoJSON(disasters))
}

func (h *Handler) getDisaster(c *gin.Context) {
	id := c.Param("id")

	d, err := h.disasters.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "disaster not found"})
		return
	}
	if err != nil {
		slog.Error("failed to fetch disaster", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch disaster",
		})
		return
	}

	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, toFeature(*d))
}

// getDisasterAlerts lists every alert raised for one disaster, one per
// sensor that observed it.
func (h *Handler) getDisasterAlerts(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.disasters.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "disaster not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch disaster"})
		return
	}

	alerts, err := h.alerts.GetByEventID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch alerts",
		})
		return
	}

	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

type alertResponse struct {
	ID        string             `json:"id"`
	EventID   string             `json:"event_id"`
	SensorID  string             `json:"sensor_id"`
	Level     models.AlertLevel  `json:"level"`
	CreatedAt time.Time          `json:"created_at"`
	Event     sensor.EventRecord `json:"event"`
}

func toAlertResponse(a models.Alert) alertResponse {
	return alertResponse{
		ID:        a.ID,
		EventID:   a.EventID,
		SensorID:  a.SensorID,
		Level:     a.Level,
		CreatedAt: a.CreatedAt,
		Event:     sensor.NewEventRecord(a.Event, a.SensorID),
	}
}

func (h *Handler) getAlerts(c *gin.Context) {
	filter := repository.Filter{Limit: parseLimit(c)}

	if l := c.Query("level"); l != "" {
		level := models.AlertLevel(strings.ToUpper(l))
		filter.Level = &level
	}
	if s := c.Query("sensor"); s != "" {
		filter.SensorID = &s
	}
	if l := c.Query("location"); l != "" {
		filter.Location = &l
	}

	alerts, err := h.alerts.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch alerts",
		})
		return
	}

	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

func parseLimit(c *gin.Context) int {
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= maxLimit {
			return lim
		}
	}
	return defaultLimit
}

// parseSeverity accepts a tier number (1-5) or its name.
func parseSeverity(s string) (models.Severity, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= int(models.SeverityLow) && n <= int(models.SeverityCatastrophic) {
			return models.Severity(n), true
		}
		return 0, false
	}
	return models.ParseSeverity(s)
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tariel-x/guestlist/internal/config"
	"github.com/tariel-x/guestlist/internal/store"
)

type Handlers struct {
	config     *config.Config
	store      *store.Store
	hub        *EventHub
	wsUpgrader websocket.Upgrader
}

func New(cfg *config.Config, st *store.Store, hub *EventHub, wsUpgrader websocket.Upgrader) *Handlers {
	return &Handlers{
		config:     cfg,
		store:      st,
		hub:        hub,
		wsUpgrader: wsUpgrader,
	}
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireJSON rejects write requests without a JSON content type.
func requireJSON(c *gin.Context) bool {
	if !strings.Contains(c.ContentType(), "application/json") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content-Type must be application/json"})
		return false
	}
	return true
}

// parseID parses a positive row id from the URL and writes the 400 itself.
// Zero means invalid.
func parseID(c *gin.Context) uint {
	n, err := strconv.Atoi(c.Param("id"))
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0
	}
	return uint(n)
}

// parsePositiveInt falls back to def for missing, unparseable or non-positive
// values instead of erroring.
func parsePositiveInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tariel-x/guestlist/internal/models"
	"github.com/tariel-x/guestlist/internal/store"
)

type groupRequest struct {
	Name  *string `json:"name"`
	Shift *string `json:"shift"`
}

func (h *Handlers) ListGroups(c *gin.Context) {
	rows, err := h.store.ListGroups()
	if err != nil {
		slog.Default().Error("list guest groups failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch guest groups"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handlers) CreateGroup(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}

	group, err := h.store.CreateGroup(name)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNameRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		case errors.Is(err, store.ErrGroupNameTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nama grup sudah digunakan"})
		default:
			slog.Default().Error("create guest group failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest group"})
		}
		return
	}

	h.notifyGroupsChanged()
	c.JSON(http.StatusCreated, group)
}

// RenameGroup renames a group and cascades the new name onto its guests.
// The optional shift field moves every guest in the group to one of the
// fixed invitation time windows as part of the same operation.
func (h *Handlers) RenameGroup(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		return
	}
	if !requireJSON(c) {
		return
	}
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}

	var shift models.Shift
	if req.Shift != nil && *req.Shift != "" {
		shift = models.Shift(*req.Shift)
		if !shift.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shift must be one of shift1, shift2, shift3"})
			return
		}
	}

	group, err := h.store.RenameGroup(id, name, shift)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNameRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		case errors.Is(err, store.ErrGroupNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Guest group not found"})
		case errors.Is(err, store.ErrGroupNameTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nama grup sudah digunakan"})
		default:
			slog.Default().Error("rename guest group failed", "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rename guest group"})
		}
		return
	}

	h.notifyGroupsChanged()
	h.notifyGuestsChanged()
	c.JSON(http.StatusOK, group)
}

func (h *Handlers) DeleteGroup(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		return
	}
	if err := h.store.DeleteGroup(id); err != nil {
		if errors.Is(err, store.ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Guest group not found"})
			return
		}
		slog.Default().Error("delete guest group failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete guest group"})
		return
	}

	h.notifyGroupsChanged()
	h.notifyGuestsChanged()
	c.Status(http.StatusNoContent)
}

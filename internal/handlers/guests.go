package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tariel-x/guestlist/internal/store"
)

type guestRequest struct {
	Name            *string `json:"name"`
	Address         *string `json:"address"`
	WeddingLocation *string `json:"weddingLocation"`
	InvitationTime  *string `json:"invitationTime"`
	InvitationType  *string `json:"invitationType"`
	GuestType       *string `json:"guestType"`
	GuestGroup      *string `json:"guestGroup"`
}

func listParamsFromQuery(c *gin.Context) store.ListParams {
	return store.ListParams{
		Page:           parsePositiveInt(c.Query("page"), 1),
		Limit:          parsePositiveInt(c.Query("limit"), store.DefaultLimit),
		Search:         c.Query("search"),
		Location:       c.Query("location"),
		InvitationType: c.Query("invitationType"),
		GuestType:      c.Query("guestType"),
		GuestGroup:     c.Query("guestGroup"),
	}
}

func (h *Handlers) ListGuests(c *gin.Context) {
	res, err := h.store.ListGuests(listParamsFromQuery(c))
	if err != nil {
		slog.Default().Error("list guests failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch guests"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) CreateGuest(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req guestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	in := store.GuestInput{
		Address:         req.Address,
		WeddingLocation: req.WeddingLocation,
		InvitationTime:  req.InvitationTime,
		InvitationType:  req.InvitationType,
		GuestType:       req.GuestType,
		GuestGroup:      req.GuestGroup,
	}
	if req.Name != nil {
		in.Name = *req.Name
	}

	guest, err := h.store.CreateGuest(in)
	if err != nil {
		if errors.Is(err, store.ErrNameRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		slog.Default().Error("create guest failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest"})
		return
	}

	h.notifyGuestsChanged()
	h.notifyGroupsChanged()
	c.JSON(http.StatusCreated, guest)
}

func (h *Handlers) GetGuest(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		return
	}
	guest, err := h.store.GetGuest(id)
	if err != nil {
		if errors.Is(err, store.ErrGuestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Guest not found"})
			return
		}
		slog.Default().Error("get guest failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch guest"})
		return
	}
	c.JSON(http.StatusOK, guest)
}

func (h *Handlers) UpdateGuest(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		return
	}
	if !requireJSON(c) {
		return
	}

	// Decode into raw fields first: a key that is present with a null value
	// clears the column, an absent key leaves it untouched.
	var fields map[string]json.RawMessage
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	upd := store.GuestUpdate{}
	if raw, ok := fields["name"]; ok {
		var v *string
		if err := json.Unmarshal(raw, &v); err == nil && v != nil {
			upd.Name = v
		}
	}
	upd.Address, upd.AddressSet = stringField(fields, "address")
	upd.WeddingLocation, upd.WeddingLocationSet = stringField(fields, "weddingLocation")
	upd.InvitationTime, upd.InvitationTimeSet = stringField(fields, "invitationTime")
	upd.InvitationType, upd.InvitationTypeSet = stringField(fields, "invitationType")
	upd.GuestType, upd.GuestTypeSet = stringField(fields, "guestType")
	upd.GuestGroup, upd.GuestGroupSet = stringField(fields, "guestGroup")

	guest, err := h.store.UpdateGuest(id, upd)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNameRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
		case errors.Is(err, store.ErrGuestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Guest not found"})
		default:
			slog.Default().Error("update guest failed", "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update guest"})
		}
		return
	}

	h.notifyGuestsChanged()
	c.JSON(http.StatusOK, guest)
}

func (h *Handlers) DeleteGuest(c *gin.Context) {
	id := parseID(c)
	if id == 0 {
		return
	}
	if err := h.store.DeleteGuest(id); err != nil {
		if errors.Is(err, store.ErrGuestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Guest not found"})
			return
		}
		slog.Default().Error("delete guest failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete guest"})
		return
	}

	h.notifyGuestsChanged()
	h.notifyGroupsChanged()
	c.Status(http.StatusNoContent)
}

// stringField extracts an optional string field. Present non-string values
// count as explicit null.
func stringField(fields map[string]json.RawMessage, key string) (*string, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, true
	}
	return v, true
}

package handlers

import (
	"encoding/csv"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tariel-x/guestlist/internal/models"
)

// ExportGuests returns every guest matching the list filters, capped at
// store.ExportLimit, without pagination. The default body is {"data": [...]};
// format=csv streams a spreadsheet attachment instead.
func (h *Handlers) ExportGuests(c *gin.Context) {
	p := listParamsFromQuery(c)
	guests, err := h.store.ExportGuests(p)
	if err != nil {
		slog.Default().Error("export guests failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export guests"})
		return
	}

	if c.Query("format") == "csv" {
		writeGuestsCSV(c, guests)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": guests})
}

func writeGuestsCSV(c *gin.Context, guests []models.Guest) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="guests.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Name", "Address", "Wedding Location", "Invitation Time", "Invitation Type", "Guest Type", "Guest Group", "Shift"})
	for _, g := range guests {
		invitationTime := ""
		if g.InvitationTime != nil {
			invitationTime = g.InvitationTime.Format("2006-01-02 15:04")
		}
		_ = w.Write([]string{
			g.Name,
			deref(g.Address),
			deref(g.WeddingLocation),
			invitationTime,
			deref(g.InvitationType),
			deref(g.GuestType),
			deref(g.GuestGroup),
			models.ShiftForTime(g.InvitationTime).Label(),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		slog.Default().Warn("csv export interrupted", "error", err)
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

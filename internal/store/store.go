package store

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tariel-x/guestlist/internal/models"
)

var (
	ErrGuestNotFound  = errors.New("guest not found")
	ErrGroupNotFound  = errors.New("guest group not found")
	ErrGroupNameTaken = errors.New("group name already in use")
	ErrNameRequired   = errors.New("name is required")
)

const (
	DefaultLimit = 15
	MaxLimit     = 100
	ExportLimit  = 5000
)

// Store implements guest and group queries and mutations on top of the
// relational tables. It holds no state of its own; concurrent requests are
// serialized by the database's transaction mechanism.
type Store struct {
	db    *gorm.DB
	nowFn func() time.Time
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:    db,
		nowFn: time.Now,
	}
}

// ListParams are the recognized guest list filters. Zero values mean "not
// filtering on this field"; enum fields with unrecognized values are treated
// as unset.
type ListParams struct {
	Page           int
	Limit          int
	Search         string
	Location       string
	InvitationType string
	GuestType      string
	GuestGroup     string
}

func (p ListParams) normalized() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	p.Search = strings.TrimSpace(p.Search)
	p.Location = strings.TrimSpace(p.Location)
	p.GuestGroup = strings.TrimSpace(p.GuestGroup)
	if !models.ValidInvitationType(strings.TrimSpace(p.InvitationType)) {
		p.InvitationType = ""
	} else {
		p.InvitationType = strings.TrimSpace(p.InvitationType)
	}
	if !models.ValidGuestType(strings.TrimSpace(p.GuestType)) {
		p.GuestType = ""
	} else {
		p.GuestType = strings.TrimSpace(p.GuestType)
	}
	return p
}

// filterScope combines all supplied filters with AND. Search matches
// case-insensitively as a substring of name, address and wedding location,
// with NULL text treated as empty.
func filterScope(p ListParams) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if p.Search != "" {
			pattern := "%" + strings.ToLower(p.Search) + "%"
			q = q.Where(
				"LOWER(name) LIKE ? OR LOWER(COALESCE(address, '')) LIKE ? OR LOWER(COALESCE(wedding_location, '')) LIKE ?",
				pattern, pattern, pattern,
			)
		}
		if p.Location != "" {
			q = q.Where("wedding_location = ?", p.Location)
		}
		if p.InvitationType != "" {
			q = q.Where("invitation_type = ?", p.InvitationType)
		}
		if p.GuestGroup != "" {
			q = q.Where("guest_group = ?", p.GuestGroup)
		}
		if p.GuestType != "" {
			q = q.Where("guest_type = ?", p.GuestType)
		}
		return q
	}
}

// listOrder keeps pagination deterministic: same filters, same slices.
const listOrder = "guest_group, id"

// ListResult is the list endpoint payload. Total counts the filtered rows,
// TotalAll every guest row; the facet fields are computed over all guests
// regardless of filters.
type ListResult struct {
	Data            []models.Guest `json:"data"`
	Total           int64          `json:"total"`
	TotalAll        int64          `json:"totalAll"`
	UniqueLocations []string       `json:"uniqueLocations"`
	GuestGroupNames []string       `json:"guestGroupNames"`
}

func (s *Store) ListGuests(p ListParams) (*ListResult, error) {
	p = p.normalized()

	res := &ListResult{
		Data:            []models.Guest{},
		UniqueLocations: []string{},
		GuestGroupNames: []string{},
	}

	if err := s.db.Model(&models.Guest{}).Scopes(filterScope(p)).Count(&res.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Guest{}).Count(&res.TotalAll).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Guest{}).
		Distinct("wedding_location").
		Where("wedding_location IS NOT NULL AND wedding_location <> ''").
		Order("wedding_location").
		Pluck("wedding_location", &res.UniqueLocations).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.GuestGroup{}).
		Order("name").
		Pluck("name", &res.GuestGroupNames).Error; err != nil {
		return nil, err
	}

	offset := (p.Page - 1) * p.Limit
	if err := s.db.Scopes(filterScope(p)).
		Order(listOrder).
		Limit(p.Limit).
		Offset(offset).
		Find(&res.Data).Error; err != nil {
		return nil, err
	}

	return res, nil
}

// ExportGuests applies the same filters as ListGuests but returns the whole
// result set up to ExportLimit, in the same order. Page and Limit are ignored.
func (s *Store) ExportGuests(p ListParams) ([]models.Guest, error) {
	p.Page = 0
	p.Limit = 0
	p = p.normalized()

	guests := []models.Guest{}
	if err := s.db.Scopes(filterScope(p)).
		Order(listOrder).
		Limit(ExportLimit).
		Find(&guests).Error; err != nil {
		return nil, err
	}
	return guests, nil
}

// parseTime accepts the timestamp formats the UI submits: RFC3339, the
// datetime-local form value, and a bare date. Returns nil when none match.
func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

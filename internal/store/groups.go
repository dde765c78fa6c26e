package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tariel-x/guestlist/internal/models"
)

// GroupWithCount is one row of the group listing: the group plus how many
// guests currently carry its name.
type GroupWithCount struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	GuestCount int64  `json:"guestCount"`
}

func (s *Store) ListGroups() ([]GroupWithCount, error) {
	rows := []GroupWithCount{}
	err := s.db.Model(&models.GuestGroup{}).
		Select("guest_groups.id, guest_groups.name, COUNT(guests.id) AS guest_count").
		Joins("LEFT JOIN guests ON guests.guest_group = guest_groups.name").
		Group("guest_groups.id, guest_groups.name").
		Order("guest_groups.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) CreateGroup(name string) (*models.GuestGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	group := models.GuestGroup{Name: name}
	if err := s.db.Create(&group).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrGroupNameTaken
		}
		return nil, err
	}
	return &group, nil
}

// RenameGroup renames the group and rewrites every guest carrying the old
// name to the new one. When shift names a valid time window, every guest in
// the group also gets that window's start time-of-day, keeping its date.
// All of it commits or rolls back as one transaction, so guests never point
// at a name no group owns and the shift change is all-or-nothing.
func (s *Store) RenameGroup(id uint, newName string, shift models.Shift) (*models.GuestGroup, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, ErrNameRequired
	}

	var group models.GuestGroup
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&group, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return err
		}
		oldName := group.Name

		if err := tx.Model(&group).Update("name", newName).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrGroupNameTaken
			}
			return err
		}
		if err := tx.Model(&models.Guest{}).
			Where("guest_group = ?", oldName).
			Update("guest_group", newName).Error; err != nil {
			return err
		}

		if !shift.Valid() {
			return nil
		}
		now := s.nowFn()
		var guests []models.Guest
		if err := tx.Where("guest_group = ?", newName).Find(&guests).Error; err != nil {
			return err
		}
		for _, g := range guests {
			t := shift.Apply(g.InvitationTime, g.WeddingLocation, now)
			if err := tx.Model(&models.Guest{}).
				Where("id = ?", g.ID).
				Update("invitation_time", t).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// DeleteGroup removes the group row after clearing the group name from every
// guest that references it. Guests themselves are never deleted.
func (s *Store) DeleteGroup(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var group models.GuestGroup
		if err := tx.First(&group, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return err
		}
		if err := tx.Model(&models.Guest{}).
			Where("guest_group = ?", group.Name).
			Update("guest_group", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&group).Error
	})
}

package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tariel-x/guestlist/internal/models"
)

// GuestInput carries a guest creation request. Fields other than Name are
// optional; enum fields with unrecognized values and unparseable timestamps
// are stored as NULL rather than rejected.
type GuestInput struct {
	Name            string
	Address         *string
	WeddingLocation *string
	InvitationTime  *string
	InvitationType  *string
	GuestType       *string
	GuestGroup      *string
}

// CreateGuest inserts a guest. A non-empty guest group also ensures a backing
// group row exists; the insert ignores a name conflict so two concurrent
// creates naming the same new group both succeed.
func (s *Store) CreateGuest(in GuestInput) (*models.Guest, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	guest := models.Guest{Name: name}
	if in.Address != nil {
		trimmed := strings.TrimSpace(*in.Address)
		guest.Address = &trimmed
	}
	if in.WeddingLocation != nil {
		if trimmed := strings.TrimSpace(*in.WeddingLocation); trimmed != "" {
			guest.WeddingLocation = &trimmed
		}
	}
	if in.InvitationTime != nil {
		guest.InvitationTime = parseTime(*in.InvitationTime)
	}
	if in.InvitationType != nil && models.ValidInvitationType(*in.InvitationType) {
		guest.InvitationType = in.InvitationType
	}
	if in.GuestType != nil && models.ValidGuestType(*in.GuestType) {
		guest.GuestType = in.GuestType
	}
	if in.GuestGroup != nil {
		if trimmed := strings.TrimSpace(*in.GuestGroup); trimmed != "" {
			guest.GuestGroup = &trimmed
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if guest.GuestGroup != nil {
			group := models.GuestGroup{Name: *guest.GuestGroup}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&group).Error; err != nil {
				return err
			}
		}
		return tx.Create(&guest).Error
	})
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

// GuestUpdate is a partial update. A nil field with its Set flag raised means
// "clear"; a lowered flag means "leave untouched". Name cannot be cleared.
type GuestUpdate struct {
	Name *string

	Address    *string
	AddressSet bool

	WeddingLocation    *string
	WeddingLocationSet bool

	InvitationTime    *string
	InvitationTimeSet bool

	InvitationType    *string
	InvitationTypeSet bool

	GuestType    *string
	GuestTypeSet bool

	GuestGroup    *string
	GuestGroupSet bool
}

// UpdateGuest applies a partial update to the guest with the given id.
// Editing a guest never creates a backing group row; the group catalog is
// only reconciled on the create path.
func (s *Store) UpdateGuest(id uint, upd GuestUpdate) (*models.Guest, error) {
	updates := map[string]interface{}{}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		updates["name"] = name
	}
	if upd.AddressSet {
		updates["address"] = trimOrNil(upd.Address)
	}
	if upd.WeddingLocationSet {
		updates["wedding_location"] = trimOrNil(upd.WeddingLocation)
	}
	if upd.InvitationTimeSet {
		if upd.InvitationTime == nil || strings.TrimSpace(*upd.InvitationTime) == "" {
			updates["invitation_time"] = nil
		} else if t := parseTime(*upd.InvitationTime); t != nil {
			updates["invitation_time"] = *t
		}
		// An unparseable timestamp leaves the stored value alone.
	}
	if upd.InvitationTypeSet {
		if upd.InvitationType != nil && models.ValidInvitationType(*upd.InvitationType) {
			updates["invitation_type"] = *upd.InvitationType
		} else {
			updates["invitation_type"] = nil
		}
	}
	if upd.GuestTypeSet {
		if upd.GuestType != nil && models.ValidGuestType(*upd.GuestType) {
			updates["guest_type"] = *upd.GuestType
		} else {
			updates["guest_type"] = nil
		}
	}
	if upd.GuestGroupSet {
		updates["guest_group"] = trimOrNil(upd.GuestGroup)
	}

	var guest models.Guest
	if err := s.db.First(&guest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGuestNotFound
		}
		return nil, err
	}
	if len(updates) == 0 {
		return &guest, nil
	}

	if err := s.db.Model(&guest).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := s.db.First(&guest, id).Error; err != nil {
		return nil, err
	}
	return &guest, nil
}

func (s *Store) GetGuest(id uint) (*models.Guest, error) {
	var guest models.Guest
	if err := s.db.First(&guest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGuestNotFound
		}
		return nil, err
	}
	return &guest, nil
}

func (s *Store) DeleteGuest(id uint) error {
	res := s.db.Delete(&models.Guest{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGuestNotFound
	}
	return nil
}

// trimOrNil maps a missing or blank string to NULL.
func trimOrNil(v *string) interface{} {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return trimmed
}

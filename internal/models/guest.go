package models

import "time"

// Invitation delivery methods.
const (
	InvitationTypePhysical = "physical"
	InvitationTypeDigital  = "digital"
)

// Guest categories: invited together with family ("sekaliyan") or alone ("sendiri").
const (
	GuestTypeSekaliyan = "sekaliyan"
	GuestTypeSendiri   = "sendiri"
)

// Guest is one invitee row. GuestGroup stores the group's name, not its id:
// the group relation is by value, so renaming a group rewrites these rows.
type Guest struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"type:text;not null" json:"name"`
	Address         *string    `gorm:"type:text" json:"address"`
	WeddingLocation *string    `gorm:"type:text" json:"weddingLocation"`
	InvitationTime  *time.Time `json:"invitationTime"`
	InvitationType  *string    `gorm:"type:text" json:"invitationType"`
	GuestType       *string    `gorm:"type:text" json:"guestType"`
	GuestGroup      *string    `gorm:"type:text;index" json:"guestGroup"`
}

func ValidInvitationType(v string) bool {
	return v == InvitationTypePhysical || v == InvitationTypeDigital
}

func ValidGuestType(v string) bool {
	return v == GuestTypeSekaliyan || v == GuestTypeSendiri
}

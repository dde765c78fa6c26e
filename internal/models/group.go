package models

// GuestGroup is a named collection label for guests. Names are unique and
// case-sensitive. A group may be empty; guests reference it by name only.
type GuestGroup struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:text;uniqueIndex;not null" json:"name"`
}

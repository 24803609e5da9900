package model

import (
	"time"
)

// User holds the account record plus the editable profile fields.
// Profile updates are partial: only the fields present in the request
// are written, everything else is left as-is.
type User struct {
	UID            string    `json:"uid" gorm:"primarykey;size:36"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null"`
	Password       string    `json:"-" gorm:"not null"`
	DisplayName    string    `json:"displayName"`
	PhotoURL       string    `json:"photoURL"`
	Phone          string    `json:"phone"`
	EmailReminders bool      `json:"emailReminders"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the optional profile fields of a partial update.
// Nil pointers mean "leave unchanged".
type ProfileUpdate struct {
	DisplayName    *string `json:"displayName"`
	PhotoURL       *string `json:"photoURL"`
	Phone          *string `json:"phone"`
	EmailReminders *bool   `json:"emailReminders"`
}

package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ActivityType enumerates the supported answer shapes.
type ActivityType string

const (
	TypeBoolean     ActivityType = "boolean"
	TypeScale       ActivityType = "scale"
	TypeOptions     ActivityType = "options"
	TypeMultiSelect ActivityType = "multi_select"
)

// Valid reports whether t is one of the declared activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case TypeBoolean, TypeScale, TypeOptions, TypeMultiSelect:
		return true
	}
	return false
}

const (
	// ScaleMin and ScaleMax bound the "max" setting of a scale activity.
	ScaleMin = 2
	ScaleMax = 10
	// ScaleDefault is used when a scale activity is created without a max.
	ScaleDefault = 5
)

// Activity is a user-defined trackable dimension. Activities are never
// updated in place: they are created once and deleted explicitly, with
// the deletion cascading their answers out of existing entries.
type Activity struct {
	ID        uint         `json:"id" gorm:"primarykey"`
	UserID    string       `json:"-" gorm:"size:36;index;not null"`
	Code      string       `json:"code" gorm:"size:32;not null"`
	Title     string       `json:"title" gorm:"not null"`
	Type      ActivityType `json:"type" gorm:"size:16;not null"`
	Max       int          `json:"max,omitempty"`
	Options   StringList   `json:"options,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// StringList stores an ordered list of strings as a jsonb column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
}

// Contains reports whether s is one of the listed options.
func (l StringList) Contains(s string) bool {
	for _, o := range l {
		if o == s {
			return true
		}
	}
	return false
}

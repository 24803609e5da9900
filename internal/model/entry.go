package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the ISO calendar-date format used as the entry key.
// Fixed-width zero-padded dates sort correctly as strings, which the
// month range queries rely on.
const DateLayout = "2006-01-02"

// Entry is the record of a single calendar day: activity answers, a free
// text note and up to MaxAttachments files. One entry per user per date,
// enforced by query-before-write rather than a database constraint.
type Entry struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	UserID      string         `json:"-" gorm:"size:36;index:idx_entries_user_date;not null"`
	Date        string         `json:"date" gorm:"size:10;index:idx_entries_user_date;not null"`
	Note        string         `json:"note"`
	Answers     AnswerMap      `json:"activities" gorm:"type:jsonb"`
	Attachments AttachmentList `json:"attachments" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// MaxAttachments bounds the number of files on a single entry.
const MaxAttachments = 5

// Answer is the recorded value for one activity on one day. Exactly one
// field is set, matching the activity's declared type: Bool for boolean,
// Value for scale, Option for options, Options for multi_select.
type Answer struct {
	Bool    *bool    `json:"bool,omitempty"`
	Value   *int     `json:"value,omitempty"`
	Option  *string  `json:"option,omitempty"`
	Options []string `json:"options,omitempty"`
}

// BoolAnswer builds a boolean answer.
func BoolAnswer(v bool) Answer { return Answer{Bool: &v} }

// ScaleAnswer builds a scale answer.
func ScaleAnswer(v int) Answer { return Answer{Value: &v} }

// OptionAnswer builds a single-choice answer.
func OptionAnswer(v string) Answer { return Answer{Option: &v} }

// MultiAnswer builds a multi-select answer.
func MultiAnswer(vs ...string) Answer { return Answer{Options: vs} }

// AnswerMap maps activity id to the day's answer, stored as jsonb.
// Integer keys are encoded as JSON object keys (strings) by encoding/json.
type AnswerMap map[uint]Answer

// Value implements driver.Valuer.
func (m AnswerMap) Value() (driver.Value, error) {
	if m == nil {
		m = AnswerMap{}
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *AnswerMap) Scan(value interface{}) error {
	if value == nil {
		*m = AnswerMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type %T for AnswerMap", value)
	}
}

// Attachment is one persisted file reference on an entry. URL, storage
// path and descriptor live together in a single record, so there is no
// index alignment to maintain across separate sequences.
type Attachment struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	Name        string `json:"name"`
	ContentType string `json:"type"`
	Size        int64  `json:"size"`
}

// AttachmentList stores the ordered attachment records as jsonb.
type AttachmentList []Attachment

// Value implements driver.Valuer.
func (l AttachmentList) Value() (driver.Value, error) {
	if l == nil {
		l = AttachmentList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *AttachmentList) Scan(value interface{}) error {
	if value == nil {
		*l = AttachmentList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for AttachmentList", value)
	}
}

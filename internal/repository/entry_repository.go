package repository

import (
	"github.com/user/track-daily/internal/model"
	"gorm.io/gorm"
)

// EntryRepositoryInterface defines the per-day entry persistence
// operations. Entries are keyed by (user, date); uniqueness is enforced
// by looking before writing, not by a database constraint.
type EntryRepositoryInterface interface {
	GetByDate(userID, date string) (*model.Entry, error)
	Save(entry *model.Entry) error
	GetMonth(userID, first, last string) ([]model.Entry, error)
	ListWithAttachments(userID string) ([]model.Entry, error)
}

// EntryRepository implements EntryRepositoryInterface.
type EntryRepository struct {
	DB *gorm.DB
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db *gorm.DB) EntryRepositoryInterface {
	return &EntryRepository{DB: db}
}

// GetByDate fetches the single entry of a calendar date, or
// gorm.ErrRecordNotFound when the day has no record yet.
func (r *EntryRepository) GetByDate(userID, date string) (*model.Entry, error) {
	var entry model.Entry
	result := r.DB.Where("user_id = ? AND date = ?", userID, date).First(&entry)
	if result.Error != nil {
		return nil, result.Error
	}
	return &entry, nil
}

// Save creates or updates the entry. A zero ID means first save for the
// date; otherwise the whole record is written back.
func (r *EntryRepository) Save(entry *model.Entry) error {
	if entry.ID == 0 {
		return r.DB.Create(entry).Error
	}
	return r.DB.Save(entry).Error
}

// GetMonth returns the entries of an inclusive date-key range, ascending.
// ISO dates are fixed-width zero-padded, so the string range is the
// calendar range.
func (r *EntryRepository) GetMonth(userID, first, last string) ([]model.Entry, error) {
	var entries []model.Entry
	result := r.DB.
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, first, last).
		Order("date ASC").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// ListWithAttachments returns every entry that carries at least one
// attachment, newest first. Feeds the file browser.
func (r *EntryRepository) ListWithAttachments(userID string) ([]model.Entry, error) {
	var entries []model.Entry
	result := r.DB.
		Where("user_id = ? AND jsonb_array_length(attachments) > 0", userID).
		Order("date DESC").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

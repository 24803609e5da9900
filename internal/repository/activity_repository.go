package repository

import (
	"strconv"

	"github.com/user/track-daily/internal/model"
	"gorm.io/gorm"
)

// ActivityRepositoryInterface defines the catalog persistence operations.
type ActivityRepositoryInterface interface {
	Create(activity *model.Activity) (*model.Activity, error)
	ListByUser(userID string) ([]model.Activity, error)
	GetByID(userID string, id uint) (*model.Activity, error)
	TitleExists(userID, title string) (bool, error)
	CodeExists(userID, code string) (bool, error)
	Delete(userID string, id uint) error
	DeleteAll(userID string) (int64, error)
}

// ActivityRepository implements ActivityRepositoryInterface.
type ActivityRepository struct {
	DB *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *gorm.DB) ActivityRepositoryInterface {
	return &ActivityRepository{DB: db}
}

// Create adds a new activity to the catalog.
func (r *ActivityRepository) Create(activity *model.Activity) (*model.Activity, error) {
	if result := r.DB.Create(activity); result.Error != nil {
		return nil, result.Error
	}
	return activity, nil
}

// ListByUser returns the user's catalog in creation order.
func (r *ActivityRepository) ListByUser(userID string) ([]model.Activity, error) {
	var activities []model.Activity
	result := r.DB.Where("user_id = ?", userID).Order("id ASC").Find(&activities)
	if result.Error != nil {
		return nil, result.Error
	}
	return activities, nil
}

// GetByID retrieves one activity, scoped to the owning user.
func (r *ActivityRepository) GetByID(userID string, id uint) (*model.Activity, error) {
	var activity model.Activity
	result := r.DB.Where("user_id = ? AND id = ?", userID, id).First(&activity)
	if result.Error != nil {
		return nil, result.Error
	}
	return &activity, nil
}

// TitleExists checks for a case-insensitive title collision.
func (r *ActivityRepository) TitleExists(userID, title string) (bool, error) {
	var count int64
	result := r.DB.Model(&model.Activity{}).
		Where("user_id = ? AND LOWER(title) = LOWER(?)", userID, title).
		Count(&count)
	return count > 0, result.Error
}

// CodeExists checks for a code collision.
func (r *ActivityRepository) CodeExists(userID, code string) (bool, error) {
	var count int64
	result := r.DB.Model(&model.Activity{}).
		Where("user_id = ? AND code = ?", userID, code).
		Count(&count)
	return count > 0, result.Error
}

// Delete removes one activity and strips its answers out of every entry
// of the user, in a single transaction. Answers are keyed by the
// activity id rendered as a JSON object key.
func (r *ActivityRepository) Delete(userID string, id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&model.Activity{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		key := strconv.FormatUint(uint64(id), 10)
		return tx.Exec(
			"UPDATE entries SET answers = answers - ? WHERE user_id = ?",
			key, userID,
		).Error
	})
}

// DeleteAll removes the user's whole catalog and clears all recorded
// answers atomically; a failure leaves both tables untouched.
func (r *ActivityRepository) DeleteAll(userID string) (int64, error) {
	var deleted int64
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ?", userID).Delete(&model.Activity{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return tx.Exec(
			"UPDATE entries SET answers = '{}'::jsonb WHERE user_id = ?",
			userID,
		).Error
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

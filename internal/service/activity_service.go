package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/user/track-daily/internal/apperr"
	"github.com/user/track-daily/internal/model"
	"github.com/user/track-daily/internal/repository"
)

// ActivityTemplate is a predefined activity a user can add in one tap.
type ActivityTemplate struct {
	Code    string             `json:"code"`
	Title   string             `json:"title"`
	Type    model.ActivityType `json:"type"`
	Max     int                `json:"max,omitempty"`
	Options []string           `json:"options,omitempty"`
}

// Templates is the built-in catalog of common activities.
var Templates = []ActivityTemplate{
	{Code: "MOOD", Title: "Mood", Type: model.TypeScale, Max: 5},
	{Code: "SLEEP", Title: "Sleep Quality", Type: model.TypeScale, Max: 5},
	{Code: "EXERCISE", Title: "Exercise", Type: model.TypeBoolean},
	{Code: "MEDITATION", Title: "Meditation", Type: model.TypeBoolean},
	{Code: "WATER", Title: "Water Intake", Type: model.TypeScale, Max: 10},
	{Code: "PRODUCTIVITY", Title: "Productivity", Type: model.TypeScale, Max: 5},
	{Code: "STRESS", Title: "Stress Level", Type: model.TypeScale, Max: 5},
	{Code: "ENERGY", Title: "Energy Level", Type: model.TypeScale, Max: 5},
	{Code: "MEALS", Title: "Meals", Type: model.TypeOptions, Options: []string{"Healthy", "Mixed", "Unhealthy"}},
	{Code: "SYMPTOMS", Title: "Symptoms", Type: model.TypeMultiSelect, Options: []string{"Headache", "Fatigue", "Nausea", "Dizziness", "Pain"}},
}

// AddActivityInput is the payload for creating a catalog activity.
type AddActivityInput struct {
	Title   string             `json:"title"`
	Type    model.ActivityType `json:"type"`
	Max     int                `json:"max"`
	Options []string           `json:"options"`
}

// ActivityService manages the per-user activity catalog.
type ActivityService struct {
	Activities repository.ActivityRepositoryInterface
}

// NewActivityService creates a new ActivityService.
func NewActivityService(activities repository.ActivityRepositoryInterface) *ActivityService {
	return &ActivityService{Activities: activities}
}

// List returns the user's catalog.
func (s *ActivityService) List(userID string) ([]model.Activity, error) {
	activities, err := s.Activities.ListByUser(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to load activities", err)
	}
	return activities, nil
}

// Add creates a catalog activity. Titles are unique per user
// (case-insensitive); the short code is derived from the title and a
// collision is resolved with a numeric suffix.
func (s *ActivityService) Add(userID string, input AddActivityInput) (*model.Activity, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperr.New(apperr.KindValidation, "Title is required")
	}
	if !input.Type.Valid() {
		return nil, apperr.New(apperr.KindValidation, "Unknown activity type")
	}

	exists, err := s.Activities.TitleExists(userID, title)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to add activity", err)
	}
	if exists {
		return nil, apperr.New(apperr.KindDuplicate, "An activity with this title already exists")
	}

	activity := &model.Activity{
		UserID: userID,
		Title:  title,
		Type:   input.Type,
	}

	switch input.Type {
	case model.TypeScale:
		activity.Max = clampScaleMax(input.Max)
	case model.TypeOptions, model.TypeMultiSelect:
		options := dedupeOptions(input.Options)
		if len(options) == 0 {
			return nil, apperr.New(apperr.KindValidation, "Please add at least one option")
		}
		activity.Options = options
	}

	code, err := s.uniqueCode(userID, deriveCode(title))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to add activity", err)
	}
	activity.Code = code

	if _, err := s.Activities.Create(activity); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to add activity", err)
	}
	return activity, nil
}

// AddFromTemplate adds one of the built-in templates to the catalog. The
// duplicate-title guard of Add still applies.
func (s *ActivityService) AddFromTemplate(userID, code string) (*model.Activity, error) {
	for _, t := range Templates {
		if t.Code == code {
			return s.Add(userID, AddActivityInput{
				Title:   t.Title,
				Type:    t.Type,
				Max:     t.Max,
				Options: t.Options,
			})
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "Unknown activity template")
}

// Delete removes an activity and cascades its answers out of every
// entry of the user.
func (s *ActivityService) Delete(userID string, id uint) error {
	if err := s.Activities.Delete(userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "Activity not found")
		}
		return apperr.Wrap(apperr.KindDeleteFailed, "Failed to delete activity", err)
	}
	return nil
}

// DeleteAll clears the whole catalog in one atomic operation.
func (s *ActivityService) DeleteAll(userID string) (int64, error) {
	deleted, err := s.Activities.DeleteAll(userID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindDeleteFailed, "Failed to delete activities", err)
	}
	return deleted, nil
}

func clampScaleMax(max int) int {
	if max == 0 {
		return model.ScaleDefault
	}
	if max < model.ScaleMin {
		return model.ScaleMin
	}
	if max > model.ScaleMax {
		return model.ScaleMax
	}
	return max
}

func dedupeOptions(options []string) model.StringList {
	out := make(model.StringList, 0, len(options))
	for _, o := range options {
		o = strings.TrimSpace(o)
		if o == "" || out.Contains(o) {
			continue
		}
		out = append(out, o)
	}
	return out
}

const maxCodeLen = 12

// deriveCode builds the short uppercase identifier from a title:
// "Sleep Quality" -> "SLEEPQUALITY".
func deriveCode(title string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
		if b.Len() >= maxCodeLen {
			break
		}
	}
	if b.Len() == 0 {
		return "ACTIVITY"
	}
	return b.String()
}

// uniqueCode resolves code collisions with a numeric suffix: CODE,
// CODE2, CODE3, ...
func (s *ActivityService) uniqueCode(userID, base string) (string, error) {
	code := base
	for n := 2; ; n++ {
		exists, err := s.Activities.CodeExists(userID, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		code = fmt.Sprintf("%s%d", base, n)
	}
}

package service

import (
	"context"
	"io"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/user/track-daily/internal/model"
)

// In-memory repository and storage stand-ins. They mirror the contract
// of the real implementations: not-found maps to gorm.ErrRecordNotFound
// and reads hand out copies so callers cannot mutate stored state.

type fakeUserRepo struct {
	users []model.User
}

func (f *fakeUserRepo) Create(user *model.User) error {
	f.users = append(f.users, *user)
	return nil
}

func (f *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	for i := range f.users {
		if f.users[i].Email == email {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByUID(uid string) (*model.User, error) {
	for i := range f.users {
		if f.users[i].UID == uid {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) EmailExists(email string) (bool, error) {
	_, err := f.FindByEmail(email)
	return err == nil, nil
}

func (f *fakeUserRepo) UpdateProfile(uid string, updates map[string]interface{}) error {
	for i := range f.users {
		if f.users[i].UID != uid {
			continue
		}
		u := &f.users[i]
		if v, ok := updates["display_name"]; ok {
			u.DisplayName = v.(string)
		}
		if v, ok := updates["photo_url"]; ok {
			u.PhotoURL = v.(string)
		}
		if v, ok := updates["phone"]; ok {
			u.Phone = v.(string)
		}
		if v, ok := updates["email_reminders"]; ok {
			u.EmailReminders = v.(bool)
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

type fakeActivityRepo struct {
	nextID     uint
	activities []model.Activity
	entries    *fakeEntryRepo
}

func (f *fakeActivityRepo) Create(activity *model.Activity) (*model.Activity, error) {
	f.nextID++
	activity.ID = f.nextID
	f.activities = append(f.activities, *activity)
	return activity, nil
}

func (f *fakeActivityRepo) ListByUser(userID string) ([]model.Activity, error) {
	var out []model.Activity
	for _, a := range f.activities {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeActivityRepo) GetByID(userID string, id uint) (*model.Activity, error) {
	for i := range f.activities {
		if f.activities[i].UserID == userID && f.activities[i].ID == id {
			a := f.activities[i]
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeActivityRepo) TitleExists(userID, title string) (bool, error) {
	for _, a := range f.activities {
		if a.UserID == userID && strings.EqualFold(a.Title, title) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeActivityRepo) CodeExists(userID, code string) (bool, error) {
	for _, a := range f.activities {
		if a.UserID == userID && a.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeActivityRepo) Delete(userID string, id uint) error {
	for i := range f.activities {
		if f.activities[i].UserID == userID && f.activities[i].ID == id {
			f.activities = append(f.activities[:i], f.activities[i+1:]...)
			f.stripAnswers(userID, id)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeActivityRepo) DeleteAll(userID string) (int64, error) {
	var kept []model.Activity
	var deleted int64
	for _, a := range f.activities {
		if a.UserID == userID {
			deleted++
			f.stripAnswers(userID, a.ID)
			continue
		}
		kept = append(kept, a)
	}
	f.activities = kept
	return deleted, nil
}

// stripAnswers mirrors the jsonb key-removal cascade of the real repo.
func (f *fakeActivityRepo) stripAnswers(userID string, id uint) {
	if f.entries == nil {
		return
	}
	for _, e := range f.entries.entries {
		if e.UserID == userID {
			delete(e.Answers, id)
		}
	}
}

type fakeEntryRepo struct {
	nextID  uint
	entries map[string]*model.Entry
	saveErr error
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[string]*model.Entry)}
}

func entryKey(userID, date string) string { return userID + "/" + date }

func (f *fakeEntryRepo) GetByDate(userID, date string) (*model.Entry, error) {
	e, ok := f.entries[entryKey(userID, date)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEntryRepo) Save(entry *model.Entry) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if entry.ID == 0 {
		f.nextID++
		entry.ID = f.nextID
	}
	cp := *entry
	f.entries[entryKey(entry.UserID, entry.Date)] = &cp
	return nil
}

func (f *fakeEntryRepo) GetMonth(userID, first, last string) ([]model.Entry, error) {
	var out []model.Entry
	for _, e := range f.entries {
		if e.UserID == userID && e.Date >= first && e.Date <= last {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (f *fakeEntryRepo) ListWithAttachments(userID string) ([]model.Entry, error) {
	var out []model.Entry
	for _, e := range f.entries {
		if e.UserID == userID && len(e.Attachments) > 0 {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

type fakeStore struct {
	uploads   []string
	deleted   []string
	uploadErr error
	failAfter int // uploadErr fires once this many uploads succeeded
	deleteErr error
}

func (f *fakeStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if f.uploadErr != nil && len(f.uploads) >= f.failAfter {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, key)
	return "https://files.example.com/" + key, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	return nil
}

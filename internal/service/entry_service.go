package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/user/track-daily/internal/apperr"
	"github.com/user/track-daily/internal/attachment"
	"github.com/user/track-daily/internal/chart"
	"github.com/user/track-daily/internal/dateutil"
	"github.com/user/track-daily/internal/model"
	"github.com/user/track-daily/internal/repository"
	"github.com/user/track-daily/pkg/storage"
)

// EntryService owns the per-day records: loading, saving with attachment
// uploads, month aggregation and the file browser.
type EntryService struct {
	Entries    repository.EntryRepositoryInterface
	Activities repository.ActivityRepositoryInterface
	Store      storage.Store
	Previews   *attachment.PreviewStore
	Staging    *attachment.Manager

	// Now is the clock used by the editable-window check. Tests swap it.
	Now func() time.Time
}

// NewEntryService creates a new EntryService.
func NewEntryService(
	entries repository.EntryRepositoryInterface,
	activities repository.ActivityRepositoryInterface,
	store storage.Store,
	previews *attachment.PreviewStore,
	staging *attachment.Manager,
) *EntryService {
	return &EntryService{
		Entries:    entries,
		Activities: activities,
		Store:      store,
		Previews:   previews,
		Staging:    staging,
		Now:        time.Now,
	}
}

// SaveEntryInput is the payload of a day save.
type SaveEntryInput struct {
	Date    string          `json:"date"`
	Note    string          `json:"note"`
	Answers model.AnswerMap `json:"activities"`
}

// Get returns the entry of a date. A day without a record yields an
// empty entry skeleton so the editor always has something to bind to.
func (s *EntryService) Get(userID, date string) (*model.Entry, error) {
	if _, err := dateutil.ParseDate(date); err != nil {
		return nil, apperr.New(apperr.KindValidation, "Invalid date format (expected YYYY-MM-DD)")
	}

	entry, err := s.Entries.GetByDate(userID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.Entry{
				Date:        date,
				Answers:     model.AnswerMap{},
				Attachments: model.AttachmentList{},
			}, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to load entry", err)
	}
	return entry, nil
}

// Save writes the entry for a date, uploading any newly picked files
// first so the record never references a pending upload. Existing
// attachments are merged with the freshly uploaded ones. Files rejected
// by the staging rules do not fail the save; they come back as warnings
// and the valid subset is kept. A failed save leaves the stored entry
// untouched and puts the files still waiting for upload back into
// staging.
func (s *EntryService) Save(ctx context.Context, userID string, input SaveEntryInput, files []attachment.BatchFile) (*model.Entry, []string, error) {
	day, err := dateutil.ParseDate(input.Date)
	if err != nil {
		return nil, nil, apperr.New(apperr.KindValidation, "Invalid date format (expected YYYY-MM-DD)")
	}
	if ok, msg := dateutil.ValidateEditableDate(day, s.Now()); !ok {
		return nil, nil, apperr.New(apperr.KindValidation, msg)
	}

	answers := input.Answers
	if answers == nil {
		answers = model.AnswerMap{}
	}
	if err := s.validateAnswers(userID, answers); err != nil {
		return nil, nil, err
	}

	entry, err := s.Entries.GetByDate(userID, input.Date)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.Wrap(apperr.KindInternal, "Failed to load entry", err)
		}
		entry = &model.Entry{UserID: userID, Date: input.Date}
	}

	session := attachment.NewSession(entry.Attachments, s.Previews)

	var warnings []string
	if s.Staging != nil {
		if staged := s.Staging.Take(userID, input.Date); staged != nil {
			warnings = append(warnings, session.Merge(staged)...)
		}
	}
	_, batchWarnings := session.AddBatch(files)
	warnings = append(warnings, batchWarnings...)

	// Uploads run one at a time, in selection order. The first failure
	// aborts the rest of the batch; the not-yet-uploaded files go back
	// into staging so a retry of the save still has them.
	for len(session.StagedFiles()) > 0 {
		staged := session.StagedFiles()[0]
		key := fmt.Sprintf("notes/%s/%s.%s", userID, uuid.New().String(), attachment.Extension(staged.ContentType))

		url, err := s.Store.Upload(ctx, key, staged.ContentType, bytes.NewReader(staged.Data))
		if err != nil {
			if s.Staging != nil {
				s.Staging.Restore(userID, input.Date, session)
			} else {
				session.Close()
			}
			return nil, warnings, apperr.Wrap(apperr.KindUploadFailed, uploadFailureMessage(err), err)
		}
		session.MarkUploaded(model.Attachment{
			URL:         url,
			Path:        key,
			Name:        staged.Name,
			ContentType: staged.ContentType,
			Size:        staged.Size,
		})
	}
	session.Close()

	entry.Note = input.Note
	entry.Answers = answers
	entry.Attachments = session.Persisted()

	if err := s.Entries.Save(entry); err != nil {
		return nil, warnings, apperr.Wrap(apperr.KindInternal, "Failed to save entry", err)
	}
	return entry, warnings, nil
}

// RemoveAttachment deletes the attachment at index from the date's
// entry: the storage object first (a missing object counts as deleted),
// then the entry record.
func (s *EntryService) RemoveAttachment(ctx context.Context, userID, date string, index int) (*model.Entry, error) {
	entry, err := s.Entries.GetByDate(userID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "Entry not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to load entry", err)
	}
	if index < 0 || index >= len(entry.Attachments) {
		return nil, apperr.New(apperr.KindNotFound, "Attachment not found")
	}

	if err := s.Store.Delete(ctx, entry.Attachments[index].Path); err != nil {
		return nil, apperr.Wrap(apperr.KindDeleteFailed, "Failed to delete file", err)
	}

	entry.Attachments = append(entry.Attachments[:index], entry.Attachments[index+1:]...)
	if err := s.Entries.Save(entry); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to save entry", err)
	}
	return entry, nil
}

// MonthEntries returns the entries of a YYYY-MM month, ascending by date.
func (s *EntryService) MonthEntries(userID, month string) ([]model.Entry, error) {
	first, last, err := dateutil.MonthRange(month)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "Invalid month format (expected YYYY-MM)")
	}
	entries, err := s.Entries.GetMonth(userID, first, last)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to load entries", err)
	}
	return entries, nil
}

// ActivitySummary is one activity's chart pair within a month summary.
type ActivitySummary struct {
	Activity model.Activity `json:"activity"`
	Pie      chart.PieData  `json:"pieData"`
	Line     chart.LineData `json:"lineData"`
}

// MonthSummary is the graph view payload for one month.
type MonthSummary struct {
	Month           string            `json:"month"`
	Days            []int             `json:"days"`
	Activities      []ActivitySummary `json:"activities"`
	NotesCompletion chart.PieData     `json:"notesCompletion"`
}

// Summary builds the month's chart payloads: one pie/line pair per
// catalog activity plus the notes-completion aggregate. Activities of an
// unknown type are skipped.
func (s *EntryService) Summary(userID, month string) (*MonthSummary, error) {
	days, err := dateutil.DaysInMonth(month)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "Invalid month format (expected YYYY-MM)")
	}

	entries, err := s.MonthEntries(userID, month)
	if err != nil {
		return nil, err
	}
	activities, err := s.Activities.ListByUser(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to load activities", err)
	}

	lookup := chart.MapEntries(entries)
	summaries := make([]ActivitySummary, 0, len(activities))
	for _, activity := range activities {
		charts := chart.Prepare(activity, lookup, days, month)
		if charts == nil {
			continue
		}
		summaries = append(summaries, ActivitySummary{
			Activity: activity,
			Pie:      charts.Pie,
			Line:     charts.Line,
		})
	}

	return &MonthSummary{
		Month:           month,
		Days:            days,
		Activities:      summaries,
		NotesCompletion: chart.PrepareNotesCompletion(entries, days),
	}, nil
}

// FileEntry is one dated attachment group in the file browser.
type FileEntry struct {
	ID          uint                 `json:"id"`
	Date        string               `json:"date"`
	Attachments model.AttachmentList `json:"attachments"`
}

// FileMonth groups the file browser entries of one month.
type FileMonth struct {
	Month   string      `json:"month"`
	Entries []FileEntry `json:"entries"`
}

// BrowseFiles lists every entry carrying attachments, newest first,
// grouped by month. A search term matches the date key or any file name
// (case-insensitive).
func (s *EntryService) BrowseFiles(userID, searchTerm string) ([]FileMonth, error) {
	entries, err := s.Entries.ListWithAttachments(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to load files", err)
	}

	months := []FileMonth{}
	for _, entry := range entries {
		if searchTerm != "" && !matchesSearch(entry, searchTerm) {
			continue
		}
		monthKey := entry.Date[:7]
		if len(months) == 0 || months[len(months)-1].Month != monthKey {
			months = append(months, FileMonth{Month: monthKey})
		}
		last := &months[len(months)-1]
		last.Entries = append(last.Entries, FileEntry{
			ID:          entry.ID,
			Date:        entry.Date,
			Attachments: entry.Attachments,
		})
	}
	return months, nil
}

func matchesSearch(entry model.Entry, term string) bool {
	if strings.Contains(entry.Date, term) {
		return true
	}
	lower := strings.ToLower(term)
	for _, att := range entry.Attachments {
		if strings.Contains(strings.ToLower(att.Name), lower) {
			return true
		}
	}
	return false
}

// validateAnswers checks every answer against the declared shape of its
// activity.
func (s *EntryService) validateAnswers(userID string, answers model.AnswerMap) error {
	if len(answers) == 0 {
		return nil
	}
	activities, err := s.Activities.ListByUser(userID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "Failed to load activities", err)
	}
	byID := make(map[uint]model.Activity, len(activities))
	for _, a := range activities {
		byID[a.ID] = a
	}

	for id, answer := range answers {
		activity, ok := byID[id]
		if !ok {
			return apperr.New(apperr.KindValidation, "Answer refers to an unknown activity")
		}
		if err := validateAnswer(activity, answer); err != nil {
			return err
		}
	}
	return nil
}

func validateAnswer(activity model.Activity, a model.Answer) error {
	switch activity.Type {
	case model.TypeBoolean:
		if a.Bool == nil {
			return apperr.New(apperr.KindValidation,
				fmt.Sprintf("%s expects a yes/no answer", activity.Title))
		}
	case model.TypeScale:
		max := activity.Max
		if max <= 0 {
			max = model.ScaleDefault
		}
		if a.Value == nil || *a.Value < 1 || *a.Value > max {
			return apperr.New(apperr.KindValidation,
				fmt.Sprintf("%s expects a value between 1 and %d", activity.Title, max))
		}
	case model.TypeOptions:
		if a.Option == nil || !activity.Options.Contains(*a.Option) {
			return apperr.New(apperr.KindValidation,
				fmt.Sprintf("%s expects one of its options", activity.Title))
		}
	case model.TypeMultiSelect:
		for _, v := range a.Options {
			if !activity.Options.Contains(v) {
				return apperr.New(apperr.KindValidation,
					fmt.Sprintf("%s has no option %q", activity.Title, v))
			}
		}
	}
	return nil
}

// uploadFailureMessage maps a storage failure to the user-facing reason
// when the backend reported one.
func uploadFailureMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "AccessDenied"), strings.Contains(msg, "Forbidden"):
		return "Permission denied: you don't have permission to upload files"
	case strings.Contains(msg, "RequestCanceled"), errors.Is(err, context.Canceled):
		return "Upload canceled"
	case strings.Contains(msg, "QuotaExceeded"), strings.Contains(msg, "EntityTooLarge"):
		return "Storage quota exceeded"
	default:
		return "Unknown error occurred during upload"
	}
}

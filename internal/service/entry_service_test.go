package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/user/track-daily/internal/apperr"
	"github.com/user/track-daily/internal/attachment"
	"github.com/user/track-daily/internal/dateutil"
	"github.com/user/track-daily/internal/model"
)

// Fixed clock: the editable window is 2024-03-07 .. 2024-03-12.
var testNow = time.Date(2024, time.March, 12, 15, 0, 0, 0, time.UTC)

type entryFixture struct {
	svc        *EntryService
	entries    *fakeEntryRepo
	activities *fakeActivityRepo
	store      *fakeStore
	staging    *attachment.Manager
	previews   *attachment.PreviewStore
}

func newEntryFixture() *entryFixture {
	entries := newFakeEntryRepo()
	activities := &fakeActivityRepo{entries: entries}
	store := &fakeStore{}
	previews := attachment.NewPreviewStore("/previews")
	staging := attachment.NewManager(previews)

	svc := NewEntryService(entries, activities, store, previews, staging)
	svc.Now = func() time.Time { return testNow }

	return &entryFixture{
		svc:        svc,
		entries:    entries,
		activities: activities,
		store:      store,
		staging:    staging,
		previews:   previews,
	}
}

func (fx *entryFixture) addActivity(t *testing.T, a model.Activity) model.Activity {
	t.Helper()
	a.UserID = "u1"
	created, err := fx.activities.Create(&a)
	if err != nil {
		t.Fatal(err)
	}
	return *created
}

func TestEntryGetSkeleton(t *testing.T) {
	fx := newEntryFixture()

	entry, err := fx.svc.Get("u1", "2024-03-10")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.ID != 0 || entry.Date != "2024-03-10" {
		t.Errorf("skeleton = %+v", entry)
	}
	if entry.Answers == nil || entry.Attachments == nil {
		t.Error("skeleton collections must be non-nil")
	}

	if _, err := fx.svc.Get("u1", "10/03/2024"); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("malformed date kind = %v", apperr.KindOf(err))
	}
}

func TestEntrySaveRoundTrip(t *testing.T) {
	fx := newEntryFixture()
	mood := fx.addActivity(t, model.Activity{Title: "Mood", Type: model.TypeScale, Max: 5})

	saved, warnings, err := fx.svc.Save(context.Background(), "u1", SaveEntryInput{
		Date:    "2024-03-10",
		Note:    "long day",
		Answers: model.AnswerMap{mood.ID: model.ScaleAnswer(4)},
	}, nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if saved.ID == 0 {
		t.Error("saved entry has no id")
	}

	loaded, err := fx.svc.Get("u1", "2024-03-10")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Note != "long day" {
		t.Errorf("note = %q", loaded.Note)
	}
	if a, ok := loaded.Answers[mood.ID]; !ok || a.Value == nil || *a.Value != 4 {
		t.Errorf("answer = %+v", loaded.Answers)
	}

	// A second save updates in place rather than creating a sibling.
	again, _, err := fx.svc.Save(context.Background(), "u1", SaveEntryInput{
		Date: "2024-03-10",
		Note: "actually fine",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != saved.ID {
		t.Errorf("second save id = %d, want %d", again.ID, saved.ID)
	}
}

func TestEntrySaveWindow(t *testing.T) {
	fx := newEntryFixture()

	tests := []struct {
		name    string
		date    string
		wantMsg string
	}{
		{"future", "2024-03-13", dateutil.MsgFutureDate},
		{"too old", "2024-03-06", dateutil.MsgTooOld},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := fx.svc.Save(context.Background(), "u1", SaveEntryInput{Date: tt.date}, nil)
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("kind = %v", apperr.KindOf(err))
			}
			if apperr.MessageOf(err) != tt.wantMsg {
				t.Errorf("message = %q, want %q", apperr.MessageOf(err), tt.wantMsg)
			}
		})
	}

	// Both window edges are editable.
	for _, date := range []string{"2024-03-07", "2024-03-12"} {
		if _, _, err := fx.svc.Save(context.Background(), "u1", SaveEntryInput{Date: date}, nil); err != nil {
			t.Errorf("Save(%s): %v", date, err)
		}
	}
}

func TestEntrySaveValidatesAnswers(t *testing.T) {
	fx := newEntryFixture()
	mood := fx.addActivity(t, model.Activity{Title: "Mood", Type: model.TypeScale, Max: 5})
	meals := fx.addActivity(t, model.Activity{Title: "Meals", Type: model.TypeOptions, Options: model.StringList{"Healthy", "Mixed"}})

	tests := []struct {
		name    string
		answers model.AnswerMap
		wantMsg string
	}{
		{"unknown activity", model.AnswerMap{999: model.BoolAnswer(true)}, "Answer refers to an unknown activity"},
		{"scale out of range", model.AnswerMap{mood.ID: model.ScaleAnswer(6)}, "Mood expects a value between 1 and 5"},
		{"scale wrong shape", model.AnswerMap{mood.ID: model.BoolAnswer(true)}, "Mood expects a value between 1 and 5"},
		{"undeclared option", model.AnswerMap{meals.ID: model.OptionAnswer("Junk")}, "Meals expects one of its options"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := fx.svc.Save(context.Background(), "u1", SaveEntryInput{
				Date:    "2024-03-10",
				Answers: tt.answers,
			}, nil)
			if apperr.MessageOf(err) != tt.wantMsg {
				t.Errorf("message = %q, want %q", apperr.MessageOf(err), tt.wantMsg)
			}
		})
	}

	// Nothing was persisted along the way.
	if _, err := fx.entries.GetByDate("u1", "2024-03-10"); err == nil {
		t.Error("invalid save persisted an entry")
	}
}

func TestEntrySaveUploadsFiles(t *testing.T) {
	fx := newEntryFixture()

	entry, warnings, err := fx.svc.Save(context.Background(), "u1", SaveEntryInput{Date: "2024-03-10"}, []attachment.BatchFile{
		{Name: "photo.png", ContentType: "image/png", Data: []byte("img")},
		{Name: "notes.zip", ContentType: "application/zip", Data: []byte("zip")},
		{Name: "scan.pdf", ContentType: "application/pdf", Data: []byte("pdf")},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if len(warnings) != 1 || !strings.HasPrefix(warnings[0], "notes.zip: ") {
		t.Errorf("warnings = %v", warnings)
	}
	if len(entry.Attachments) != 2 {
		t.Fatalf("attachments = %v", entry.Attachments)
	}

	first := entry.Attachments[0]
	if !strings.HasPrefix(first.Path, "notes/u1/") || !strings.HasSuffix(first.Path, ".png") {
		t.Errorf("storage key = %q", first.Path)
	}
	if first.URL != "https://files.example.com/"+first.Path {
		t.Errorf("url = %q", first.URL)
	}
	if first.Name != "photo.png" || first.ContentType != "image/png" || first.Size != 3 {
		t.Errorf("descriptor = %+v", first)
	}
	if !strings.HasSuffix(entry.Attachments[1].Path, ".pdf") {
		t.Errorf("second key = %q", entry.Attachments[1].Path)
	}
	if len(fx.store.uploads) != 2 {
		t.Errorf("uploads = %v", fx.store.uploads)
	}
}

func TestEntrySaveUploadFailureAborts(t *testing.T) {
	fx := newEntryFixture()
	fx.store.uploadErr = errors.New("api error AccessDenied: no")
	fx.store.failAfter = 1

	_, _, err := fx.svc.Save(context.Background(), "u1", SaveEntryInput{Date: "2024-03-10"}, []attachment.BatchFile{
		{Name: "a.png", ContentType: "image/png", Data: []byte("a")},
		{Name: "b.png", ContentType: "image/png", Data: []byte("b")},
		{Name: "c.png", ContentType: "image/png", Data: []byte("c")},
	})
	if apperr.KindOf(err) != apperr.KindUploadFailed {
		t.Fatalf("kind = %v", apperr.KindOf(err))
	}
	if apperr.MessageOf(err) != "Permission denied: you don't have permission to upload files" {
		t.Errorf("message = %q", apperr.MessageOf(err))
	}

	// First upload went through, the rest were abandoned, nothing saved.
	if len(fx.store.uploads) != 1 {
		t.Errorf("uploads = %v", fx.store.uploads)
	}
	if _, getErr := fx.entries.GetByDate("u1", "2024-03-10"); getErr == nil {
		t.Error("failed save persisted an entry")
	}
}

func TestEntrySaveUploadFailureKeepsStagedFiles(t *testing.T) {
	fx := newEntryFixture()
	fx.store.uploadErr = errors.New("AccessDenied")

	view, _ := fx.staging.Stage("u1", "2024-03-10", nil, []attachment.BatchFile{
		{Name: "picked.png", ContentType: "image/png", Data: []byte("p")},
	})
	if len(view.Staged) != 1 {
		t.Fatalf("stage = %+v", view)
	}

	_, _, err := fx.svc.Save(context.Background(), "u1", SaveEntryInput{Date: "2024-03-10"}, nil)
	if apperr.KindOf(err) != apperr.KindUploadFailed {
		t.Fatalf("kind = %v", apperr.KindOf(err))
	}

	// The file is still staged, preview intact, ready for a retry.
	after := fx.staging.View("u1", "2024-03-10", nil)
	if len(after.Staged) != 1 || after.Staged[0].Name != "picked.png" {
		t.Fatalf("staged after failed save = %+v", after.Staged)
	}
	if fx.previews.Len() != 1 {
		t.Errorf("previews after failed save = %d, want 1", fx.previews.Len())
	}

	// Retrying once the backend recovers attaches the file.
	fx.store.uploadErr = nil
	entry, warnings, err := fx.svc.Save(context.Background(), "u1", SaveEntryInput{Date: "2024-03-10"}, nil)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("retry warnings = %v", warnings)
	}
	if len(entry.Attachments) != 1 || entry.Attachments[0].Name != "picked.png" {
		t.Errorf("retry attachments = %v", entry.Attachments)
	}
	if fx.previews.Len() != 0 {
		t.Errorf("previews after retry = %d, want 0", fx.previews.Len())
	}
}

func TestEntrySaveUploadFailureMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errors.New("operation error S3: PutObject, RequestCanceled"), "Upload canceled"},
		{context.Canceled, "Upload canceled"},
		{errors.New("EntityTooLarge"), "Storage quota exceeded"},
		{errors.New("dial tcp: timeout"), "Unknown error occurred during upload"},
	}
	for _, tt := range tests {
		fx := newEntryFixture()
		fx.store.uploadErr = tt.err

		_, _, err := fx.svc.Save(context.Background(), "u1", SaveEntryInput{Date: "2024-03-10"}, []attachment.BatchFile{
			{Name: "a.png", ContentType: "image/png", Data: []byte("a")},
		})
		if apperr.MessageOf(err) != tt.want {
			t.Errorf("%v -> %q, want %q", tt.err, apperr.MessageOf(err), tt.want)
		}
	}
}

func TestEntrySaveRespectsAttachmentLimit(t *testing.T) {
	fx := newEntryFixture()

	persisted := make(model.AttachmentList, 4)
	for i := range persisted {
		persisted[i] = model.Attachment{Name: "old", Path: "notes/u1/old"}
	}
	fx.entries.Save(&model.Entry{UserID: "u1", Date: "2024-03-10", Attachments: persisted})

	entry, warnings, err := fx.svc.Save(context.Background(), "u1", SaveEntryInput{Date: "2024-03-10"}, []attachment.BatchFile{
		{Name: "fits.png", ContentType: "image/png", Data: []byte("a")},
		{Name: "overflow.png", ContentType: "image/png", Data: []byte("b")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(entry.Attachments) != model.MaxAttachments {
		t.Errorf("attachments = %d, want %d", len(entry.Attachments), model.MaxAttachments)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], attachment.MsgTooManyFiles) {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestEntrySaveAdoptsStagedFiles(t *testing.T) {
	fx := newEntryFixture()

	// Files picked in an earlier request live in the staging session.
	view, rejections := fx.staging.Stage("u1", "2024-03-10", nil, []attachment.BatchFile{
		{Name: "early.png", ContentType: "image/png", Data: []byte("e")},
	})
	if len(rejections) != 0 || len(view.Staged) != 1 {
		t.Fatalf("stage = %+v %v", view, rejections)
	}

	entry, warnings, err := fx.svc.Save(context.Background(), "u1", SaveEntryInput{Date: "2024-03-10"}, []attachment.BatchFile{
		{Name: "late.pdf", ContentType: "application/pdf", Data: []byte("l")},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if len(entry.Attachments) != 2 {
		t.Fatalf("attachments = %v", entry.Attachments)
	}
	// Staged files upload ahead of the ones sent with the save.
	if entry.Attachments[0].Name != "early.png" || entry.Attachments[1].Name != "late.pdf" {
		t.Errorf("order = %q, %q", entry.Attachments[0].Name, entry.Attachments[1].Name)
	}

	// The session was consumed and its previews released.
	if after := fx.staging.View("u1", "2024-03-10", nil); len(after.Staged) != 0 {
		t.Errorf("staging not consumed: %+v", after)
	}
	if fx.previews.Len() != 0 {
		t.Errorf("previews leaked: %d", fx.previews.Len())
	}
}

func TestRemoveAttachment(t *testing.T) {
	fx := newEntryFixture()
	fx.entries.Save(&model.Entry{
		UserID: "u1",
		Date:   "2024-03-10",
		Attachments: model.AttachmentList{
			{Name: "keep1", Path: "notes/u1/k1.png"},
			{Name: "drop", Path: "notes/u1/d.png"},
			{Name: "keep2", Path: "notes/u1/k2.png"},
		},
	})

	entry, err := fx.svc.RemoveAttachment(context.Background(), "u1", "2024-03-10", 1)
	if err != nil {
		t.Fatalf("RemoveAttachment: %v", err)
	}
	if len(entry.Attachments) != 2 || entry.Attachments[0].Name != "keep1" || entry.Attachments[1].Name != "keep2" {
		t.Errorf("attachments = %v", entry.Attachments)
	}
	if len(fx.store.deleted) != 1 || fx.store.deleted[0] != "notes/u1/d.png" {
		t.Errorf("deleted = %v", fx.store.deleted)
	}

	if _, err := fx.svc.RemoveAttachment(context.Background(), "u1", "2024-03-10", 5); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("out of range kind = %v", apperr.KindOf(err))
	}
	if _, err := fx.svc.RemoveAttachment(context.Background(), "u1", "2024-03-11", 0); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("missing entry kind = %v", apperr.KindOf(err))
	}
}

func TestRemoveAttachmentStorageFailure(t *testing.T) {
	fx := newEntryFixture()
	fx.store.deleteErr = errors.New("boom")
	fx.entries.Save(&model.Entry{
		UserID:      "u1",
		Date:        "2024-03-10",
		Attachments: model.AttachmentList{{Name: "a", Path: "notes/u1/a.png"}},
	})

	_, err := fx.svc.RemoveAttachment(context.Background(), "u1", "2024-03-10", 0)
	if apperr.KindOf(err) != apperr.KindDeleteFailed {
		t.Fatalf("kind = %v", apperr.KindOf(err))
	}

	// The reference stays while the object could not be deleted.
	saved, _ := fx.entries.GetByDate("u1", "2024-03-10")
	if len(saved.Attachments) != 1 {
		t.Errorf("reference dropped despite failed delete: %v", saved.Attachments)
	}
}

func TestMonthEntriesAndSummary(t *testing.T) {
	fx := newEntryFixture()
	exercise := fx.addActivity(t, model.Activity{Title: "Exercise", Type: model.TypeBoolean})
	fx.addActivity(t, model.Activity{Title: "Odd", Type: "mystery"})

	fx.entries.Save(&model.Entry{UserID: "u1", Date: "2024-03-02", Note: "ran",
		Answers: model.AnswerMap{exercise.ID: model.BoolAnswer(true)}})
	fx.entries.Save(&model.Entry{UserID: "u1", Date: "2024-03-01",
		Answers: model.AnswerMap{exercise.ID: model.BoolAnswer(false)}})
	fx.entries.Save(&model.Entry{UserID: "u1", Date: "2024-02-28", Note: "other month"})
	fx.entries.Save(&model.Entry{UserID: "u2", Date: "2024-03-02", Note: "other user"})

	entries, err := fx.svc.MonthEntries("u1", "2024-03")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Date != "2024-03-01" || entries[1].Date != "2024-03-02" {
		t.Errorf("month entries = %v", entries)
	}

	summary, err := fx.svc.Summary("u1", "2024-03")
	if err != nil {
		t.Fatal(err)
	}
	if summary.Month != "2024-03" || len(summary.Days) != 31 {
		t.Errorf("summary header = %q, %d days", summary.Month, len(summary.Days))
	}
	// The unknown-typed activity is skipped.
	if len(summary.Activities) != 1 {
		t.Fatalf("activity summaries = %d, want 1", len(summary.Activities))
	}
	pie := summary.Activities[0].Pie.Datasets[0]
	if pie.Data[0] != 1 || pie.Data[1] != 1 || pie.Data[2] != 29 {
		t.Errorf("boolean pie = %v", pie.Data)
	}
	notes := summary.NotesCompletion.Datasets[0]
	if notes.Data[0] != 1 || notes.Data[1] != 30 {
		t.Errorf("notes completion = %v", notes.Data)
	}

	if _, err := fx.svc.Summary("u1", "March"); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("bad month kind = %v", apperr.KindOf(err))
	}
}

func TestBrowseFiles(t *testing.T) {
	fx := newEntryFixture()

	fx.entries.Save(&model.Entry{UserID: "u1", Date: "2024-03-10",
		Attachments: model.AttachmentList{{Name: "March-Report.pdf"}}})
	fx.entries.Save(&model.Entry{UserID: "u1", Date: "2024-03-02",
		Attachments: model.AttachmentList{{Name: "photo.png"}}})
	fx.entries.Save(&model.Entry{UserID: "u1", Date: "2024-02-20",
		Attachments: model.AttachmentList{{Name: "old-scan.pdf"}}})
	fx.entries.Save(&model.Entry{UserID: "u1", Date: "2024-02-19", Note: "no files"})

	months, err := fx.svc.BrowseFiles("u1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(months) != 2 || months[0].Month != "2024-03" || months[1].Month != "2024-02" {
		t.Fatalf("months = %+v", months)
	}
	if len(months[0].Entries) != 2 || months[0].Entries[0].Date != "2024-03-10" {
		t.Errorf("march group = %+v", months[0].Entries)
	}

	// Case-insensitive file name match.
	byName, err := fx.svc.BrowseFiles("u1", "report")
	if err != nil {
		t.Fatal(err)
	}
	if len(byName) != 1 || len(byName[0].Entries) != 1 || byName[0].Entries[0].Date != "2024-03-10" {
		t.Errorf("name search = %+v", byName)
	}

	// Date substring match.
	byDate, err := fx.svc.BrowseFiles("u1", "2024-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(byDate) != 1 || byDate[0].Month != "2024-02" {
		t.Errorf("date search = %+v", byDate)
	}

	none, err := fx.svc.BrowseFiles("u1", "nothing-matches")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("empty search = %+v", none)
	}
}

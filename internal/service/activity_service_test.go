package service

import (
	"testing"

	"github.com/user/track-daily/internal/apperr"
	"github.com/user/track-daily/internal/model"
)

func newActivityService() (*ActivityService, *fakeActivityRepo) {
	repo := &fakeActivityRepo{}
	return NewActivityService(repo), repo
}

func TestActivityAdd(t *testing.T) {
	svc, _ := newActivityService()

	activity, err := svc.Add("u1", AddActivityInput{Title: "Sleep Quality", Type: model.TypeScale, Max: 5})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if activity.ID == 0 {
		t.Error("activity not assigned an id")
	}
	if activity.Code != "SLEEPQUALITY" {
		t.Errorf("code = %q, want SLEEPQUALITY", activity.Code)
	}
	if activity.Max != 5 {
		t.Errorf("max = %d, want 5", activity.Max)
	}
}

func TestActivityAddValidation(t *testing.T) {
	svc, _ := newActivityService()

	tests := []struct {
		name    string
		input   AddActivityInput
		wantMsg string
	}{
		{"empty title", AddActivityInput{Title: "   ", Type: model.TypeBoolean}, "Title is required"},
		{"unknown type", AddActivityInput{Title: "X", Type: "mystery"}, "Unknown activity type"},
		{"options without options", AddActivityInput{Title: "Meals", Type: model.TypeOptions}, "Please add at least one option"},
		{"blank options only", AddActivityInput{Title: "Meals", Type: model.TypeOptions, Options: []string{" ", ""}}, "Please add at least one option"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add("u1", tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Errorf("kind = %v, want validation", apperr.KindOf(err))
			}
			if apperr.MessageOf(err) != tt.wantMsg {
				t.Errorf("message = %q, want %q", apperr.MessageOf(err), tt.wantMsg)
			}
		})
	}
}

func TestActivityAddDuplicateTitle(t *testing.T) {
	svc, _ := newActivityService()

	if _, err := svc.Add("u1", AddActivityInput{Title: "Mood", Type: model.TypeBoolean}); err != nil {
		t.Fatal(err)
	}

	// Case-insensitive match.
	_, err := svc.Add("u1", AddActivityInput{Title: "mood", Type: model.TypeBoolean})
	if apperr.KindOf(err) != apperr.KindDuplicate {
		t.Fatalf("kind = %v, want duplicate", apperr.KindOf(err))
	}
	if apperr.MessageOf(err) != "An activity with this title already exists" {
		t.Errorf("message = %q", apperr.MessageOf(err))
	}

	// A different user may reuse the title.
	if _, err := svc.Add("u2", AddActivityInput{Title: "Mood", Type: model.TypeBoolean}); err != nil {
		t.Errorf("other user blocked: %v", err)
	}
}

func TestActivityCodeCollisionSuffix(t *testing.T) {
	svc, _ := newActivityService()

	// Same derived code, different titles.
	a1, err := svc.Add("u1", AddActivityInput{Title: "Run!", Type: model.TypeBoolean})
	if err != nil {
		t.Fatal(err)
	}
	a2, err := svc.Add("u1", AddActivityInput{Title: "R u n", Type: model.TypeBoolean})
	if err != nil {
		t.Fatal(err)
	}
	if a1.Code != "RUN" || a2.Code != "RUN2" {
		t.Errorf("codes = %q, %q; want RUN, RUN2", a1.Code, a2.Code)
	}

	a3, err := svc.Add("u1", AddActivityInput{Title: "R-u-n", Type: model.TypeBoolean})
	if err != nil {
		t.Fatal(err)
	}
	if a3.Code != "RUN3" {
		t.Errorf("third code = %q, want RUN3", a3.Code)
	}
}

func TestActivityScaleMaxClamp(t *testing.T) {
	svc, _ := newActivityService()

	tests := []struct {
		max  int
		want int
	}{
		{0, model.ScaleDefault},
		{1, model.ScaleMin},
		{7, 7},
		{50, model.ScaleMax},
	}
	for i, tt := range tests {
		a, err := svc.Add("u1", AddActivityInput{Title: string(rune('A' + i)), Type: model.TypeScale, Max: tt.max})
		if err != nil {
			t.Fatal(err)
		}
		if a.Max != tt.want {
			t.Errorf("max %d clamped to %d, want %d", tt.max, a.Max, tt.want)
		}
	}
}

func TestActivityOptionsDeduped(t *testing.T) {
	svc, _ := newActivityService()

	a, err := svc.Add("u1", AddActivityInput{
		Title:   "Meals",
		Type:    model.TypeOptions,
		Options: []string{"Healthy", " Healthy ", "Mixed", "", "Mixed"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Options) != 2 || a.Options[0] != "Healthy" || a.Options[1] != "Mixed" {
		t.Errorf("options = %v", a.Options)
	}
}

func TestActivityAddFromTemplate(t *testing.T) {
	svc, _ := newActivityService()

	a, err := svc.AddFromTemplate("u1", "SYMPTOMS")
	if err != nil {
		t.Fatal(err)
	}
	if a.Type != model.TypeMultiSelect || len(a.Options) != 5 {
		t.Errorf("template activity = %+v", a)
	}

	_, err = svc.AddFromTemplate("u1", "NOPE")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("unknown template kind = %v", apperr.KindOf(err))
	}

	// Adding the same template twice trips the duplicate title guard.
	_, err = svc.AddFromTemplate("u1", "SYMPTOMS")
	if apperr.KindOf(err) != apperr.KindDuplicate {
		t.Errorf("second add kind = %v, want duplicate", apperr.KindOf(err))
	}
}

func TestActivityDeleteCascadesAnswers(t *testing.T) {
	entries := newFakeEntryRepo()
	repo := &fakeActivityRepo{entries: entries}
	svc := NewActivityService(repo)

	a, err := svc.Add("u1", AddActivityInput{Title: "Exercise", Type: model.TypeBoolean})
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Add("u1", AddActivityInput{Title: "Mood", Type: model.TypeScale})
	if err != nil {
		t.Fatal(err)
	}

	entries.Save(&model.Entry{
		UserID: "u1",
		Date:   "2024-03-10",
		Answers: model.AnswerMap{
			a.ID: model.BoolAnswer(true),
			b.ID: model.ScaleAnswer(3),
		},
	})

	if err := svc.Delete("u1", a.ID); err != nil {
		t.Fatal(err)
	}

	saved, _ := entries.GetByDate("u1", "2024-03-10")
	if _, ok := saved.Answers[a.ID]; ok {
		t.Error("deleted activity's answer still present")
	}
	if _, ok := saved.Answers[b.ID]; !ok {
		t.Error("unrelated answer removed")
	}

	err = svc.Delete("u1", a.ID)
	if apperr.KindOf(err) != apperr.KindNotFound || apperr.MessageOf(err) != "Activity not found" {
		t.Errorf("second delete = %v", err)
	}
}

func TestActivityDeleteAll(t *testing.T) {
	entries := newFakeEntryRepo()
	repo := &fakeActivityRepo{entries: entries}
	svc := NewActivityService(repo)

	a, _ := svc.Add("u1", AddActivityInput{Title: "One", Type: model.TypeBoolean})
	svc.Add("u1", AddActivityInput{Title: "Two", Type: model.TypeBoolean})
	svc.Add("u2", AddActivityInput{Title: "Other", Type: model.TypeBoolean})

	entries.Save(&model.Entry{
		UserID:  "u1",
		Date:    "2024-03-10",
		Answers: model.AnswerMap{a.ID: model.BoolAnswer(true)},
	})

	deleted, err := svc.DeleteAll("u1")
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	left, _ := svc.List("u1")
	if len(left) != 0 {
		t.Errorf("catalog not cleared: %v", left)
	}
	others, _ := svc.List("u2")
	if len(others) != 1 {
		t.Errorf("other user's catalog touched: %v", others)
	}

	saved, _ := entries.GetByDate("u1", "2024-03-10")
	if len(saved.Answers) != 0 {
		t.Errorf("answers not cleared: %v", saved.Answers)
	}
}

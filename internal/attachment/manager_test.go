package attachment

import (
	"testing"

	"github.com/user/track-daily/internal/model"
)

func TestManagerStageAndView(t *testing.T) {
	previews := NewPreviewStore("/previews")
	m := NewManager(previews)

	persisted := []model.Attachment{{Name: "saved.png"}}
	view, rejections := m.Stage("u1", "2024-03-10", persisted, []BatchFile{
		pngFile("new.png", 10),
		{Name: "bad.zip", ContentType: "application/zip", Data: []byte{1}},
	})

	if len(rejections) != 1 {
		t.Errorf("rejections = %v", rejections)
	}
	if len(view.Persisted) != 1 || len(view.Staged) != 1 {
		t.Fatalf("view = %+v", view)
	}
	if view.Staged[0].Name != "new.png" || view.Staged[0].PreviewURL == "" {
		t.Errorf("staged view = %+v", view.Staged[0])
	}

	// Staged files survive across requests.
	again := m.View("u1", "2024-03-10", persisted)
	if len(again.Staged) != 1 {
		t.Errorf("staged lost between requests: %+v", again)
	}

	// Another user's session is independent.
	other := m.View("u2", "2024-03-10", nil)
	if len(other.Staged) != 0 {
		t.Errorf("sessions leaked across users: %+v", other)
	}
}

func TestManagerRemoveStaged(t *testing.T) {
	previews := NewPreviewStore("/previews")
	m := NewManager(previews)

	m.Stage("u1", "2024-03-10", nil, []BatchFile{pngFile("a.png", 1)})

	if m.RemoveStaged("u1", "2024-03-10", 5) {
		t.Error("out-of-range removal reported success")
	}
	if !m.RemoveStaged("u1", "2024-03-10", 0) {
		t.Fatal("removal failed")
	}
	if previews.Len() != 0 {
		t.Errorf("preview not released: %d", previews.Len())
	}
	if m.RemoveStaged("u1", "2024-03-11", 0) {
		t.Error("removal on a date with no session reported success")
	}
}

func TestManagerTakeDetaches(t *testing.T) {
	previews := NewPreviewStore("/previews")
	m := NewManager(previews)

	m.Stage("u1", "2024-03-10", nil, []BatchFile{pngFile("a.png", 1)})

	s := m.Take("u1", "2024-03-10")
	if s == nil || len(s.StagedFiles()) != 1 {
		t.Fatalf("taken session = %v", s)
	}
	defer s.Close()

	if m.Take("u1", "2024-03-10") != nil {
		t.Error("session still present after Take")
	}
	if again := m.View("u1", "2024-03-10", nil); len(again.Staged) != 0 {
		t.Errorf("view after Take = %+v", again)
	}
}

func TestManagerRestore(t *testing.T) {
	previews := NewPreviewStore("/previews")
	m := NewManager(previews)

	m.Stage("u1", "2024-03-10", nil, []BatchFile{pngFile("a.png", 1)})
	s := m.Take("u1", "2024-03-10")

	// Files staged while the session was out are kept behind the
	// restored ones.
	m.Stage("u1", "2024-03-10", nil, []BatchFile{pngFile("b.png", 1)})
	m.Restore("u1", "2024-03-10", s)

	view := m.View("u1", "2024-03-10", nil)
	if len(view.Staged) != 2 || view.Staged[0].Name != "a.png" || view.Staged[1].Name != "b.png" {
		t.Fatalf("staged after restore = %+v", view.Staged)
	}
	if previews.Len() != 2 {
		t.Errorf("previews = %d, want 2", previews.Len())
	}

	// An emptied session is not re-registered.
	drained := m.Take("u1", "2024-03-10")
	drained.RemoveStaged(0)
	drained.RemoveStaged(0)
	m.Restore("u1", "2024-03-10", drained)
	if after := m.View("u1", "2024-03-10", nil); len(after.Staged) != 0 {
		t.Errorf("empty restore staged = %+v", after.Staged)
	}

	m.Restore("u1", "2024-03-10", nil) // nil is a no-op
}

func TestManagerDiscard(t *testing.T) {
	previews := NewPreviewStore("/previews")
	m := NewManager(previews)

	m.Stage("u1", "2024-03-10", nil, []BatchFile{pngFile("a.png", 1)})
	m.Discard("u1", "2024-03-10")

	if previews.Len() != 0 {
		t.Errorf("discard leaked previews: %d", previews.Len())
	}
	if m.Take("u1", "2024-03-10") != nil {
		t.Error("session still present after Discard")
	}
	m.Discard("u1", "2024-03-10") // no session is a no-op
}

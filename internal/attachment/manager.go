package attachment

import (
	"sync"
	"time"

	"github.com/user/track-daily/internal/model"
)

// SessionTTL is how long an idle staging session survives before its
// previews are released.
const SessionTTL = 30 * time.Minute

// Manager keeps the staging session of each (user, date) being edited,
// so picked files and their preview URLs survive between requests until
// the entry is saved or the edit is abandoned. Idle sessions are expired
// by a janitor so abandoned edits cannot pin payloads forever.
type Manager struct {
	previews *PreviewStore

	mu       sync.Mutex
	sessions map[string]*managedSession
}

type managedSession struct {
	session *Session
	touched time.Time
}

// StagedView describes one staged file for API responses; the payload
// itself never leaves the server.
type StagedView struct {
	Name        string `json:"name"`
	ContentType string `json:"type"`
	Size        int64  `json:"size"`
	PreviewURL  string `json:"previewUrl"`
}

// SessionView is the API-facing snapshot of an editing session.
type SessionView struct {
	Persisted []model.Attachment `json:"persisted"`
	Staged    []StagedView       `json:"staged"`
}

// NewManager creates a Manager and starts its expiry janitor.
func NewManager(previews *PreviewStore) *Manager {
	m := &Manager{
		previews: previews,
		sessions: make(map[string]*managedSession),
	}
	go m.janitor()
	return m
}

func sessionKey(userID, date string) string { return userID + "/" + date }

// Stage adds picked files to the session of (user, date), creating it
// over the entry's persisted attachments if this is the first pick.
// Returns the resulting view and the per-file rejections.
func (m *Manager) Stage(userID, date string, persisted []model.Attachment, files []BatchFile) (SessionView, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey(userID, date)
	ms, ok := m.sessions[key]
	if !ok {
		ms = &managedSession{session: NewSession(persisted, m.previews)}
		m.sessions[key] = ms
	}
	ms.touched = time.Now()

	_, rejections := ms.session.AddBatch(files)
	return viewOf(ms.session, persisted), rejections
}

// View snapshots the session of (user, date). Without a session the view
// holds only the persisted attachments.
func (m *Manager) View(userID, date string, persisted []model.Attachment) SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, ok := m.sessions[sessionKey(userID, date)]
	if !ok {
		return SessionView{Persisted: append([]model.Attachment{}, persisted...), Staged: []StagedView{}}
	}
	ms.touched = time.Now()
	return viewOf(ms.session, persisted)
}

// RemoveStaged drops one staged file, releasing its preview URL.
func (m *Manager) RemoveStaged(userID, date string, index int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, ok := m.sessions[sessionKey(userID, date)]
	if !ok || index < 0 || index >= len(ms.session.StagedFiles()) {
		return false
	}
	ms.touched = time.Now()
	ms.session.RemoveStaged(index)
	return true
}

// Take detaches and returns the session for a save, or nil when nothing
// was staged. The caller owns the returned session.
func (m *Manager) Take(userID, date string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey(userID, date)
	ms, ok := m.sessions[key]
	if !ok {
		return nil
	}
	delete(m.sessions, key)
	return ms.session
}

// Restore puts a taken session back under its key, so staged files
// survive a save that failed mid-upload and are there for the retry.
// Files staged by the user in the meantime are folded in behind the
// restored ones.
func (m *Manager) Restore(userID, date string, s *Session) {
	if s == nil {
		return
	}
	if len(s.StagedFiles()) == 0 {
		s.Close()
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey(userID, date)
	if ms, ok := m.sessions[key]; ok {
		s.Merge(ms.session)
	}
	m.sessions[key] = &managedSession{session: s, touched: time.Now()}
}

// Discard drops the session and releases every staged preview, the
// navigate-away path.
func (m *Manager) Discard(userID, date string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey(userID, date)
	if ms, ok := m.sessions[key]; ok {
		ms.session.Close()
		delete(m.sessions, key)
	}
}

func (m *Manager) janitor() {
	for {
		time.Sleep(time.Minute)
		m.mu.Lock()
		for key, ms := range m.sessions {
			if time.Since(ms.touched) > SessionTTL {
				ms.session.Close()
				delete(m.sessions, key)
			}
		}
		m.mu.Unlock()
	}
}

// viewOf snapshots a session, preferring the caller's fresh persisted
// list over the one captured when the session was created.
func viewOf(s *Session, persisted []model.Attachment) SessionView {
	if persisted == nil {
		persisted = s.Persisted()
	}
	view := SessionView{
		Persisted: append([]model.Attachment{}, persisted...),
		Staged:    make([]StagedView, 0, len(s.StagedFiles())),
	}
	for _, st := range s.StagedFiles() {
		view.Staged = append(view.Staged, StagedView{
			Name:        st.Name,
			ContentType: st.ContentType,
			Size:        st.Size,
			PreviewURL:  st.PreviewURL,
		})
	}
	return view
}

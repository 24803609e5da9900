package attachment

import (
	"sync"

	"github.com/google/uuid"
)

// PreviewStore hands out short-lived preview URLs for staged files. Every
// allocated preview holds the file payload in memory until its release
// hook runs, so sessions must release what they allocate.
type PreviewStore struct {
	basePath string

	mu       sync.Mutex
	payloads map[string]previewPayload
}

type previewPayload struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewPreviewStore creates a store serving previews under basePath
// (e.g. "/api/v1/previews").
func NewPreviewStore(basePath string) *PreviewStore {
	return &PreviewStore{
		basePath: basePath,
		payloads: make(map[string]previewPayload),
	}
}

// Allocate registers a payload and returns its preview URL together with
// the release hook that frees it.
func (p *PreviewStore) Allocate(name, contentType string, data []byte) (url string, release func()) {
	token := uuid.New().String()

	p.mu.Lock()
	p.payloads[token] = previewPayload{Name: name, ContentType: contentType, Data: data}
	p.mu.Unlock()

	var once sync.Once
	return p.basePath + "/" + token, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.payloads, token)
			p.mu.Unlock()
		})
	}
}

// Get resolves a preview token to its payload.
func (p *PreviewStore) Get(token string) (name, contentType string, data []byte, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pl, ok := p.payloads[token]
	if !ok {
		return "", "", nil, false
	}
	return pl.Name, pl.ContentType, pl.Data, true
}

// Len reports how many previews are currently held.
func (p *PreviewStore) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

// Package attachment manages the files of one entry-editing session: the
// staged files a user has picked but not yet saved, alongside the
// references already persisted on the entry. The collection is bounded to
// model.MaxAttachments across both groups.
package attachment

import (
	"fmt"
	"strings"

	"github.com/user/track-daily/internal/apperr"
	"github.com/user/track-daily/internal/model"
)

// MaxFileSize is the per-file upload limit.
const MaxFileSize = 5 << 20 // 5MB

// User-facing rejection messages. Each rejection reason gets its own.
const (
	MsgTooManyFiles = "You can attach up to 5 files per entry"
	MsgBadFileType  = "File type not supported (images, PDF, DOC or plain text only)"
	MsgFileTooLarge = "File is too large (max 5MB per file)"
)

var allowedDocTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

// AllowedContentType reports whether ct may be attached to an entry.
func AllowedContentType(ct string) bool {
	return strings.HasPrefix(ct, "image/") || allowedDocTypes[ct]
}

// Extension maps a declared content type to the storage key extension.
func Extension(ct string) string {
	switch {
	case strings.HasPrefix(ct, "image/"):
		sub := strings.TrimPrefix(ct, "image/")
		// "svg+xml" and friends: the extension is the bare subtype.
		if i := strings.IndexByte(sub, '+'); i >= 0 {
			sub = sub[:i]
		}
		if sub != "" {
			return sub
		}
		return "jpg"
	case ct == "application/pdf":
		return "pdf"
	case ct == "application/msword",
		ct == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "doc"
	case ct == "text/plain":
		return "txt"
	default:
		return "file"
	}
}

// Staged is a picked-but-unsaved file: it still owns its payload and a
// preview handle that must be released when the file leaves the session.
type Staged struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte

	PreviewURL string
	release    func()
}

// Session tracks the attachments of one entry edit. Not safe for
// concurrent use; each save request builds its own.
type Session struct {
	previews  *PreviewStore
	persisted []model.Attachment
	staged    []*Staged
}

// NewSession starts a session over the entry's already-persisted
// attachments. previews may be nil when no preview URLs are needed.
func NewSession(persisted []model.Attachment, previews *PreviewStore) *Session {
	return &Session{
		previews:  previews,
		persisted: append([]model.Attachment{}, persisted...),
	}
}

// Total counts persisted plus staged attachments.
func (s *Session) Total() int { return len(s.persisted) + len(s.staged) }

// Persisted returns the current persisted references.
func (s *Session) Persisted() []model.Attachment { return s.persisted }

// StagedFiles returns the files awaiting upload, in selection order.
func (s *Session) StagedFiles() []*Staged { return s.staged }

// Add stages one file. It is rejected, with a distinct message per
// reason, when the session is full, the type is not allowed or the file
// is too large. A rejected file leaves the session untouched.
func (s *Session) Add(name, contentType string, data []byte) error {
	if s.Total() >= model.MaxAttachments {
		return apperr.New(apperr.KindValidation, MsgTooManyFiles)
	}
	if !AllowedContentType(contentType) {
		return apperr.New(apperr.KindValidation, MsgBadFileType)
	}
	if int64(len(data)) > MaxFileSize {
		return apperr.New(apperr.KindValidation, MsgFileTooLarge)
	}

	st := &Staged{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}
	if s.previews != nil {
		st.PreviewURL, st.release = s.previews.Allocate(name, contentType, data)
	}
	s.staged = append(s.staged, st)
	return nil
}

// AddBatch stages every acceptable file of the batch and reports the
// rejections. A partially invalid batch still accepts its valid subset.
func (s *Session) AddBatch(files []BatchFile) (accepted int, rejections []string) {
	for _, file := range files {
		if err := s.Add(file.Name, file.ContentType, file.Data); err != nil {
			rejections = append(rejections, fmt.Sprintf("%s: %s", file.Name, apperr.MessageOf(err)))
			continue
		}
		accepted++
	}
	return accepted, rejections
}

// BatchFile is one candidate file of an AddBatch call.
type BatchFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Merge moves every staged file of other into s, re-running the
// capacity check against s's persisted set. Files that no longer fit are
// released and reported. other is left empty.
func (s *Session) Merge(other *Session) (rejections []string) {
	if other == nil {
		return nil
	}
	for _, st := range other.staged {
		if s.Total() >= model.MaxAttachments {
			name := st.Name
			st.free()
			rejections = append(rejections, fmt.Sprintf("%s: %s", name, MsgTooManyFiles))
			continue
		}
		s.staged = append(s.staged, st)
	}
	other.staged = nil
	return rejections
}

// RemoveStaged drops the staged file at index i and releases its preview
// handle. Out-of-range indexes are ignored.
func (s *Session) RemoveStaged(i int) {
	if i < 0 || i >= len(s.staged) {
		return
	}
	s.staged[i].free()
	s.staged = append(s.staged[:i], s.staged[i+1:]...)
}

// MarkUploaded converts the staged file at index 0 into a persisted
// reference after its upload succeeded. Uploads run in selection order,
// so the head of the staged list is always the one in flight.
func (s *Session) MarkUploaded(att model.Attachment) {
	if len(s.staged) == 0 {
		return
	}
	s.staged[0].free()
	s.staged = s.staged[1:]
	s.persisted = append(s.persisted, att)
}

// Close releases the preview handle of every remaining staged file.
// Safe to defer right after NewSession.
func (s *Session) Close() {
	for _, st := range s.staged {
		st.free()
	}
	s.staged = nil
}

func (st *Staged) free() {
	if st.release != nil {
		st.release()
		st.release = nil
	}
	st.Data = nil
}

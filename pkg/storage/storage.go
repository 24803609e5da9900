// Package storage abstracts the blob store holding entry attachments.
package storage

import (
	"context"
	"io"
)

// Store uploads and deletes attachment objects. Keys follow
// notes/{userID}/{fileID}.{ext}.
type Store interface {
	// Upload writes the object and returns its public URL.
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	// Delete removes the object. A missing object is not an error: the
	// caller still needs the database reference cleaned up.
	Delete(ctx context.Context, key string) error
}

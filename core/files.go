package core

import (
	"context"
	"io"
)

// FileStorage is any service that can store and delete binary objects.
// The application never interprets file contents; it only keeps URLs around.
type FileStorage interface {
	// Save stores the content of r under a name derived from suggestedName
	// and returns the URL the object is reachable at.
	Save(ctx context.Context, r io.Reader, suggestedName string) (url string, err error)

	// Delete removes the object at url. Deletion is best-effort: callers are
	// expected to log failures and move on, never to abort on them.
	Delete(ctx context.Context, url string) error
}

// Package evidence stores uploaded photo evidence and returns the public
// URL where it can be viewed. The primary backend is a remote media
// service; a local disk store keeps uploads working when the media service
// is down.
package evidence

import "context"

// Store persists a single evidence file and returns its public URL.
type Store interface {
	Store(ctx context.Context, filename, mimeType string, data []byte) (string, error)
}

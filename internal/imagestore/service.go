// Package imagestore models the external image host the clinic's images live
// on. The record in Postgres is the source of truth; the host is best-effort.
package imagestore

import "context"

type Service interface {
	// Upload pushes one image to the host and returns its hosted URL.
	Upload(ctx context.Context, filename string, data []byte) (string, error)
	// Delete removes a previously uploaded image by its hosted URL.
	Delete(ctx context.Context, url string) error
}

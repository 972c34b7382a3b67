// Package media stores user images and returns their public URLs.
package media

import (
	"context"
	"path"
	"strings"
)

// Uploader stores images referenced by posts and profiles.
type Uploader interface {
	// Upload stores payload, a data URI or remote URL, and returns its public URL.
	Upload(ctx context.Context, payload string) (string, error)
	// Destroy removes the image previously returned by Upload.
	Destroy(ctx context.Context, imageURL string) error
}

// PublicIDFromURL returns the last path segment of imageURL without its
// extension, which is the identifier both uploaders key images by.
func PublicIDFromURL(imageURL string) string {
	if i := strings.IndexAny(imageURL, "?#"); i >= 0 {
		imageURL = imageURL[:i]
	}
	base := path.Base(strings.TrimRight(imageURL, "/"))
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return base
}

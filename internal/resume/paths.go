package resume

import (
	"fmt"
	"strings"
	"time"
)

// Category is the kind of artifact being stored.
type Category string

const (
	CategoryResume       Category = "resume"
	CategoryProfilePhoto Category = "profile"
	CategoryDocument     Category = "document"
)

// ParseCategory accepts the category names used by the API and CLI.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resume":
		return CategoryResume, nil
	case "profile", "photo", "profile-photo":
		return CategoryProfilePhoto, nil
	case "document", "documents":
		return CategoryDocument, nil
	}
	return "", fmt.Errorf("unknown storage category %q (expected resume, profile or document)", s)
}

// Clock returns the current time.
type Clock func() time.Time

// ResolveStoragePath returns where an artifact is stored:
//
//	resume    <owner>/<artifact>/resume.pdf
//	profile   <owner>/profile/photo.jpg
//	document  <owner>/documents/<artifact|document>_<unix-ms>.<ext|pdf>
//
// Only document paths depend on the clock.
func ResolveStoragePath(category Category, ownerID, artifactID, ext string, now Clock) string {
	switch category {
	case CategoryResume:
		return fmt.Sprintf("%s/%s/resume.pdf", ownerID, artifactID)
	case CategoryProfilePhoto:
		return fmt.Sprintf("%s/profile/photo.jpg", ownerID)
	default:
		docType := artifactID
		if docType == "" {
			docType = "document"
		}
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" {
			ext = "pdf"
		}
		return fmt.Sprintf("%s/documents/%s_%d.%s", ownerID, docType, now().UnixMilli(), ext)
	}
}

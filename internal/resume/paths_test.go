package resume

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ms int64) Clock {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestResolveStoragePath(t *testing.T) {
	clock := fixedClock(1700000000000)

	tests := []struct {
		name       string
		category   Category
		artifactID string
		ext        string
		want       string
	}{
		{"resume", CategoryResume, "r-42", ".docx", "u1/r-42/resume.pdf"},
		{"profile photo", CategoryProfilePhoto, "ignored", ".png", "u1/profile/photo.jpg"},
		{"document", CategoryDocument, "cover-letter", ".docx", "u1/documents/cover-letter_1700000000000.docx"},
		{"document defaults", CategoryDocument, "", "", "u1/documents/document_1700000000000.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStoragePath(tt.category, "u1", tt.artifactID, tt.ext, clock))
		})
	}
}

func TestResolveStoragePathDocumentDependsOnClock(t *testing.T) {
	first := ResolveStoragePath(CategoryDocument, "u1", "cv", "pdf", fixedClock(1))
	second := ResolveStoragePath(CategoryDocument, "u1", "cv", "pdf", fixedClock(2))
	assert.NotEqual(t, first, second)

	resumeA := ResolveStoragePath(CategoryResume, "u1", "r1", "", fixedClock(1))
	resumeB := ResolveStoragePath(CategoryResume, "u1", "r1", "", fixedClock(2))
	assert.Equal(t, resumeA, resumeB)
}

func TestParseCategory(t *testing.T) {
	for input, want := range map[string]Category{
		"resume":    CategoryResume,
		"Profile":   CategoryProfilePhoto,
		"photo":     CategoryProfilePhoto,
		"documents": CategoryDocument,
	} {
		got, err := ParseCategory(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}

	_, err := ParseCategory("avatar")
	assert.Error(t, err)
}

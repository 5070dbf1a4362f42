package catalog

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryFromMIME(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"application/pdf", "pdf"},
		{"image/png", "image"},
		{"IMAGE/JPEG", "image"},
		{"application/vnd.openxmlformats-officedocument.presentationml.presentation", "presentation"},
		{"application/vnd.ms-powerpoint", "presentation"},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "spreadsheet"},
		{"application/vnd.ms-excel", "spreadsheet"},
		{"application/zip", "archive"},
		{"application/x-rar-compressed", "archive"},
		{"text/plain", "document"},
		{"", "document"},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryFromMIME(tt.mime))
		})
	}
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", "a"}, ParseTags(" a, b,,c , a"))
	assert.Equal(t, []string{}, ParseTags(""))
	assert.Equal(t, []string{}, ParseTags(" , ,"))
}

func TestPlaceholderSize(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 100; i++ {
		n := PlaceholderSize(r)
		assert.GreaterOrEqual(t, n, int64(100000))
		assert.Less(t, n, int64(5100000))
	}
	assert.GreaterOrEqual(t, PlaceholderSize(nil), int64(100000))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatSize(0))
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.0 MiB", FormatSize(1048576))
	assert.Equal(t, "2.4 MiB", FormatSize(2547200))
}

func TestDraftFromUpload(t *testing.T) {
	in := DraftFromUpload(" slides.pptx ", "application/vnd.ms-powerpoint", 4096)

	assert.Equal(t, "slides.pptx", in.Name)
	assert.Equal(t, "presentation", in.Category)
	assert.Equal(t, "presentation", in.Type)
	assert.Equal(t, int64(4096), in.Size)
	assert.NotNil(t, in.Tags)
	assert.False(t, in.IsFavorite)
}

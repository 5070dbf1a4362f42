package catalog

import (
	"math/rand/v2"
	"strings"

	"github.com/dustin/go-humanize"

	"doccatalog/internal/model"
)

const (
	placeholderMin  = 100000
	placeholderSpan = 5000000
)

// CategoryFromMIME maps a MIME type to a category id. Unrecognized types
// fall back to "document".
func CategoryFromMIME(mime string) string {
	mime = strings.ToLower(mime)
	switch {
	case strings.Contains(mime, "pdf"):
		return "pdf"
	case strings.Contains(mime, "image"):
		return "image"
	case strings.Contains(mime, "presentation"), strings.Contains(mime, "powerpoint"):
		return "presentation"
	case strings.Contains(mime, "spreadsheet"), strings.Contains(mime, "excel"):
		return "spreadsheet"
	case strings.Contains(mime, "zip"), strings.Contains(mime, "rar"):
		return "archive"
	default:
		return "document"
	}
}

// ParseTags splits a comma separated list, trimming blanks and dropping
// empty entries. Order and duplicates are kept.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// PlaceholderSize returns a synthetic byte count for entries created without
// a file.
func PlaceholderSize(r *rand.Rand) int64 {
	if r == nil {
		return placeholderMin + rand.Int64N(placeholderSpan)
	}
	return placeholderMin + r.Int64N(placeholderSpan)
}

// FormatSize renders a byte count for display, e.g. "2.4 MiB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}

// DraftFromUpload pre-fills a DocumentInput from an uploaded file's
// metadata. The file content is never read.
func DraftFromUpload(filename, mime string, size int64) model.DocumentInput {
	cat := CategoryFromMIME(mime)
	return model.DocumentInput{
		Name:     strings.TrimSpace(filename),
		Type:     cat,
		Size:     size,
		Tags:     []string{},
		Category: cat,
	}
}

package catalog

import (
	"time"

	"doccatalog/internal/model"
)

func strPtr(s string) *string { return &s }

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// SeedDocuments returns the sample collection used when nothing has been
// persisted yet.
func SeedDocuments() []model.Document {
	return []model.Document{
		{
			ID:          "1",
			Name:        "Annual_report_2024.pdf",
			Type:        "pdf",
			Size:        2547200,
			CreatedAt:   day("2024-01-15"),
			ModifiedAt:  day("2024-01-20"),
			Tags:        []string{"report", "annual", "2024"},
			Category:    "pdf",
			Description: strPtr("Company annual report for 2024"),
			IsFavorite:  true,
		},
		{
			ID:          "2",
			Name:        "Project_presentation.pptx",
			Type:        "presentation",
			Size:        5242880,
			CreatedAt:   day("2024-01-10"),
			ModifiedAt:  day("2024-01-18"),
			Tags:        []string{"presentation", "project"},
			Category:    "presentation",
			Description: strPtr("Kick-off deck for the new project"),
		},
		{
			ID:          "3",
			Name:        "Budget_2024.xlsx",
			Type:        "spreadsheet",
			Size:        1048576,
			CreatedAt:   day("2024-01-05"),
			ModifiedAt:  day("2024-01-25"),
			Tags:        []string{"budget", "finance", "2024"},
			Category:    "spreadsheet",
			Description: strPtr("Forecast budget for 2024"),
			IsFavorite:  true,
		},
	}
}

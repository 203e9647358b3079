package services_test

import (
	"bytes"
	"encoding/base64"
	"time"

	"github.com/reviewbridge/reviewbridge-api/internal/models"
	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

// pngPayload is a base64 body whose magic bytes sniff as image/png
func pngPayload() string {
	data := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)
	return base64.StdEncoding.EncodeToString(data)
}

func validSubmission() *models.ReviewSubmission {
	return &models.ReviewSubmission{
		ProductID:       42,
		Rating:          4,
		Title:           "Great fit",
		Body:            "Soft fabric, true to size.",
		AuthorName:      "Sam",
		AuthorEmail:     "sam@example.com",
		IsVerifiedBuyer: true,
		FitRating:       3,
	}
}

func approvedRecord(id string, rating int) *models.ReviewRecord {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.ReviewRecord{
		ID:          id,
		Status:      "ACTIVE",
		ProductID:   int64Ptr(42),
		Rating:      intPtr(rating),
		Title:       "t",
		AuthorName:  "a",
		AuthorEmail: "a@example.com",
		IsApproved:  boolPtr(true),
		CreatedAt:   &created,
	}
}

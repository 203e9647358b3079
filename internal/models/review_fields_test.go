package models

import (
	"testing"
	"time"

	"github.com/reviewbridge/reviewbridge-api/pkg/shopify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

func sampleSubmission() *ReviewSubmission {
	return &ReviewSubmission{
		ProductID:         8123456789,
		Rating:            4,
		Title:             "Great fit",
		Body:              "Runs true to size, soft fabric.",
		AuthorName:        "Sam",
		AuthorEmail:       "sam@example.com",
		IsVerifiedBuyer:   true,
		AgeRange:          "25-34",
		SizePurchased:     "M",
		FitRating:         3,
		ShippingRating:    intPtr(5),
		RecommendsProduct: boolPtr(true),
	}
}

func asMetaobject(fields []shopify.Field) *shopify.Metaobject {
	return &shopify.Metaobject{ID: "gid://shopify/Metaobject/1", Handle: "review-x", Fields: fields}
}

func TestReviewFields_Encoding(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.FixedZone("CET", 3600))
	sub := sampleSubmission()
	sub.ShippingRating = nil
	sub.RecommendsProduct = nil

	fields := ReviewFields(sub, MediaRefs{}, createdAt)
	got := asMetaobject(fields).FieldMap()

	assert.Equal(t, "8123456789", got[FieldProductID])
	assert.Equal(t, "4", got[FieldRating])
	assert.Equal(t, "true", got[FieldIsVerifiedBuyer])
	assert.Equal(t, "", got[FieldShippingRating])
	assert.Equal(t, "", got[FieldRecommendsProduct])
	assert.Equal(t, "false", got[FieldIsApproved])
	assert.Equal(t, "2026-03-14T08:26:53Z", got[FieldCreatedAt])
	assert.NotContains(t, got, FieldImage)
	assert.NotContains(t, got, FieldVideo)
	assert.Equal(t, FieldProductID, fields[0].Key)
}

func TestReviewFields_MediaRefs(t *testing.T) {
	fields := ReviewFields(sampleSubmission(), MediaRefs{ImageID: "gid://shopify/MediaImage/1"}, time.Now())
	got := asMetaobject(fields).FieldMap()

	assert.Equal(t, "gid://shopify/MediaImage/1", got[FieldImage])
	assert.NotContains(t, got, FieldVideo)
}

func TestReviewFields_RoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for _, sub := range []*ReviewSubmission{
		sampleSubmission(),
		func() *ReviewSubmission {
			s := sampleSubmission()
			s.IsVerifiedBuyer = false
			s.ShippingRating = nil
			s.RecommendsProduct = boolPtr(false)
			s.AgeRange = ""
			return s
		}(),
	} {
		rec := ReviewFromMetaobject(asMetaobject(ReviewFields(sub, MediaRefs{}, createdAt)))

		require.NotNil(t, rec.ProductID)
		assert.Equal(t, sub.ProductID, *rec.ProductID)
		require.NotNil(t, rec.Rating)
		assert.Equal(t, sub.Rating, *rec.Rating)
		assert.Equal(t, sub.Title, rec.Title)
		assert.Equal(t, sub.Body, rec.Body)
		assert.Equal(t, sub.AuthorName, rec.AuthorName)
		assert.Equal(t, sub.AuthorEmail, rec.AuthorEmail)
		require.NotNil(t, rec.IsVerifiedBuyer)
		assert.Equal(t, sub.IsVerifiedBuyer, *rec.IsVerifiedBuyer)
		assert.Equal(t, sub.AgeRange, rec.AgeRange)
		assert.Equal(t, sub.SizePurchased, rec.SizePurchased)
		require.NotNil(t, rec.FitRating)
		assert.Equal(t, sub.FitRating, *rec.FitRating)
		assert.Equal(t, sub.ShippingRating, rec.ShippingRating)
		assert.Equal(t, sub.RecommendsProduct, rec.RecommendsProduct)
		assert.Equal(t, boolPtr(false), rec.IsApproved)
		require.NotNil(t, rec.CreatedAt)
		assert.True(t, createdAt.Equal(*rec.CreatedAt))
	}
}

func TestReviewFromMetaobject_LegacyAndMalformed(t *testing.T) {
	obj := &shopify.Metaobject{
		ID: "gid://shopify/Metaobject/9",
		Fields: []shopify.Field{
			{Key: FieldRating, Value: "five"},
			{Key: FieldIsApproved, Value: "yes"},
			{Key: FieldCreatedAt, Value: "yesterday"},
			{Key: "legacy_field", Value: "ignored"},
		},
	}

	rec := ReviewFromMetaobject(obj)

	assert.Equal(t, "gid://shopify/Metaobject/9", rec.ID)
	assert.Nil(t, rec.Rating)
	assert.Nil(t, rec.ProductID)
	assert.Nil(t, rec.IsApproved)
	assert.Nil(t, rec.CreatedAt)
	assert.False(t, rec.Approved())
	assert.Equal(t, "", rec.Status)
	assert.Equal(t, "", rec.Title)
}

func TestReviewRecord_Public(t *testing.T) {
	rec := ReviewRecord{ID: "1", AuthorEmail: "a@example.com", AuthorName: "A"}

	pub := rec.Public()

	assert.Empty(t, pub.AuthorEmail)
	assert.Equal(t, "A", pub.AuthorName)
	assert.Equal(t, "a@example.com", rec.AuthorEmail)
}

func TestPatchFields(t *testing.T) {
	p := &ReviewPatch{Rating: intPtr(2), Title: strPtr("Updated"), IsApproved: boolPtr(true)}

	got := asMetaobject(PatchFields(p)).FieldMap()

	assert.Equal(t, map[string]string{
		FieldRating:     "2",
		FieldTitle:      "Updated",
		FieldIsApproved: "true",
	}, got)
	assert.False(t, p.Empty())

	assert.True(t, (&ReviewPatch{}).Empty())
	assert.False(t, (&ReviewPatch{Status: strPtr("ACTIVE")}).Empty())
}

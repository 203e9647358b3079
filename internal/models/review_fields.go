package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/reviewbridge/reviewbridge-api/pkg/shopify"
)

// Metaobject field keys of the review definition
const (
	FieldProductID         = "product_id"
	FieldRating            = "rating"
	FieldTitle             = "title"
	FieldBody              = "body"
	FieldAuthorName        = "author_name"
	FieldAuthorEmail       = "author_email"
	FieldIsVerifiedBuyer   = "is_verified_buyer"
	FieldAgeRange          = "age_range"
	FieldSizePurchased     = "size_purchased"
	FieldFitRating         = "fit_rating"
	FieldShippingRating    = "shipping_rating"
	FieldRecommendsProduct = "recommends_product"
	FieldIsApproved        = "is_approved"
	FieldCreatedAt         = "created_at"
	FieldImage             = "image"
	FieldVideo             = "video"
)

// ReviewFields encodes a submission as the metaobject field list. The review
// always starts unapproved. Media references are only written when present
// because file reference fields reject empty values.
func ReviewFields(sub *ReviewSubmission, media MediaRefs, createdAt time.Time) []shopify.Field {
	fields := []shopify.Field{
		{Key: FieldProductID, Value: strconv.FormatInt(sub.ProductID, 10)},
		{Key: FieldRating, Value: strconv.Itoa(sub.Rating)},
		{Key: FieldTitle, Value: sub.Title},
		{Key: FieldBody, Value: sub.Body},
		{Key: FieldAuthorName, Value: sub.AuthorName},
		{Key: FieldAuthorEmail, Value: sub.AuthorEmail},
		{Key: FieldIsVerifiedBuyer, Value: strconv.FormatBool(sub.IsVerifiedBuyer)},
		{Key: FieldAgeRange, Value: sub.AgeRange},
		{Key: FieldSizePurchased, Value: sub.SizePurchased},
		{Key: FieldFitRating, Value: strconv.Itoa(sub.FitRating)},
		{Key: FieldShippingRating, Value: formatOptionalInt(sub.ShippingRating)},
		{Key: FieldRecommendsProduct, Value: formatOptionalBool(sub.RecommendsProduct)},
		{Key: FieldIsApproved, Value: "false"},
		{Key: FieldCreatedAt, Value: createdAt.UTC().Format(time.RFC3339)},
	}

	if media.ImageID != "" {
		fields = append(fields, shopify.Field{Key: FieldImage, Value: media.ImageID})
	}
	if media.VideoID != "" {
		fields = append(fields, shopify.Field{Key: FieldVideo, Value: media.VideoID})
	}

	return fields
}

// ReviewFromMetaobject decodes a stored metaobject. Absent or malformed values
// never fail the decode; they come back empty or nil.
func ReviewFromMetaobject(obj *shopify.Metaobject) *ReviewRecord {
	f := obj.FieldMap()

	return &ReviewRecord{
		ID:                obj.ID,
		Handle:            obj.Handle,
		Status:            obj.Status().String(),
		ProductID:         parseInt64(f[FieldProductID]),
		Rating:            parseInt(f[FieldRating]),
		Title:             f[FieldTitle],
		Body:              f[FieldBody],
		AuthorName:        f[FieldAuthorName],
		AuthorEmail:       f[FieldAuthorEmail],
		IsVerifiedBuyer:   parseBool(f[FieldIsVerifiedBuyer]),
		AgeRange:          f[FieldAgeRange],
		SizePurchased:     f[FieldSizePurchased],
		FitRating:         parseInt(f[FieldFitRating]),
		ShippingRating:    parseInt(f[FieldShippingRating]),
		RecommendsProduct: parseBool(f[FieldRecommendsProduct]),
		IsApproved:        parseBool(f[FieldIsApproved]),
		CreatedAt:         parseTime(f[FieldCreatedAt]),
		Image:             f[FieldImage],
		Video:             f[FieldVideo],
	}
}

// PatchFields encodes the field part of a moderation patch. Status is not a
// field and is handled separately.
func PatchFields(p *ReviewPatch) []shopify.Field {
	var fields []shopify.Field
	add := func(key, value string) {
		fields = append(fields, shopify.Field{Key: key, Value: value})
	}

	if p.Rating != nil {
		add(FieldRating, strconv.Itoa(*p.Rating))
	}
	if p.Title != nil {
		add(FieldTitle, *p.Title)
	}
	if p.Body != nil {
		add(FieldBody, *p.Body)
	}
	if p.AuthorName != nil {
		add(FieldAuthorName, *p.AuthorName)
	}
	if p.IsVerifiedBuyer != nil {
		add(FieldIsVerifiedBuyer, strconv.FormatBool(*p.IsVerifiedBuyer))
	}
	if p.AgeRange != nil {
		add(FieldAgeRange, *p.AgeRange)
	}
	if p.SizePurchased != nil {
		add(FieldSizePurchased, *p.SizePurchased)
	}
	if p.FitRating != nil {
		add(FieldFitRating, strconv.Itoa(*p.FitRating))
	}
	if p.ShippingRating != nil {
		add(FieldShippingRating, strconv.Itoa(*p.ShippingRating))
	}
	if p.RecommendsProduct != nil {
		add(FieldRecommendsProduct, strconv.FormatBool(*p.RecommendsProduct))
	}
	if p.IsApproved != nil {
		add(FieldIsApproved, strconv.FormatBool(*p.IsApproved))
	}

	return fields
}

// Empty reports whether the patch changes nothing
func (p *ReviewPatch) Empty() bool {
	return len(PatchFields(p)) == 0 && p.Status == nil
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatOptionalBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func parseInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func parseInt64(s string) *int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// parseBool only accepts the two literals the encoder writes
func parseBool(s string) *bool {
	var b bool
	switch strings.TrimSpace(s) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		return nil
	}
	return &b
}

func parseTime(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &t
}

package services

import (
	"github.com/reviewbridge/reviewbridge-api/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeStats aggregates the approved records. Records without a valid
// rating count toward the total but not toward the average or histogram.
func ComputeStats(records []models.ReviewRecord) models.ReviewStats {
	stats := models.ReviewStats{
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	var ratingSum, rated int64
	for i := range records {
		r := &records[i]
		if !r.Approved() {
			continue
		}

		stats.TotalReviews++
		if r.Rating != nil && *r.Rating >= 1 && *r.Rating <= 5 {
			stats.RatingDistribution[*r.Rating]++
			ratingSum += int64(*r.Rating)
			rated++
		}
		if r.IsVerifiedBuyer != nil && *r.IsVerifiedBuyer {
			stats.VerifiedBuyers++
		}
		if r.RecommendsProduct != nil && *r.RecommendsProduct {
			stats.Recommendations++
		}
	}

	if rated > 0 {
		stats.AverageRating = decimal.NewFromInt(ratingSum).
			Div(decimal.NewFromInt(rated)).
			Round(1).
			InexactFloat64()
	}
	if stats.TotalReviews > 0 {
		stats.RecommendationRate = int(decimal.NewFromInt(int64(stats.Recommendations)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(stats.TotalReviews))).
			Round(0).
			IntPart())
	}

	return stats
}

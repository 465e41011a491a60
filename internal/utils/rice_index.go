package utils

import (
	"math"

	"ricemeet-backend/internal/domain"
)

const (
	MinScore = 0.0
	MaxScore = 100.0

	NegativeReviewDelta = -2.0
	NoShowDelta         = -5.0
	ReportDelta         = -5.0
)

// tierBand is one row of the rice index table. Lower is inclusive; Upper is
// exclusive except for the last band, which includes MaxScore.
type tierBand struct {
	Tier  domain.Tier
	Lower float64
	Upper float64
	// Share is the nominal share of the population (percent) in this band.
	Share float64
}

var tierBands = []tierBand{
	{domain.TierTeaspoon, 0, 40, 30},
	{domain.TierOneSpoonful, 40, 60, 35},
	{domain.TierWarmBowl, 60, 70, 20},
	{domain.TierFullBowl, 70, 80, 10},
	{domain.TierThiefsTable, 80, 90, 4},
	{domain.TierGoldenBowl, 90, 98.1, 0.9},
	{domain.TierLegend, 98.1, 100, 0.1},
}

// RoundScore rounds to one fractional digit.
func RoundScore(v float64) float64 {
	return math.Round(v*10) / 10
}

// ClampScore bounds v to [MinScore, MaxScore] and rounds it.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return MinScore
	}
	return RoundScore(math.Min(MaxScore, math.Max(MinScore, v)))
}

func bandIndex(value float64) int {
	for i := len(tierBands) - 1; i >= 0; i-- {
		if value >= tierBands[i].Lower {
			return i
		}
	}
	return 0
}

// TierFor returns the tier whose band contains value.
func TierFor(value float64) domain.Tier {
	return tierBands[bandIndex(ClampScore(value))].Tier
}

// PercentileRank estimates the "top X%" position of value from the fixed
// population table, interpolating linearly inside the band. This is an
// approximation, not a ranking over real users.
func PercentileRank(value float64) float64 {
	value = ClampScore(value)
	idx := bandIndex(value)
	band := tierBands[idx]

	var above float64
	for _, b := range tierBands[idx+1:] {
		above += b.Share
	}
	position := (band.Upper - value) / (band.Upper - band.Lower)
	rank := RoundScore(above + band.Share*position)
	if rank < 0.1 {
		rank = 0.1
	}
	return rank
}

// RiceIndex builds the public view of score.
func RiceIndex(score *domain.ReputationScore) *domain.RiceIndex {
	return &domain.RiceIndex{
		UserID:         score.UserID,
		Value:          score.Value,
		Tier:           TierFor(score.Value),
		PercentileRank: PercentileRank(score.Value),
	}
}

// ApplyReputationEvent updates the counters of score for ev, applies the
// band dependent delta and returns the delta actually applied after
// clamping. The band is chosen from the score before the event.
func ApplyReputationEvent(score *domain.ReputationScore, ev *domain.ReputationEvent) float64 {
	before := score.Value
	tier := TierFor(before)
	var delta float64

	switch ev.Kind {
	case domain.ReputationEventApproved:
		score.MeetupsJoined++
		if tier == domain.TierOneSpoonful {
			delta = 0.5
		}
	case domain.ReputationEventHosted:
		score.MeetupsHosted++
		if tier == domain.TierOneSpoonful {
			delta = 1.0
		}
	case domain.ReputationEventCompleted:
		score.MeetupsAttended++
		score.AttendanceStreak++
	case domain.ReputationEventReviewWritten:
		score.ReviewsWritten++
		if tier == domain.TierTeaspoon {
			delta = 0.5
		}
	case domain.ReputationEventReviewReceived:
		score.ReviewsReceived++
		if ev.Rating >= 4 {
			score.PositiveReviews++
		}
		if ev.Quality {
			score.QualityReviews++
		}
		if ev.Rating <= 2 {
			delta = NegativeReviewDelta
		} else {
			delta = reviewReceivedDelta(score, tier, ev)
		}
	case domain.ReputationEventNoShow:
		score.NoShowCount++
		score.AttendanceStreak = 0
		delta = NoShowDelta
	case domain.ReputationEventReport:
		score.ReportCount++
		delta = ReportDelta
	}

	score.Value = ClampScore(before + delta)
	return RoundScore(score.Value - before)
}

// reviewReceivedDelta is the positive contribution of a non-negative review
// for the band the reviewee currently sits in.
func reviewReceivedDelta(score *domain.ReputationScore, tier domain.Tier, ev *domain.ReputationEvent) float64 {
	clean := score.NoShowCount == 0 && score.ReportCount == 0

	switch tier {
	case domain.TierTeaspoon:
		return 0.5
	case domain.TierOneSpoonful:
		if ev.Rating >= 4 {
			return 1.0
		}
	case domain.TierWarmBowl:
		if score.AttendanceStreak >= 3 {
			return 0.8
		}
	case domain.TierFullBowl:
		var d float64
		if ev.Quality {
			d += 0.7
		}
		if ev.Rating > 4 {
			d += float64(ev.Rating-4) * 0.5
		}
		return d
	case domain.TierThiefsTable:
		if ev.Rating >= 4 && score.AttendanceStreak >= 5 && clean {
			return 0.5
		}
	case domain.TierGoldenBowl:
		if ev.Rating >= 4 && score.AttendanceStreak >= 10 && clean {
			return 0.3
		}
	case domain.TierLegend:
		if ev.Rating >= 4 && score.AttendanceStreak >= 10 && clean {
			return 0.1
		}
	}
	return 0
}

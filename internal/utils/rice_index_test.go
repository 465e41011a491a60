package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ricemeet-backend/internal/domain"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		value float64
		tier  domain.Tier
	}{
		{0, domain.TierTeaspoon},
		{39.9, domain.TierTeaspoon},
		{40.0, domain.TierOneSpoonful},
		{59.9, domain.TierOneSpoonful},
		{60.0, domain.TierWarmBowl},
		{70.0, domain.TierFullBowl},
		{80.0, domain.TierThiefsTable},
		{89.9, domain.TierThiefsTable},
		{90.0, domain.TierGoldenBowl},
		{98.0, domain.TierGoldenBowl},
		{98.1, domain.TierLegend},
		{100, domain.TierLegend},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.tier, TierFor(tt.value), "value %.1f", tt.value)
	}
}

func TestPercentileRank(t *testing.T) {
	assert.Equal(t, 100.0, PercentileRank(0))
	assert.Equal(t, 70.0, PercentileRank(40))
	assert.Equal(t, 52.5, PercentileRank(50))
	assert.Equal(t, 35.0, PercentileRank(60))
	assert.Equal(t, 0.1, PercentileRank(100))

	// Higher scores never rank worse.
	prev := PercentileRank(0)
	for v := 0.1; v <= 100; v += 0.1 {
		rank := PercentileRank(v)
		assert.LessOrEqual(t, rank, prev, "value %.1f", v)
		prev = rank
	}
}

func TestApplyReputationEvent_StaysInBounds(t *testing.T) {
	score := domain.NewReputationScore(1)
	for i := 0; i < 50; i++ {
		ApplyReputationEvent(score, domain.NewPenaltyReputationEvent(domain.PenaltyKindNoShow, int32(i), 1))
		assert.GreaterOrEqual(t, score.Value, MinScore)
	}
	assert.Equal(t, 0.0, score.Value)

	score.Value = 99.95
	score.Value = ClampScore(score.Value + 5)
	assert.Equal(t, 100.0, score.Value)
}

func TestApplyReputationEvent_Penalties(t *testing.T) {
	score := domain.NewReputationScore(1)
	score.Value = 50.0
	score.AttendanceStreak = 4

	ApplyReputationEvent(score, domain.NewPenaltyReputationEvent(domain.PenaltyKindNoShow, 1, 1))
	ApplyReputationEvent(score, domain.NewPenaltyReputationEvent(domain.PenaltyKindNoShow, 2, 1))
	delta := ApplyReputationEvent(score, domain.NewPenaltyReputationEvent(domain.PenaltyKindReport, 3, 1))

	assert.Equal(t, -5.0, delta)
	assert.Equal(t, 35.0, score.Value)
	assert.Equal(t, domain.TierTeaspoon, TierFor(score.Value))
	assert.Equal(t, int32(2), score.NoShowCount)
	assert.Equal(t, int32(1), score.ReportCount)
	assert.Equal(t, int32(0), score.AttendanceStreak)
}

func TestApplyReputationEvent_OneSpoonful(t *testing.T) {
	score := domain.NewReputationScore(1)

	for i := int32(1); i <= 3; i++ {
		ApplyReputationEvent(score, domain.NewReviewReceivedEvent(&domain.Review{ID: i, MeetupID: i, RevieweeID: 1, Rating: 5}))
	}
	ApplyReputationEvent(score, domain.NewApprovedEvent(10, 1))
	ApplyReputationEvent(score, domain.NewApprovedEvent(11, 1))

	assert.Equal(t, 44.0, score.Value)
	assert.Equal(t, domain.TierOneSpoonful, TierFor(score.Value))
	assert.Equal(t, int32(3), score.PositiveReviews)
	assert.Equal(t, int32(2), score.MeetupsJoined)
}

func TestApplyReputationEvent_BandSignals(t *testing.T) {
	review := func(rating int32, content string) *domain.ReputationEvent {
		return domain.NewReviewReceivedEvent(&domain.Review{ID: 1, RevieweeID: 1, Rating: rating, Content: content})
	}
	quality := "분위기도 좋고 시간 약속도 잘 지키는 분이라 다음에도 꼭 같이 밥 먹고 싶어요"

	t.Run("Teaspoon counts any review", func(t *testing.T) {
		s := &domain.ReputationScore{Value: 30}
		assert.Equal(t, 0.5, ApplyReputationEvent(s, review(3, "")))
		assert.Equal(t, 0.5, ApplyReputationEvent(s, domain.NewReviewWrittenEvent(&domain.Review{ID: 2, ReviewerID: 1})))
		assert.Equal(t, 0.0, ApplyReputationEvent(s, domain.NewApprovedEvent(1, 1)))
	})

	t.Run("One Spoonful ignores neutral reviews", func(t *testing.T) {
		s := &domain.ReputationScore{Value: 45}
		assert.Equal(t, 0.0, ApplyReputationEvent(s, review(3, "")))
		assert.Equal(t, 1.0, ApplyReputationEvent(s, domain.NewHostedEvent(1, 1)))
	})

	t.Run("Warm Bowl needs a streak of three", func(t *testing.T) {
		s := &domain.ReputationScore{Value: 65, AttendanceStreak: 2}
		assert.Equal(t, 0.0, ApplyReputationEvent(s, review(5, "")))
		ApplyReputationEvent(s, domain.NewCompletedEvent(1, 1))
		assert.Equal(t, 0.8, ApplyReputationEvent(s, review(5, "")))
	})

	t.Run("Full Bowl rewards quality and rating bonus", func(t *testing.T) {
		s := &domain.ReputationScore{Value: 72}
		assert.Equal(t, 0.0, ApplyReputationEvent(s, review(4, "good")))
		assert.Equal(t, 0.5, ApplyReputationEvent(s, review(5, "good")))
		assert.Equal(t, 1.2, ApplyReputationEvent(s, review(5, quality)))
	})

	t.Run("Thief's Table needs a clean record", func(t *testing.T) {
		s := &domain.ReputationScore{Value: 85, AttendanceStreak: 6, NoShowCount: 1}
		assert.Equal(t, 0.0, ApplyReputationEvent(s, review(5, "")))
		s.NoShowCount = 0
		assert.Equal(t, 0.5, ApplyReputationEvent(s, review(5, "")))
	})

	t.Run("Golden Bowl and Legend need a streak of ten", func(t *testing.T) {
		s := &domain.ReputationScore{Value: 95, AttendanceStreak: 9}
		assert.Equal(t, 0.0, ApplyReputationEvent(s, review(5, "")))
		s.AttendanceStreak = 10
		assert.Equal(t, 0.3, ApplyReputationEvent(s, review(5, "")))

		s.Value = 99.0
		assert.Equal(t, 0.1, ApplyReputationEvent(s, review(5, "")))
	})

	t.Run("Negative review applies in every band", func(t *testing.T) {
		for _, v := range []float64{10, 50, 65, 75, 85, 95, 99} {
			s := &domain.ReputationScore{Value: v}
			assert.Equal(t, -2.0, ApplyReputationEvent(s, review(2, "")), "value %.1f", v)
		}
	})
}

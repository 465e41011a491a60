package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ricemeet-backend/internal/clock"
	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/repository"
)

const maxReviewTags = 10

type reviewService struct {
	meetupRepo      repository.MeetupRepository
	participantRepo repository.ParticipantRepository
	reviewRepo      repository.ReviewRepository
	reputationSvc   ReputationService
	events          EventSink
	clock           clock.Clock
}

func NewReviewService(
	meetupRepo repository.MeetupRepository,
	participantRepo repository.ParticipantRepository,
	reviewRepo repository.ReviewRepository,
	reputationSvc ReputationService,
	events EventSink,
	clk clock.Clock,
) ReviewService {
	return &reviewService{
		meetupRepo:      meetupRepo,
		participantRepo: participantRepo,
		reviewRepo:      reviewRepo,
		reputationSvc:   reputationSvc,
		events:          events,
		clock:           clk,
	}
}

// gate runs the review preconditions in order; the first failure wins.
// Rating is checked separately because eligibility does not know it.
func (s *reviewService) gate(ctx context.Context, meetupID, reviewerID, revieweeID int32) (*domain.Meetup, error) {
	m, err := loadMeetup(ctx, s.meetupRepo, meetupID)
	if err != nil {
		return nil, err
	}
	if m.Status != domain.MeetupStatusEnded {
		return nil, domain.NewError(domain.ErrInvalidState, domain.ReasonMeetupNotEnded,
			fmt.Sprintf("reviews open once the meetup has ended, it is %s", m.Status))
	}

	reviewer, err := loadParticipant(ctx, s.participantRepo, meetupID, reviewerID)
	if err != nil {
		return nil, err
	}
	if reviewer == nil || !reviewer.IsApproved() || !reviewer.Attended {
		return nil, domain.NewError(domain.ErrForbidden, domain.ReasonNotAttended, "only attendees can write reviews")
	}

	if revieweeID == reviewerID {
		return nil, domain.NewError(domain.ErrValidation, domain.ReasonSelfReview, "cannot review yourself")
	}
	if !m.IsHost(revieweeID) {
		reviewee, err := loadParticipant(ctx, s.participantRepo, meetupID, revieweeID)
		if err != nil {
			return nil, err
		}
		if reviewee == nil || !reviewee.IsApproved() {
			return nil, domain.NewError(domain.ErrValidation, domain.ReasonInvalidReviewee,
				fmt.Sprintf("user %d did not take part in meetup %d", revieweeID, meetupID))
		}
	}

	exists, err := s.reviewRepo.Exists(ctx, meetupID, reviewerID, revieweeID)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return nil, duplicateReview()
	}
	return m, nil
}

func duplicateReview() error {
	return domain.NewError(domain.ErrDuplicateAction, domain.ReasonDuplicateReview, "you already reviewed this person for this meetup")
}

func (s *reviewService) CanReview(ctx context.Context, meetupID, reviewerID, revieweeID int32) (*domain.ReviewEligibility, error) {
	_, err := s.gate(ctx, meetupID, reviewerID, revieweeID)
	if err == nil {
		return &domain.ReviewEligibility{Allowed: true}, nil
	}
	if reason := domain.ReasonOf(err); reason != "" {
		return &domain.ReviewEligibility{Allowed: false, Reason: reason}, nil
	}
	return nil, err
}

func (s *reviewService) SubmitReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	logger.EnterMethod("reviewService.SubmitReview", "meetupID", review.MeetupID, "reviewerID", review.ReviewerID, "revieweeID", review.RevieweeID)

	m, err := s.gate(ctx, review.MeetupID, review.ReviewerID, review.RevieweeID)
	if err != nil {
		logger.ExitMethodWithError("reviewService.SubmitReview", err)
		return nil, err
	}
	if review.Rating < domain.MinRating || review.Rating > domain.MaxRating {
		return nil, domain.NewError(domain.ErrValidation, domain.ReasonInvalidRating,
			fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	review.Content = strings.TrimSpace(review.Content)
	review.Tags = normalizeTags(review.Tags)
	review.CreatedOn = s.clock.Now()

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// A concurrent submit passed the gate first.
			return nil, duplicateReview()
		}
		logger.ExitMethodWithError("reviewService.SubmitReview", err)
		return nil, fmt.Errorf("create review: %w", err)
	}

	for _, ev := range []*domain.ReputationEvent{domain.NewReviewWrittenEvent(review), domain.NewReviewReceivedEvent(review)} {
		if _, err := s.reputationSvc.Apply(ctx, ev); err != nil {
			logger.Error("Failed to apply review to reputation", "event", ev.Key, "error", err)
		}
	}

	s.events.Emit(ctx, domain.Event{
		Type:       domain.EventReviewReceived,
		MeetupID:   m.ID,
		ActorID:    review.ReviewerID,
		Recipients: []int32{review.RevieweeID},
		Title:      "New review",
		Message:    fmt.Sprintf("You received a review for %s", m.Title),
		Attributes: map[string]string{"review_id": strconv.Itoa(int(review.ID))},
	})
	logger.ExitMethod("reviewService.SubmitReview", "reviewID", review.ID)
	return review, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == maxReviewTags {
			break
		}
	}
	return out
}

func (s *reviewService) ListMeetupReviews(ctx context.Context, viewerID, meetupID int32) ([]domain.Review, error) {
	if _, err := loadMeetup(ctx, s.meetupRepo, meetupID); err != nil {
		return nil, err
	}
	reviews, err := s.reviewRepo.ListByMeetup(ctx, meetupID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return visibleTo(reviews, viewerID), nil
}

func (s *reviewService) ListUserReviews(ctx context.Context, viewerID, userID int32, page, pageSize int32) ([]domain.Review, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	reviews, total, err := s.reviewRepo.ListByReviewee(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return visibleTo(reviews, viewerID), total, nil
}

func visibleTo(reviews []domain.Review, viewerID int32) []domain.Review {
	out := make([]domain.Review, len(reviews))
	for i, r := range reviews {
		out[i] = r.VisibleTo(viewerID)
	}
	return out
}

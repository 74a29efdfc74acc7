package services

import (
	"context"
	"fmt"

	"fairride/internal/models"
	"fairride/internal/repositories/interfaces"
	"fairride/internal/utils"
	"fairride/pkg/ai"
	"fairride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RatingService finalizes completed rides with a review per direction. The
// ride's rated flag is the at-most-once guard: it is flipped before the
// review is written, so a concurrent duplicate fails on the flag, not on a
// unique index.
type RatingService struct {
	rides      interfaces.RideRepository
	users      interfaces.UserRepository
	drivers    interfaces.DriverRepository
	reviews    interfaces.ReviewRepository
	classifier ai.SentimentClassifier
	logger     *logger.Logger
}

func NewRatingService(
	rides interfaces.RideRepository,
	users interfaces.UserRepository,
	drivers interfaces.DriverRepository,
	reviews interfaces.ReviewRepository,
	classifier ai.SentimentClassifier,
	log *logger.Logger,
) *RatingService {
	return &RatingService{
		rides:      rides,
		users:      users,
		drivers:    drivers,
		reviews:    reviews,
		classifier: classifier,
		logger:     log,
	}
}

// SubmitReview rates the counterpart on a completed ride and folds the rating
// into their running average. The direction follows the reviewer's role.
// Returns the stored review and the reviewee's new average.
func (s *RatingService) SubmitReview(ctx context.Context, rideID, reviewerID primitive.ObjectID, role models.UserType, req *models.SubmitReviewRequest) (*models.Review, float64, error) {
	if req.Rating < utils.MinRating || req.Rating > utils.MaxRating {
		return nil, 0, fmt.Errorf("rating %.1f outside [%.0f, %.0f]", req.Rating, utils.MinRating, utils.MaxRating)
	}

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, 0, err
	}
	if ride.Status != models.RideStatusCompleted {
		return nil, 0, fmt.Errorf("only completed rides can be rated")
	}
	if ride.DriverID == nil {
		return nil, 0, fmt.Errorf("ride has no assigned driver")
	}

	var direction models.ReviewDirection
	var revieweeID primitive.ObjectID
	switch role {
	case models.UserTypePassenger:
		if ride.PassengerID != reviewerID {
			return nil, 0, ErrRideNotFound
		}
		direction = models.ReviewPassengerToDriver
		revieweeID = *ride.DriverID
	case models.UserTypeDriver:
		if *ride.DriverID != reviewerID {
			return nil, 0, ErrRideNotFound
		}
		direction = models.ReviewDriverToPassenger
		revieweeID = ride.PassengerID
	default:
		return nil, 0, fmt.Errorf("unsupported reviewer role %q", role)
	}

	sentiment := models.SentimentNeutral
	if req.Comment != "" {
		label, err := s.classifier.Classify(ctx, req.Comment)
		if err != nil {
			s.logger.WithError(err).WithRideID(rideID).Warn("sentiment classification failed, defaulting to neutral")
		} else {
			sentiment = models.Sentiment(label)
		}
	}

	// The flag flip is the commit point; everything after it must not be
	// retried on a duplicate submission.
	if err := s.rides.SetRated(ctx, rideID, direction); err != nil {
		return nil, 0, err
	}

	review := &models.Review{
		RideID:     rideID,
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Direction:  direction,
		Rating:     req.Rating,
		Comment:    req.Comment,
		Sentiment:  sentiment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, 0, err
	}

	var newAverage float64
	if direction == models.ReviewPassengerToDriver {
		newAverage, err = s.drivers.ApplyRating(ctx, revieweeID, req.Rating)
	} else {
		newAverage, err = s.users.ApplyRating(ctx, revieweeID, req.Rating)
	}
	if err != nil {
		return nil, 0, err
	}

	s.logger.LogRideEvent(rideID, "rated", map[string]interface{}{
		"direction":   direction,
		"rating":      req.Rating,
		"sentiment":   sentiment,
		"new_average": newAverage,
	})
	return review, newAverage, nil
}

// GetReviews lists reviews received by a user or driver.
func (s *RatingService) GetReviews(ctx context.Context, revieweeID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Review, int64, error) {
	return s.reviews.GetByReviewee(ctx, revieweeID, params)
}

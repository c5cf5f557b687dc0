package service

import (
	"context"
	"math"
	"strings"

	"github.com/smallbiznis/snelcrm/internal/billingstore"
	customerdomain "github.com/smallbiznis/snelcrm/internal/customer/domain"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/feedback/domain"
	"go.uber.org/zap"
)

func (s *Service) CreateReview(ctx context.Context, req domain.CreateReviewRequest) (domain.Review, error) {
	clientID, err := parseID(req.ClientID)
	if err != nil {
		return domain.Review{}, err
	}
	if req.Rating < domain.MinRating || req.Rating > domain.MaxRating {
		return domain.Review{}, domain.ErrRatingOutOfRange
	}
	category := domain.ReviewCategory(strings.ToUpper(strings.TrimSpace(req.Category)))
	if category == "" {
		category = domain.ReviewGeneral
	}
	if !category.Valid() {
		return domain.Review{}, domain.ErrInvalidCategory
	}
	if err := s.checkSubmitter(clientID, nil); err != nil {
		return domain.Review{}, err
	}
	if err := s.limiter.Allow(ctx, "review", clientID.String()); err != nil {
		return domain.Review{}, err
	}

	var out domain.Review
	err = s.store.Update(ctx, "review.create", func(tx *billingstore.Tx) error {
		state := tx.State()
		client, ok := state.Clients[clientID]
		if !ok {
			return customerdomain.ErrClientNotFound
		}
		meterNumber := strings.TrimSpace(req.MeterNumber)
		if meterNumber == "" {
			meterNumber = client.MeterNumber
		}

		now := s.clock.Now().UTC()
		review := &domain.Review{
			ID:          s.genID.Generate(),
			ClientID:    client.ID,
			MeterNumber: meterNumber,
			Rating:      req.Rating,
			Comment:     strings.TrimSpace(req.Comment),
			Category:    category,
			CreatedAt:   now,
		}
		state.Reviews[review.ID] = review
		tx.Touch(billingstore.KeyReviews)
		tx.Emit(events.New(events.ReviewCreated, review.ID.String(), now, map[string]int{
			"rating": review.Rating,
		}))
		out = *review
		return nil
	})
	if err != nil {
		return domain.Review{}, err
	}

	s.log.Info("review created",
		zap.String("review_id", out.ID.String()),
		zap.Int("rating", out.Rating),
		zap.String("category", string(out.Category)),
	)
	return out, nil
}

func (s *Service) ListReviews(_ context.Context, clientID string) ([]domain.Review, error) {
	id, err := optionalID(clientID)
	if err != nil {
		return nil, err
	}

	var out []domain.Review
	s.store.View(func(state *billingstore.State) {
		out = billingstore.Sorted(state.Reviews, func(r *domain.Review) bool {
			return id == 0 || r.ClientID == id
		})
	})
	return out, nil
}

// AverageRating is rounded to two decimals, zero when there are no reviews.
func (s *Service) AverageRating(context.Context) (domain.RatingSummary, error) {
	var sum, count int
	s.store.View(func(state *billingstore.State) {
		for _, r := range state.Reviews {
			sum += r.Rating
			count++
		}
	})
	if count == 0 {
		return domain.RatingSummary{}, nil
	}
	avg := float64(sum) / float64(count)
	return domain.RatingSummary{
		Average: math.Round(avg*100) / 100,
		Count:   count,
	}, nil
}

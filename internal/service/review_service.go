package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-service/internal/apperr"
	"storefront-service/internal/entity"
)

type ReviewRepository interface {
	CreateReview(ctx context.Context, review *entity.Review) (*entity.Review, error)
	GetReviewsByProduct(ctx context.Context, productID string) ([]*entity.Review, error)
}

// PurchaseHistory lists a user's orders.
type PurchaseHistory interface {
	ListOrdersByUser(ctx context.Context, userID string) ([]*entity.Order, error)
}

type Reviewer struct {
	UserID string
	Name   string
	Email  string
}

type ReviewInput struct {
	Rating  int     `json:"rating"`
	Title   *string `json:"title"`
	Comment string  `json:"comment"`
}

type ReviewSummary struct {
	Reviews       []*entity.Review `json:"reviews"`
	AverageRating float64          `json:"average_rating"`
	Count         int              `json:"count"`
}

type ReviewService struct {
	reviewRepo ReviewRepository
	products   ProductReader
	orders     PurchaseHistory
	newID      func() string
	now        func() time.Time
}

func NewReviewService(reviewRepo ReviewRepository, products ProductReader, orders PurchaseHistory) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		products:   products,
		orders:     orders,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// AverageRating is the mean rating rounded to one decimal place, 0 when
// there are no reviews.
func AverageRating(reviews []*entity.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(reviews)))).Round(1)
	return avg.InexactFloat64()
}

// reviewerName prefers the display name, then the local part of the email.
func reviewerName(r Reviewer) string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	if at := strings.Index(r.Email, "@"); at > 0 {
		return r.Email[:at]
	}
	return "Anonymous"
}

func (s *ReviewService) ListReviews(ctx context.Context, productID string) (*ReviewSummary, error) {
	reviews, err := s.reviewRepo.GetReviewsByProduct(ctx, productID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting reviews for product %s", productID)
		return nil, storeError(err, "review")
	}
	return &ReviewSummary{Reviews: reviews, AverageRating: AverageRating(reviews), Count: len(reviews)}, nil
}

func (s *ReviewService) AddReview(ctx context.Context, productID string, reviewer Reviewer, in ReviewInput) (*entity.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperr.Validation("rating", "please select a rating")
	}
	comment := strings.TrimSpace(in.Comment)
	if comment == "" {
		return nil, apperr.Validation("comment", "please write a comment")
	}
	var title *string
	if in.Title != nil {
		if t := strings.TrimSpace(*in.Title); t != "" {
			title = &t
		}
	}

	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	review := &entity.Review{
		ID:               s.newID(),
		ProductID:        productID,
		UserID:           reviewer.UserID,
		UserName:         reviewerName(reviewer),
		UserEmail:        reviewer.Email,
		Rating:           in.Rating,
		Title:            title,
		Comment:          comment,
		VerifiedPurchase: s.hasReceived(ctx, reviewer.UserID, productID),
		CreatedAt:        s.now().UTC(),
	}

	created, err := s.reviewRepo.CreateReview(ctx, review)
	if err != nil {
		logger.Error().Err(err).Msgf("Error creating review for product %s", productID)
		return nil, storeError(err, "review")
	}
	return created, nil
}

// hasReceived reports whether the user has a delivered order containing the
// product. Lookup failures count as no.
func (s *ReviewService) hasReceived(ctx context.Context, userID, productID string) bool {
	orders, err := s.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Msgf("Error checking purchases of user %s", userID)
		return false
	}
	for _, order := range orders {
		if order.OrderStatus != entity.OrderDelivered {
			continue
		}
		for _, item := range order.Items {
			if item.ProductID == productID {
				return true
			}
		}
	}
	return false
}

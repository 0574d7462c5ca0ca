package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/metrics"
	"go-inventory-ledger/pkg/validator"
)

// FeedbackService is the end-user surface: the public catalog and ratings. A feedback
// row can only be changed by its author; anything else reads as not found.
type FeedbackService interface {
	CreateFeedback(ctx context.Context, userID, productID uint, rating int, comment string) (*model.Feedback, error)
	UpdateFeedback(ctx context.Context, userID, feedbackID uint, rating int, comment string) (*model.Feedback, error)
	DeleteFeedback(ctx context.Context, userID, feedbackID uint) error
	GetFeedbackForCompany(ctx context.Context, companyID uint) ([]model.FeedbackView, error)
	GetFeedbackByUser(ctx context.Context, userID uint) ([]model.FeedbackView, error)
	GetCatalog(ctx context.Context) ([]model.CatalogItem, error)
	GetReviewAnalytics(ctx context.Context, companyID uint) (*model.ReviewAnalytics, error)
}

type feedbackService struct {
	feedbackRepo repository.FeedbackRepository
	productRepo  repository.ProductRepository
	log          zerolog.Logger
	metrics      *metrics.Metrics
	timeout      time.Duration
}

// NewFeedbackService wires the feedback surface. m may be nil.
func NewFeedbackService(feedbackRepo repository.FeedbackRepository, productRepo repository.ProductRepository, log zerolog.Logger, m *metrics.Metrics, timeout time.Duration) FeedbackService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &feedbackService{
		feedbackRepo: feedbackRepo,
		productRepo:  productRepo,
		log:          log.With().Str("component", "feedback").Logger(),
		metrics:      m,
		timeout:      timeout,
	}
}

func (s *feedbackService) fail(op string, err error) error {
	return recordFailure(s.log, s.metrics, "feedback", op, err)
}

func validateFeedback(rating int, comment string) (int, string, error) {
	rating, err := validator.ValidateRating(rating)
	if err != nil {
		return 0, "", err
	}
	comment, err = validator.ValidateComment(comment)
	if err != nil {
		return 0, "", err
	}
	return rating, comment, nil
}

func (s *feedbackService) CreateFeedback(ctx context.Context, userID, productID uint, rating int, comment string) (*model.Feedback, error) {
	const op = "create_feedback"
	if _, err := validator.ValidateID(productID); err != nil {
		return nil, s.fail(op, err)
	}
	rating, comment, err := validateFeedback(rating, comment)
	if err != nil {
		return nil, s.fail(op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.productRepo.FindPublic(ctx, productID); err != nil {
		return nil, s.fail(op, err)
	}
	feedback := &model.Feedback{ProductID: productID, UserID: userID, Rating: rating, Comment: comment}
	if err := s.feedbackRepo.Create(ctx, feedback); err != nil {
		return nil, s.fail(op, err)
	}
	s.log.Info().Uint("feedback_id", feedback.ID).Uint("product_id", productID).Msg("feedback created")
	return feedback, nil
}

func (s *feedbackService) UpdateFeedback(ctx context.Context, userID, feedbackID uint, rating int, comment string) (*model.Feedback, error) {
	const op = "update_feedback"
	if _, err := validator.ValidateID(feedbackID); err != nil {
		return nil, s.fail(op, err)
	}
	rating, comment, err := validateFeedback(rating, comment)
	if err != nil {
		return nil, s.fail(op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.feedbackRepo.UpdateOwned(ctx, feedbackID, userID, rating, comment)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if n == 0 {
		return nil, s.fail(op, model.ErrNotFound)
	}
	feedback, err := s.feedbackRepo.FindByID(ctx, feedbackID)
	return feedback, s.fail(op, err)
}

func (s *feedbackService) DeleteFeedback(ctx context.Context, userID, feedbackID uint) error {
	const op = "delete_feedback"
	if _, err := validator.ValidateID(feedbackID); err != nil {
		return s.fail(op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.feedbackRepo.DeleteOwned(ctx, feedbackID, userID)
	if err != nil {
		return s.fail(op, err)
	}
	if n == 0 {
		return s.fail(op, model.ErrNotFound)
	}
	return nil
}

func (s *feedbackService) GetFeedbackForCompany(ctx context.Context, companyID uint) ([]model.FeedbackView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	views, err := s.feedbackRepo.FindByCompany(ctx, companyID)
	if views == nil {
		views = []model.FeedbackView{}
	}
	return views, s.fail("company_feedback", err)
}

func (s *feedbackService) GetFeedbackByUser(ctx context.Context, userID uint) ([]model.FeedbackView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	views, err := s.feedbackRepo.FindByUser(ctx, userID)
	if views == nil {
		views = []model.FeedbackView{}
	}
	return views, s.fail("user_feedback", err)
}

func (s *feedbackService) GetCatalog(ctx context.Context) ([]model.CatalogItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	items, err := s.productRepo.Catalog(ctx)
	if items == nil {
		items = []model.CatalogItem{}
	}
	return items, s.fail("catalog", err)
}

// GetReviewAnalytics runs the three aggregates concurrently.
func (s *feedbackService) GetReviewAnalytics(ctx context.Context, companyID uint) (*model.ReviewAnalytics, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		averages []model.ProductRating
		buckets  []model.RatingBucket
		months   []model.MonthlyCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		averages, err = s.feedbackRepo.ProductAverages(gctx, companyID)
		return err
	})
	g.Go(func() (err error) {
		buckets, err = s.feedbackRepo.RatingDistribution(gctx, companyID)
		return err
	})
	g.Go(func() (err error) {
		months, err = s.feedbackRepo.MonthlyTrends(gctx, companyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail("review_analytics", err)
	}

	if averages == nil {
		averages = []model.ProductRating{}
	}
	if months == nil {
		months = []model.MonthlyCount{}
	}
	return &model.ReviewAnalytics{
		ProductAverages:    averages,
		RatingDistribution: model.FillRatingBuckets(buckets),
		FeedbackTrends:     months,
	}, nil
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go-inventory-ledger/internal/model"
)

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *model.Feedback) error
	FindByID(ctx context.Context, id uint) (*model.Feedback, error)
	// UpdateOwned and DeleteOwned only touch a row authored by userID and report the
	// number of rows affected.
	UpdateOwned(ctx context.Context, id, userID uint, rating int, comment string) (int64, error)
	DeleteOwned(ctx context.Context, id, userID uint) (int64, error)
	FindByCompany(ctx context.Context, companyID uint) ([]model.FeedbackView, error)
	FindByUser(ctx context.Context, userID uint) ([]model.FeedbackView, error)
	ProductAverages(ctx context.Context, companyID uint) ([]model.ProductRating, error)
	RatingDistribution(ctx context.Context, companyID uint) ([]model.RatingBucket, error)
	MonthlyTrends(ctx context.Context, companyID uint) ([]model.MonthlyCount, error)
}

type feedbackRepo struct {
	db *gorm.DB
}

func NewFeedbackRepo(db *gorm.DB) FeedbackRepository {
	return &feedbackRepo{db}
}

const feedbackViewColumns = `f.id, f.product_id, p.name AS product_name, f.user_id, u.username,
	f.rating, f.comment, f.created_at, f.updated_at`

func (r *feedbackRepo) Create(ctx context.Context, feedback *model.Feedback) error {
	return storeErr("create feedback", r.db.WithContext(ctx).Create(feedback).Error)
}

func (r *feedbackRepo) FindByID(ctx context.Context, id uint) (*model.Feedback, error) {
	var feedback model.Feedback
	if err := r.db.WithContext(ctx).First(&feedback, id).Error; err != nil {
		return nil, storeErr("find feedback", err)
	}
	return &feedback, nil
}

func (r *feedbackRepo) UpdateOwned(ctx context.Context, id, userID uint, rating int, comment string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Feedback{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"rating":     rating,
			"comment":    comment,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, storeErr("update feedback", res.Error)
}

func (r *feedbackRepo) DeleteOwned(ctx context.Context, id, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Feedback{})
	return res.RowsAffected, storeErr("delete feedback", res.Error)
}

func (r *feedbackRepo) views(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("feedback f").
		Select(feedbackViewColumns).
		Joins("JOIN products p ON p.id = f.product_id").
		Joins("JOIN users u ON u.id = f.user_id").
		Order("f.created_at DESC, f.id DESC")
}

func (r *feedbackRepo) FindByCompany(ctx context.Context, companyID uint) ([]model.FeedbackView, error) {
	var views []model.FeedbackView
	err := r.views(ctx).Where("p.company_id = ?", companyID).Scan(&views).Error
	return views, storeErr("company feedback", err)
}

func (r *feedbackRepo) FindByUser(ctx context.Context, userID uint) ([]model.FeedbackView, error) {
	var views []model.FeedbackView
	err := r.views(ctx).Where("f.user_id = ?", userID).Scan(&views).Error
	return views, storeErr("user feedback", err)
}

func (r *feedbackRepo) ProductAverages(ctx context.Context, companyID uint) ([]model.ProductRating, error) {
	var ratings []model.ProductRating
	err := r.db.WithContext(ctx).
		Table("products p").
		Select(`p.id AS product_id, p.name AS product_name,
			COALESCE(AVG(f.rating), 0)::float8 AS average_rating, COUNT(f.id) AS feedback_count`).
		Joins("LEFT JOIN feedback f ON f.product_id = p.id").
		Where("p.company_id = ?", companyID).
		Group("p.id, p.name").
		Order("p.id ASC").
		Scan(&ratings).Error
	return ratings, storeErr("product averages", err)
}

func (r *feedbackRepo) RatingDistribution(ctx context.Context, companyID uint) ([]model.RatingBucket, error) {
	var buckets []model.RatingBucket
	err := r.db.WithContext(ctx).
		Table("feedback f").
		Select("f.rating, COUNT(*) AS count").
		Joins("JOIN products p ON p.id = f.product_id").
		Where("p.company_id = ?", companyID).
		Group("f.rating").
		Order("f.rating ASC").
		Scan(&buckets).Error
	return buckets, storeErr("rating distribution", err)
}

func (r *feedbackRepo) MonthlyTrends(ctx context.Context, companyID uint) ([]model.MonthlyCount, error) {
	var months []model.MonthlyCount
	err := r.db.WithContext(ctx).
		Table("feedback f").
		Select(`TO_CHAR(f.created_at AT TIME ZONE 'UTC', 'YYYY-MM') AS month, COUNT(*) AS feedback_count`).
		Joins("JOIN products p ON p.id = f.product_id").
		Where("p.company_id = ?", companyID).
		Group("month").
		Order("month ASC").
		Scan(&months).Error
	return months, storeErr("feedback trends", err)
}

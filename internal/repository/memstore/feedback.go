package memstore

import (
	"context"
	"sort"
	"time"

	"go-inventory-ledger/internal/model"
)

type feedbackRepo struct {
	scope
}

func (r *feedbackRepo) Create(ctx context.Context, feedback *model.Feedback) error {
	return r.write(ctx, "create feedback", func(st *state, now time.Time) error {
		if _, ok := st.products[feedback.ProductID]; !ok {
			return model.ErrNotFound
		}
		if _, ok := st.users[feedback.UserID]; !ok {
			return model.ErrNotFound
		}
		st.lastFeedback++
		feedback.ID = st.lastFeedback
		feedback.CreatedAt = now
		feedback.UpdatedAt = now
		stored := *feedback
		stored.Product, stored.User = nil, nil
		st.feedback[feedback.ID] = stored
		return nil
	})
}

func (r *feedbackRepo) FindByID(ctx context.Context, id uint) (*model.Feedback, error) {
	var found model.Feedback
	err := r.read(ctx, "find feedback", func(st *state) error {
		f, ok := st.feedback[id]
		if !ok {
			return model.ErrNotFound
		}
		found = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *feedbackRepo) UpdateOwned(ctx context.Context, id, userID uint, rating int, comment string) (int64, error) {
	var affected int64
	err := r.write(ctx, "update feedback", func(st *state, now time.Time) error {
		f, ok := st.feedback[id]
		if !ok || f.UserID != userID {
			return nil
		}
		f.Rating = rating
		f.Comment = comment
		f.UpdatedAt = now
		st.feedback[id] = f
		affected = 1
		return nil
	})
	return affected, err
}

func (r *feedbackRepo) DeleteOwned(ctx context.Context, id, userID uint) (int64, error) {
	var affected int64
	err := r.write(ctx, "delete feedback", func(st *state, _ time.Time) error {
		f, ok := st.feedback[id]
		if !ok || f.UserID != userID {
			return nil
		}
		delete(st.feedback, id)
		affected = 1
		return nil
	})
	return affected, err
}

func (r *feedbackRepo) views(ctx context.Context, op string, keep func(f *model.Feedback, p *model.Product) bool) ([]model.FeedbackView, error) {
	var out []model.FeedbackView
	err := r.read(ctx, op, func(st *state) error {
		for _, f := range st.feedback {
			p, ok := st.products[f.ProductID]
			if !ok || !keep(&f, &p) {
				continue
			}
			out = append(out, model.FeedbackView{
				ID:          f.ID,
				ProductID:   f.ProductID,
				ProductName: p.Name,
				UserID:      f.UserID,
				Username:    st.users[f.UserID].Username,
				Rating:      f.Rating,
				Comment:     f.Comment,
				CreatedAt:   f.CreatedAt,
				UpdatedAt:   f.UpdatedAt,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

func (r *feedbackRepo) FindByCompany(ctx context.Context, companyID uint) ([]model.FeedbackView, error) {
	return r.views(ctx, "company feedback", func(_ *model.Feedback, p *model.Product) bool {
		return p.CompanyID == companyID
	})
}

func (r *feedbackRepo) FindByUser(ctx context.Context, userID uint) ([]model.FeedbackView, error) {
	return r.views(ctx, "user feedback", func(f *model.Feedback, _ *model.Product) bool {
		return f.UserID == userID
	})
}

func (r *feedbackRepo) ProductAverages(ctx context.Context, companyID uint) ([]model.ProductRating, error) {
	var ratings []model.ProductRating
	err := r.read(ctx, "product averages", func(st *state) error {
		sums := map[uint]int64{}
		counts := map[uint]int64{}
		for _, f := range st.feedback {
			sums[f.ProductID] += int64(f.Rating)
			counts[f.ProductID]++
		}
		for _, p := range st.products {
			if p.CompanyID != companyID {
				continue
			}
			pr := model.ProductRating{ProductID: p.ID, ProductName: p.Name, FeedbackCount: counts[p.ID]}
			if n := counts[p.ID]; n > 0 {
				pr.AverageRating = float64(sums[p.ID]) / float64(n)
			}
			ratings = append(ratings, pr)
		}
		return nil
	})
	sort.Slice(ratings, func(i, j int) bool { return ratings[i].ProductID < ratings[j].ProductID })
	return ratings, err
}

func (r *feedbackRepo) companyFeedback(st *state, companyID uint, fn func(f model.Feedback)) {
	for _, f := range st.feedback {
		if p, ok := st.products[f.ProductID]; ok && p.CompanyID == companyID {
			fn(f)
		}
	}
}

func (r *feedbackRepo) RatingDistribution(ctx context.Context, companyID uint) ([]model.RatingBucket, error) {
	counts := map[int]int64{}
	err := r.read(ctx, "rating distribution", func(st *state) error {
		r.companyFeedback(st, companyID, func(f model.Feedback) { counts[f.Rating]++ })
		return nil
	})
	if err != nil {
		return nil, err
	}
	buckets := make([]model.RatingBucket, 0, len(counts))
	for rating, n := range counts {
		buckets = append(buckets, model.RatingBucket{Rating: rating, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Rating < buckets[j].Rating })
	return buckets, nil
}

func (r *feedbackRepo) MonthlyTrends(ctx context.Context, companyID uint) ([]model.MonthlyCount, error) {
	counts := map[string]int64{}
	err := r.read(ctx, "feedback trends", func(st *state) error {
		r.companyFeedback(st, companyID, func(f model.Feedback) {
			counts[f.CreatedAt.UTC().Format("2006-01")]++
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	months := make([]model.MonthlyCount, 0, len(counts))
	for month, n := range counts {
		months = append(months, model.MonthlyCount{Month: month, FeedbackCount: n})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months, nil
}

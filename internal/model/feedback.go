package model

import "time"

// Feedback is a rating left by a user on a product. Only its author may change it.
type Feedback struct {
	BaseModel
	ProductID uint     `gorm:"not null;index" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint     `gorm:"not null;index" json:"user_id"`
	User      *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Rating    int      `gorm:"not null;check:chk_feedback_rating,rating BETWEEN 1 AND 5" json:"rating"`
	Comment   string   `gorm:"type:varchar(500)" json:"comment"`
}

// TableName specifies the table name for GORM
func (Feedback) TableName() string {
	return "feedback"
}

// FeedbackView joins a feedback row with its product name and author.
type FeedbackView struct {
	ID          uint      `json:"id"`
	ProductID   uint      `json:"product_id"`
	ProductName string    `json:"product_name"`
	UserID      uint      `json:"user_id"`
	Username    string    `json:"username"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"timestamp"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductRating struct {
	ProductID     uint    `json:"product_id"`
	ProductName   string  `json:"product_name"`
	AverageRating float64 `json:"average_rating"`
	FeedbackCount int64   `json:"feedback_count"`
}

type RatingBucket struct {
	Rating int   `json:"rating"`
	Count  int64 `json:"count"`
}

// MonthlyCount counts feedback created in one calendar month (YYYY-MM, UTC).
type MonthlyCount struct {
	Month         string `json:"month"`
	FeedbackCount int64  `json:"feedback_count"`
}

// ReviewAnalytics is a tenant's rating overview.
type ReviewAnalytics struct {
	ProductAverages    []ProductRating `json:"product_averages"`
	RatingDistribution []RatingBucket  `json:"rating_distribution"`
	FeedbackTrends     []MonthlyCount  `json:"feedback_trends"`
}

// FillRatingBuckets returns one bucket per star value 1..5, zero-filled.
func FillRatingBuckets(counts []RatingBucket) []RatingBucket {
	buckets := make([]RatingBucket, 5)
	for i := range buckets {
		buckets[i].Rating = i + 1
	}
	for _, c := range counts {
		if c.Rating >= 1 && c.Rating <= 5 {
			buckets[c.Rating-1].Count += c.Count
		}
	}
	return buckets
}

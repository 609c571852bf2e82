package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/orbitlabs/orbit-server/internal/db"
)

// ProfileRepository provides data access for user profiles.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// GetByID fetches a user row, gorm.ErrRecordNotFound if absent.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user row.
func (r *ProfileRepository) Create(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// CompleteOnboarding writes the matchable profile fields in one update.
// Later edits to interests/quiz go through other surfaces, not here.
func (r *ProfileRepository) CompleteOnboarding(
	ctx context.Context,
	userID string,
	age int,
	interests []string,
	quizAnswers []int,
) error {
	res := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", userID).
		Select("age", "interests", "quiz_answers", "onboarded").
		Updates(&db.User{
			Age:         age,
			Interests:   interests,
			QuizAnswers: quizAnswers,
			Onboarded:   true,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListCandidates returns up to limit other onboarded users for the
// discovery feed.
func (r *ProfileRepository) ListCandidates(ctx context.Context, excludeUserID string, limit int) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("id <> ? AND onboarded = ?", excludeUserID, true).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

package repository

import (
	"context"

	"github.com/lib/pq"
	"github.com/marketpulse/backend/models"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUsername(ctx context.Context, id uint, username string) error
	UpdateWatchlist(ctx context.Context, id uint, watchlist []string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UpdateUsername writes a single column; concurrent writers are last-write-wins.
func (r *userRepository) UpdateUsername(ctx context.Context, id uint, username string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("username", username)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) UpdateWatchlist(ctx context.Context, id uint, watchlist []string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("watchlist", pq.StringArray(watchlist))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

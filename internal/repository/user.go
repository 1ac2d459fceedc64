package repository

import (
	"context"
	"storefront-api/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID string) (*model.User, error)
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{
		db: db,
	}
}

// Upsert keeps locally edited name fields and only overwrites what the identity provider owns.
func (r *userRepoImpl) Upsert(ctx context.Context, user *model.User) error {
	updates := map[string]interface{}{
		"email":      user.Email,
		"name":       user.Name,
		"updated_at": time.Now(),
	}
	if user.Phone != "" {
		updates["phone"] = user.Phone
	}
	if user.AvatarURL != "" {
		updates["avatar_url"] = user.AvatarURL
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(user).Error
}

func (r *userRepoImpl) FindByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

package repository

import (
	"context"
	"errors"

	"github.com/anonstay/service-booking/internal/domain"
	"github.com/anonstay/service-booking/internal/domain/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel is the GORM persistence model for the users table.
type UserModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"type:varchar(255);not null"`
	Email         string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	LoyaltyPoints int       `gorm:"not null;default:0"`
}

func (UserModel) TableName() string {
	return "users"
}

// UserRepositoryImpl is the GORM-based implementation of user.Ledger.
type UserRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository creates a new GORM-based user ledger.
func NewUserRepository(db *gorm.DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db}
}

// FindProfile returns the user's profile.
func (r *UserRepositoryImpl) FindProfile(ctx context.Context, id uuid.UUID) (*user.Profile, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", id.String())
		}
		return nil, err
	}
	return &user.Profile{
		ID:            model.ID,
		Name:          model.Name,
		Email:         model.Email,
		LoyaltyPoints: model.LoyaltyPoints,
	}, nil
}

// AddLoyaltyPoints adjusts the balance in one conditional statement. The
// balance guard rides in the WHERE clause, so a concurrent decrement can
// never drive the balance negative.
func (r *UserRepositoryImpl) AddLoyaltyPoints(ctx context.Context, id uuid.UUID, delta int) error {
	result := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ? AND loyalty_points + ? >= 0", id, delta).
		Update("loyalty_points", gorm.Expr("loyalty_points + ?", delta))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var cnt int64
		if err := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt == 0 {
			return domain.NewNotFoundError("User", id.String())
		}
		return domain.ErrInsufficientLoyaltyPoints
	}
	return nil
}

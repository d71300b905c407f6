package repository

import (
	"context"
	"pillar_journey_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

func (r *BadgeRepository) WithTx(tx *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: tx}
}

// ListUserBadges 用户已解锁的徽章
func (r *BadgeRepository) ListUserBadges(ctx context.Context, userID uint) ([]model.UserBadge, error) {
	var badges []model.UserBadge
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("earned_at ASC").Find(&badges).Error
	if err != nil {
		return nil, err
	}
	return badges, nil
}

// InsertIgnore 写入解锁记录，已存在时返回 false
func (r *BadgeRepository) InsertIgnore(ctx context.Context, ub *model.UserBadge) (bool, error) {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(ub)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *BadgeRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.UserBadge{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

package repository

import (
	"context"
	"pillar_journey_backend/internal/model"

	"gorm.io/gorm"
)

// KarmaRepository 积分流水只提供追加与读取
type KarmaRepository struct {
	DB *gorm.DB
}

func NewKarmaRepository(db *gorm.DB) *KarmaRepository {
	return &KarmaRepository{DB: db}
}

func (r *KarmaRepository) WithTx(tx *gorm.DB) *KarmaRepository {
	return &KarmaRepository{DB: tx}
}

func (r *KarmaRepository) Create(ctx context.Context, txn *model.KarmaTransaction) error {
	return r.DB.WithContext(ctx).Create(txn).Error
}

// Balance 用户积分余额
func (r *KarmaRepository) Balance(ctx context.Context, userID uint) (int, error) {
	var total int64
	err := r.DB.WithContext(ctx).Model(&model.KarmaTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// List 最近的流水，最新的在前
func (r *KarmaRepository) List(ctx context.Context, userID uint, limit int) ([]model.KarmaTransaction, error) {
	var txns []model.KarmaTransaction
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// CountByReference 某个来源对应的流水条数
func (r *KarmaRepository) CountByReference(ctx context.Context, userID uint, refType, refID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.KarmaTransaction{}).
		Where("user_id = ? AND reference_type = ? AND reference_id = ?", userID, refType, refID).
		Count(&count).Error
	return count, err
}

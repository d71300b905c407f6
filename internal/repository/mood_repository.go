package repository

import (
	"context"
	"pillar_journey_backend/internal/model"

	"gorm.io/gorm"
)

type MoodRepository struct {
	DB *gorm.DB
}

func NewMoodRepository(db *gorm.DB) *MoodRepository {
	return &MoodRepository{DB: db}
}

func (r *MoodRepository) Create(ctx context.Context, m *model.MoodLog) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

// Recent 最近 n 条心情记录，最新的在前
func (r *MoodRepository) Recent(ctx context.Context, userID uint, n int) ([]model.MoodLog, error) {
	var logs []model.MoodLog
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("log_date DESC, id DESC").
		Limit(n).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// ListRange 日期闭区间内的心情记录
func (r *MoodRepository) ListRange(ctx context.Context, userID uint, from, to string) ([]model.MoodLog, error) {
	var logs []model.MoodLog
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND log_date >= ? AND log_date <= ?", userID, from, to).
		Order("log_date ASC, id ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

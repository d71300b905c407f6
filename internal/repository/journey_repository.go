package repository

import (
	"context"
	"pillar_journey_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type JourneyRepository struct {
	DB *gorm.DB
}

func NewJourneyRepository(db *gorm.DB) *JourneyRepository {
	return &JourneyRepository{DB: db}
}

func (r *JourneyRepository) WithTx(tx *gorm.DB) *JourneyRepository {
	return &JourneyRepository{DB: tx}
}

// FindActive 查找用户进行中的旅程
func (r *JourneyRepository) FindActive(ctx context.Context, userID uint) (*model.Journey, error) {
	var journey model.Journey
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&journey).Error
	if err != nil {
		return nil, err
	}
	return &journey, nil
}

func (r *JourneyRepository) Create(ctx context.Context, journey *model.Journey) error {
	return r.DB.WithContext(ctx).Create(journey).Error
}

// DeactivateActive 结束用户进行中的旅程，completedAt 为空表示被替换
func (r *JourneyRepository) DeactivateActive(ctx context.Context, userID uint, completedAt *time.Time) (int64, error) {
	updates := map[string]interface{}{
		"is_active":      false,
		"active_user_id": nil,
	}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}
	res := r.DB.WithContext(ctx).Model(&model.Journey{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// ListActive 所有进行中的旅程，供巡检工具遍历
func (r *JourneyRepository) ListActive(ctx context.Context) ([]model.Journey, error) {
	var journeys []model.Journey
	err := r.DB.WithContext(ctx).Where("is_active = ?", true).Order("user_id ASC").Find(&journeys).Error
	return journeys, err
}

// ListByUser 用户全部旅程，最新的在前
func (r *JourneyRepository) ListByUser(ctx context.Context, userID uint) ([]model.Journey, error) {
	var journeys []model.Journey
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&journeys).Error
	return journeys, err
}

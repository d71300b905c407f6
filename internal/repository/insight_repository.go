package repository

import (
	"context"
	"pillar_journey_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type InsightRepository struct {
	DB *gorm.DB
}

func NewInsightRepository(db *gorm.DB) *InsightRepository {
	return &InsightRepository{DB: db}
}

// active 未忽略且未过期
func (r *InsightRepository) active(ctx context.Context, userID uint, now time.Time) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&model.Insight{}).
		Where("user_id = ? AND is_dismissed = ? AND expires_at > ?", userID, false, now)
}

// ActiveTitles 当前有效洞察的标题
func (r *InsightRepository) ActiveTitles(ctx context.Context, userID uint, now time.Time) ([]string, error) {
	var titles []string
	if err := r.active(ctx, userID, now).Pluck("title", &titles).Error; err != nil {
		return nil, err
	}
	return titles, nil
}

func (r *InsightRepository) Create(ctx context.Context, insight *model.Insight) error {
	return r.DB.WithContext(ctx).Create(insight).Error
}

// ListActive 未读在前，再按优先级和创建时间倒序
func (r *InsightRepository) ListActive(ctx context.Context, userID uint, now time.Time) ([]model.Insight, error) {
	var insights []model.Insight
	err := r.active(ctx, userID, now).
		Order("is_read ASC, priority DESC, created_at DESC").
		Find(&insights).Error
	if err != nil {
		return nil, err
	}
	return insights, nil
}

func (r *InsightRepository) FindByIDAndUser(ctx context.Context, id string, userID uint) (*model.Insight, error) {
	var insight model.Insight
	err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&insight).Error
	if err != nil {
		return nil, err
	}
	return &insight, nil
}

func (r *InsightRepository) MarkRead(ctx context.Context, id string, userID uint) error {
	return r.DB.WithContext(ctx).Model(&model.Insight{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true).Error
}

func (r *InsightRepository) Dismiss(ctx context.Context, id string, userID uint) error {
	return r.DB.WithContext(ctx).Model(&model.Insight{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_dismissed": true, "is_read": true}).Error
}

// MarkAllRead 返回被标记的条数
func (r *InsightRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.Insight{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// PurgeExpired 物理删除已过期的洞察
func (r *InsightRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Unscoped().Where("expires_at <= ?", now).Delete(&model.Insight{})
	return res.RowsAffected, res.Error
}

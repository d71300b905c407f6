package repository

import (
	"context"
	"pillar_journey_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckinKey 打卡记录的唯一键
type CheckinKey struct {
	UserID   uint
	PillarID uint
	Date     string
}

type CheckinRepository struct {
	DB *gorm.DB
}

// NewCheckinRepository 创建新的打卡仓库实例
func NewCheckinRepository(db *gorm.DB) *CheckinRepository {
	return &CheckinRepository{DB: db}
}

// WithTx 返回绑定到事务的仓库
func (r *CheckinRepository) WithTx(tx *gorm.DB) *CheckinRepository {
	return &CheckinRepository{DB: tx}
}

func (r *CheckinRepository) byKey(ctx context.Context, key CheckinKey) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&model.Checkin{}).
		Where("user_id = ? AND pillar_id = ? AND checkin_date = ?", key.UserID, key.PillarID, key.Date)
}

// InsertIgnore 插入未完成的占位记录，键已存在时什么也不做
func (r *CheckinRepository) InsertIgnore(ctx context.Context, checkin *model.Checkin) (bool, error) {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(checkin)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindByKey 按唯一键查找
func (r *CheckinRepository) FindByKey(ctx context.Context, key CheckinKey) (*model.Checkin, error) {
	var checkin model.Checkin
	err := r.byKey(ctx, key).First(&checkin).Error
	if err != nil {
		return nil, err
	}
	return &checkin, nil
}

// MarkCompleted 仅当记录尚未完成时置为完成，返回是否发生了 false→true 的转换
func (r *CheckinRepository) MarkCompleted(ctx context.Context, key CheckinKey, at time.Time) (bool, error) {
	res := r.byKey(ctx, key).Where("completed = ?", false).
		Updates(map[string]interface{}{"completed": true, "completed_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkIncomplete 仅当记录已完成时撤销完成状态
func (r *CheckinRepository) MarkIncomplete(ctx context.Context, key CheckinKey) (bool, error) {
	res := r.byKey(ctx, key).Where("completed = ?", true).
		Updates(map[string]interface{}{"completed": false, "completed_at": nil})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ClaimKarma 记录该键获得的积分，每个键一生只能成功一次
func (r *CheckinRepository) ClaimKarma(ctx context.Context, key CheckinKey, points int) (bool, error) {
	res := r.byKey(ctx, key).Where("karma_earned = ?", 0).Update("karma_earned", points)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateDetails 刷新时长、备注与更新时间，并把记录归到当前旅程
func (r *CheckinRepository) UpdateDetails(ctx context.Context, key CheckinKey, journeyID uint, durationMinutes *int, notes string, at time.Time) error {
	updates := map[string]interface{}{"updated_at": at, "journey_id": journeyID}
	if durationMinutes != nil {
		updates["duration_minutes"] = *durationMinutes
	}
	if notes != "" {
		updates["notes"] = notes
	}
	return r.byKey(ctx, key).Updates(updates).Error
}

// ListCompletedInWindow 旅程日期窗口（闭区间）内全部已完成的打卡，按日期升序。
// 按日期而不是 journey_id 过滤，重新开始的旅程与旧旅程重叠的日期同样计入。
func (r *CheckinRepository) ListCompletedInWindow(ctx context.Context, userID uint, from, to string) ([]model.Checkin, error) {
	var checkins []model.Checkin
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND checkin_date >= ? AND checkin_date <= ? AND completed = ?", userID, from, to, true).
		Order("checkin_date ASC, pillar_id ASC").
		Find(&checkins).Error
	if err != nil {
		return nil, err
	}
	return checkins, nil
}

// ActiveDates 日期窗口内至少有一项完成的日期
func (r *CheckinRepository) ActiveDates(ctx context.Context, userID uint, from, to string) ([]string, error) {
	var dates []string
	err := r.DB.WithContext(ctx).Model(&model.Checkin{}).
		Where("user_id = ? AND checkin_date >= ? AND checkin_date <= ? AND completed = ?", userID, from, to, true).
		Distinct("checkin_date").
		Order("checkin_date ASC").
		Pluck("checkin_date", &dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}

// ListByUserRange 按日期区间（闭区间）扫描用户的打卡记录
func (r *CheckinRepository) ListByUserRange(ctx context.Context, userID uint, from, to string) ([]model.Checkin, error) {
	var checkins []model.Checkin
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND checkin_date >= ? AND checkin_date <= ?", userID, from, to).
		Order("checkin_date ASC, pillar_id ASC").
		Find(&checkins).Error
	if err != nil {
		return nil, err
	}
	return checkins, nil
}

// CompletedPillarsOn 某天已完成的修习项 ID
func (r *CheckinRepository) CompletedPillarsOn(ctx context.Context, userID uint, date string) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&model.Checkin{}).
		Where("user_id = ? AND checkin_date = ? AND completed = ?", userID, date, true).
		Order("pillar_id ASC").
		Pluck("pillar_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CountByKey 测试与巡检用，返回某个键的行数
func (r *CheckinRepository) CountByKey(ctx context.Context, key CheckinKey) (int64, error) {
	var count int64
	err := r.byKey(ctx, key).Count(&count).Error
	return count, err
}

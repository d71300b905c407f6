package repository

import (
	"context"
	"pillar_journey_backend/internal/model"

	"gorm.io/gorm"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

func (r *AssessmentRepository) Create(ctx context.Context, a *model.SelfAssessment) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

// ListByUser 按时间倒序，assessmentType 为空表示不过滤
func (r *AssessmentRepository) ListByUser(ctx context.Context, userID uint, assessmentType model.AssessmentType) ([]model.SelfAssessment, error) {
	var list []model.SelfAssessment
	query := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if assessmentType != "" {
		query = query.Where("assessment_type = ?", assessmentType)
	}
	err := query.Order("assessment_date DESC, id DESC").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Latest 最近 n 次自评，最新的在前
func (r *AssessmentRepository) Latest(ctx context.Context, userID uint, n int) ([]model.SelfAssessment, error) {
	var list []model.SelfAssessment
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("assessment_date DESC, id DESC").
		Limit(n).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// FirstBaseline 最早的基线自评
func (r *AssessmentRepository) FirstBaseline(ctx context.Context, userID uint) (*model.SelfAssessment, error) {
	var a model.SelfAssessment
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND assessment_type = ?", userID, model.AssessmentBaseline).
		Order("assessment_date ASC, id ASC").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

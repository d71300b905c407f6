package model

import "time"

type InsightType string

const (
	InsightPattern        InsightType = "pattern"
	InsightStrength       InsightType = "strength"
	InsightWeakness       InsightType = "weakness"
	InsightRecommendation InsightType = "recommendation"
	InsightMilestone      InsightType = "milestone"
)

// TrendPoint 两次自评的综合分（10 分制放大到百分制）
type TrendPoint struct {
	Previous float64 `json:"previous"`
	Latest   float64 `json:"latest"`
}

// InsightData 各规则的附加数据，只填写与该规则相关的字段
type InsightData struct {
	Streak          int         `json:"streak,omitempty"`
	PillarID        uint        `json:"pillarId,omitempty"`
	PillarName      string      `json:"pillarName,omitempty"`
	CompletionRate  *int        `json:"completionRate,omitempty"`
	Weekday         string      `json:"weekday,omitempty"`
	MoodAverage     float64     `json:"moodAverage,omitempty"`
	JourneyDay      int         `json:"journeyDay,omitempty"`
	SuggestedAction string      `json:"suggestedAction,omitempty"`
	Trend           *TrendPoint `json:"trend,omitempty"`
}

// Insight 生成的洞察，活跃期内 (user_id, title) 不重复
// swagger:model Insight
type Insight struct {
	UUIDBase
	UserID      uint         `gorm:"index:idx_insight_user_active,priority:1;not null" json:"userId"`
	Type        InsightType  `gorm:"type:varchar(20);not null" json:"type"`
	Category    string       `gorm:"size:32" json:"category"`
	Title       string       `gorm:"size:255;index:idx_insight_user_active,priority:2;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Data        *InsightData `gorm:"serializer:json;type:text" json:"data,omitempty"`
	Priority    int          `gorm:"default:0" json:"priority"`
	IsRead      bool         `gorm:"default:false" json:"isRead"`
	IsDismissed bool         `gorm:"default:false" json:"isDismissed"`
	ExpiresAt   time.Time    `gorm:"index;not null" json:"expiresAt"`
}

func (Insight) TableName() string {
	return "insights"
}

// InsightDraft 规则产出的候选洞察，尚未持久化
type InsightDraft struct {
	Type        InsightType  `json:"type"`
	Category    string       `json:"category"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Data        *InsightData `json:"data,omitempty"`
	Priority    int          `json:"priority"`
}

// TTL 里程碑保留 7 天，其余 1 天
func (d InsightDraft) TTL() time.Duration {
	if d.Type == InsightMilestone {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

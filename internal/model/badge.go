package model

import "time"

type RequirementKind string

const (
	// RequireDaysCompleted 旅程内有完成记录的不同日期数
	RequireDaysCompleted RequirementKind = "days_completed"
	// RequireStreak 历史最长连续天数
	RequireStreak RequirementKind = "streak"
	// RequireAllPillarsInDay 全部修习项都完成的天数
	RequireAllPillarsInDay RequirementKind = "all_pillars_day"
	// RequireEarlyMorning 早于截止时刻完成晨起修习的次数
	RequireEarlyMorning RequirementKind = "early_morning"
)

// Requirement 徽章解锁条件，Value 的含义由 Kind 决定
type Requirement struct {
	Kind  RequirementKind `gorm:"column:requirement_kind;type:varchar(32);not null" json:"kind"`
	Value int             `gorm:"column:requirement_value;not null" json:"value"`
}

// Badge 静态徽章目录
// swagger:model Badge
type Badge struct {
	ID          uint        `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Slug        string      `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Name        string      `gorm:"size:100;not null" json:"name"`
	Description string      `gorm:"size:255" json:"description"`
	Icon        string      `gorm:"size:64" json:"icon"`
	Color       string      `gorm:"size:16" json:"color"`
	Requirement Requirement `gorm:"embedded" json:"requirement"`
	KarmaBonus  int         `gorm:"default:0" json:"karmaBonus"`
	SortOrder   int         `gorm:"default:0" json:"sortOrder"`
}

func (Badge) TableName() string {
	return "badges"
}

// UserBadge 用户已解锁的徽章，(user_id, badge_id) 唯一
// swagger:model UserBadge
type UserBadge struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   uint      `gorm:"uniqueIndex:idx_user_badge,priority:1;not null" json:"userId"`
	BadgeID  uint      `gorm:"uniqueIndex:idx_user_badge,priority:2;not null" json:"badgeId"`
	EarnedAt time.Time `gorm:"not null" json:"earnedAt"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}

// Badges 徽章目录
var Badges = []Badge{
	{ID: 1, Slug: "day-1", Name: "First Step", Description: "Complete your first day", Icon: "Footprints", Color: "#FFD700", Requirement: Requirement{Kind: RequireDaysCompleted, Value: 1}, KarmaBonus: 50, SortOrder: 1},
	{ID: 2, Slug: "day-7", Name: "Week Warrior", Description: "Complete 7 consecutive days", Icon: "Calendar", Color: "#C0C0C0", Requirement: Requirement{Kind: RequireStreak, Value: 7}, KarmaBonus: 100, SortOrder: 2},
	{ID: 3, Slug: "day-21", Name: "Habit Former", Description: "Complete 21 consecutive days", Icon: "Flame", Color: "#FF6B35", Requirement: Requirement{Kind: RequireStreak, Value: 21}, KarmaBonus: 250, SortOrder: 3},
	{ID: 4, Slug: "day-48", Name: "Transformation Complete", Description: "Complete the full 48-day journey", Icon: "Trophy", Color: "#FFD700", Requirement: Requirement{Kind: RequireDaysCompleted, Value: 48}, KarmaBonus: 500, SortOrder: 4},
	{ID: 5, Slug: "perfect-day", Name: "Perfect Day", Description: "Complete all 11 pillars in one day", Icon: "Star", Color: "#A855F7", Requirement: Requirement{Kind: RequireAllPillarsInDay, Value: 1}, KarmaBonus: 75, SortOrder: 5},
	{ID: 6, Slug: "early-bird", Name: "Early Bird", Description: "Complete morning initiation 10 times before 5:30 AM", Icon: "Sunrise", Color: "#F59E0B", Requirement: Requirement{Kind: RequireEarlyMorning, Value: 10}, KarmaBonus: 100, SortOrder: 6},
}

// FindBadgeBySlug 按 slug 查找徽章
func FindBadgeBySlug(slug string) (Badge, bool) {
	for _, b := range Badges {
		if b.Slug == slug {
			return b, true
		}
	}
	return Badge{}, false
}

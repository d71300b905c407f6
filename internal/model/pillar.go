package model

type PillarCategory string

const (
	CategoryBody   PillarCategory = "body"
	CategoryMind   PillarCategory = "mind"
	CategorySpirit PillarCategory = "spirit"
)

// Pillar 每日修习项，运行期不可变
// swagger:model Pillar
type Pillar struct {
	ID              uint           `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Slug            string         `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Name            string         `gorm:"size:100;not null" json:"name"`
	SanskritName    string         `gorm:"size:100" json:"sanskritName"`
	Description     string         `gorm:"size:255" json:"description"`
	Category        PillarCategory `gorm:"type:varchar(16);not null" json:"category"`
	DurationMinutes int            `gorm:"default:0" json:"durationMinutes"`
	BaseKarma       int            `gorm:"not null" json:"baseKarma"`
	OrderIndex      int            `gorm:"not null" json:"orderIndex"`
}

func (Pillar) TableName() string {
	return "pillars"
}

// Pillars 固定的 11 项修习目录，顺序即展示顺序
var Pillars = []Pillar{
	{ID: 1, Slug: "morning-initiation", Name: "5 AM Initiation", SanskritName: "Brahma Muhurta", Description: "Activate clarity, discipline & emotional balance", Category: CategoryBody, DurationMinutes: 10, BaseKarma: 15, OrderIndex: 1},
	{ID: 2, Slug: "nutrition-fasting", Name: "Vedic Nutrition + Fasting", SanskritName: "Ahara Vidhi", Description: "Plant-forward meals, aligned to circadian rhythm", Category: CategoryBody, DurationMinutes: 0, BaseKarma: 10, OrderIndex: 2},
	{ID: 3, Slug: "thoughts-intention", Name: "Thoughts & Intention Reset", SanskritName: "Sankalpa", Description: "Replace negative patterns, build mental strength", Category: CategoryMind, DurationMinutes: 5, BaseKarma: 12, OrderIndex: 3},
	{ID: 4, Slug: "breathing-meditation", Name: "Breathing + Meditation", SanskritName: "Pranayama", Description: "Stabilize stress hormones, activate focus", Category: CategoryMind, DurationMinutes: 15, BaseKarma: 15, OrderIndex: 4},
	{ID: 5, Slug: "movement", Name: "Movement Everyday", SanskritName: "Vyayama", Description: "Yoga, walking, strength for metabolism", Category: CategoryBody, DurationMinutes: 30, BaseKarma: 12, OrderIndex: 5},
	{ID: 6, Slug: "healing-meditation", Name: "Healing Meditation", SanskritName: "Dhyana", Description: "Inner rewiring through meditation", Category: CategoryMind, DurationMinutes: 20, BaseKarma: 15, OrderIndex: 6},
	{ID: 7, Slug: "gratitude", Name: "Gratitude Practice", SanskritName: "Kritajnata", Description: "Strengthen positive neural pathways", Category: CategoryMind, DurationMinutes: 5, BaseKarma: 10, OrderIndex: 7},
	{ID: 8, Slug: "sandhya-meditation", Name: "Sandhya Meditation", SanskritName: "Sandhyavandana", Description: "Align body rhythms with nature (3x daily)", Category: CategorySpirit, DurationMinutes: 15, BaseKarma: 20, OrderIndex: 8},
	{ID: 9, Slug: "brahman-connection", Name: "Connection to Brahman", SanskritName: "Brahma Sambandha", Description: "Expand consciousness, connect with universal energy", Category: CategorySpirit, DurationMinutes: 10, BaseKarma: 15, OrderIndex: 9},
	{ID: 10, Slug: "divine-manifestation", Name: "Divine Manifestation", SanskritName: "Sankalpa Shakti", Description: "Set intentions and manifest your highest goals", Category: CategorySpirit, DurationMinutes: 10, BaseKarma: 12, OrderIndex: 10},
	{ID: 11, Slug: "sleep-optimization", Name: "Sleep Optimization", SanskritName: "Nidra", Description: "Deep rest for cellular repair", Category: CategoryBody, DurationMinutes: 0, BaseKarma: 10, OrderIndex: 11},
}

// PillarCount 全部修习项数量，"完美一天"需要全部完成
var PillarCount = len(Pillars)

var pillarIndex = func() map[uint]*Pillar {
	m := make(map[uint]*Pillar, len(Pillars))
	for i := range Pillars {
		m[Pillars[i].ID] = &Pillars[i]
	}
	return m
}()

// FindPillar 按 ID 查找目录中的修习项
func FindPillar(id uint) (Pillar, bool) {
	p, ok := pillarIndex[id]
	if !ok {
		return Pillar{}, false
	}
	return *p, true
}

// FindPillarBySlug 按 slug 查找修习项
func FindPillarBySlug(slug string) (Pillar, bool) {
	for _, p := range Pillars {
		if p.Slug == slug {
			return p, true
		}
	}
	return Pillar{}, false
}
